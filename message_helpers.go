package irc

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Text returns the free-form text portion of a message for the well-known (named) IRC commands.
// An error is returned if the method is called for unsupported message types.
// If err is not nil, then Text will contain the entire parameter list joined together as one string.
//
// In the case of PART and KICK, Text contains the <reason> message parameter.
func (m *Message) Text() (string, error) {
	switch m.Command {
	case CmdQuit, CmdError:
		return m.Params.Get(1), nil
	case CmdPrivmsg, CmdNotice, CmdTopic, CmdPart, CmdMode:
		return m.Params.Get(2), nil
	case CmdKick:
		return m.Params.Get(3), nil
	default:
		return strings.Join(m.Params, " "), errors.Errorf("text: command %s is not supported", m.Command)
	}
}

// Target returns the intended target of a message.
// In the case of query messages, Target will equal our client's nickname.
// For channel messages, Target will usually be the name of the channel a message was sent to.
func (m *Message) Target() (string, error) {
	switch m.Command {
	case CmdPrivmsg, CmdNotice, CmdTagMsg, CmdInvite, CmdTopic, CmdKick, CmdPart, CmdMode:
		return m.Params.Get(1), nil
	default:
		return "", errors.Errorf("%s: target method not supported", m.Command)
	}
}

// BatchRef returns the reference of the batch a message belongs to,
// or "" when the message has no batch tag.
func (m *Message) BatchRef() string {
	return m.Tags.Get(TagBatch)
}

// Time returns the time a message was sent, according to its server-time tag.
// ok is false when the server did not include a usable timestamp.
func (m *Message) Time() (ts time.Time, ok bool) {
	return m.Tags.Time()
}
