package irc

import (
	"bytes"
	"encoding"
	"strings"

	"github.com/pkg/errors"
)

// warnTruncate is an error indicating that an encoded IRC message is too long. The message
// was still encoded, but the server is likely to truncate or reject it.
//
// Most IRC servers limit messages to 512 bytes in length, including the trailing CR-LF characters.
// https://modern.ircdocs.horse/#messages
//
// The message-tags capability allows 8191 bytes for the tags portion of a message,
// including the leading '@' and trailing SPACE.
// https://ircv3.net/specs/extensions/message-tags.html
//
// If you know that the server which you are connected to will accept longer lines,
// then it is safe to discard this error.
// E.g.:
//     if errors.Cause(err) == warnTruncate { err = nil }
var warnTruncate = errors.New("message length exceeds IRC limit and may be truncated")

const (
	// parameterLimit is the maximum number of parameters a message may contain as defined by the protocol.
	// Generally, clients should never send more than this limit but should accept any number.
	parameterLimit = 15

	// lineLimit is the maximum length of a line without its tags, including CR-LF.
	lineLimit = 512

	// tagsLimit is the maximum length of the tags section, including '@' and SPACE.
	tagsLimit = 8191
)

// NewMessage constructs a new Message to be sent on the connection
// with cmd as the verb and args as the message parameters.
//
// Only the last argument may contain SPACE (ascii 32, %x20).
// This is a limitation defined in the IRC protocol.
// Including SPACE in any other argument will
// result in undefined behavior.
func NewMessage(cmd Command, args ...string) *Message {
	size := parameterLimit
	if len(args) > size {
		size = len(args)
	}
	p := make(Params, len(args), size)
	copy(p, args)
	cmd.normalize()
	return &Message{
		Command: cmd,
		Params:  p,
	}
}

// Message represents any incoming or outgoing IRC line.
//
// A message consists of four parts: tags, prefix, verb, and params.
//
//	@time=2023-08-09T07:43:01.830Z :nick!user@host PRIVMSG #test :hello
type Message struct {

	// Tags contains IRCv3 message tags.
	// Tags are included by the server if the message-tags capability has been negotiated.
	// Values are unescaped.
	Tags Tags

	// Source is where the message originated from.
	// It's set by the prefix portion of an IRC message.
	//
	// Source should be left empty for messages that will be written to an IRC connection.
	Source Prefix

	// Command is the IRC verb or numeric such as PRIVMSG, NOTICE, 001, etc.
	Command Command

	// Params contains all the message parameters.
	// If a message included a trailing component,
	// it will be included without special treatment.
	// For outgoing messages,
	// only the last parameter may contain a SPACE (ascii 32).
	Params Params

	// includePrefix controls whether MarshalText will write the prefix.
	includePrefix bool
}

// MarshalText implements encoding.TextMarshaler, mainly for use with irc.MessageWriter.
//
// The returned line ends with CR-LF.
// A non-nil error wrapping warnTruncate is returned alongside a usable line when
// the line exceeds the protocol limits.
func (m *Message) MarshalText() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, lineLimit))
	var (
		tbc int // tags byte count
		err error
	)

	if s, _ := EncodeTags(m.Tags); s != "" {
		buf.WriteByte(startTags)
		buf.WriteString(s)
		buf.WriteByte(delimParam)

		tbc = buf.Len()
		if tbc > tagsLimit {
			err = errors.Wrapf(warnTruncate, "message tags were %d bytes", tbc)
		}
	}

	if m.includePrefix && m.Source != (Prefix{}) {
		buf.WriteByte(startPrefix)
		buf.WriteString(m.Source.String())
		buf.WriteByte(delimParam)
	}

	buf.WriteString(m.Command.String())

	for i, p := range m.Params {
		buf.WriteByte(delimParam)

		// for simplicity, always write the last param in the trailing component.
		// proper parsers should handle this normally.
		if i == len(m.Params)-1 {
			buf.WriteByte(startTrailing)
		}
		buf.WriteString(p)
	}
	buf.WriteString("\r\n")

	if l := buf.Len() - tbc; l > lineLimit {
		if err == nil {
			err = warnTruncate
		}
		err = errors.Wrapf(err, "message length is %d bytes", l)
	}

	return buf.Bytes(), err
}

// UnmarshalText implements encoding.TextUnmarshaler,
// accepting a line read from an IRC stream.
// text should not include the trailing CR-LF pair.
//
// The tag block is handed to Tags.Parse, which never fails.
// A line made of tags alone is an error.
func (m *Message) UnmarshalText(text []byte) error {
	// re-using a message to unmarshal a new line should clear old fields
	m.Source = Prefix{}
	m.Command = ""
	m.Params = nil
	m.Tags = nil

	for _, i := range lex(string(text)) {
		switch i.typ {
		case itemEOF:
			return nil
		case itemError:
			return errors.Errorf("parse %q: %s", text, i.val)
		case itemTags:
			m.Tags.Parse(i.val, "")
		case itemNickname:
			m.Source.Nick = Nickname(i.val)
		case itemUser:
			m.Source.User = i.val
		case itemHost:
			m.Source.Host = i.val
		case itemCommand:
			m.Command = Command(i.val)
		case itemParam:
			m.Params = append(m.Params, i.val)
		}
	}
	return nil
}

// ParseMessage parses a single line without its trailing CR-LF.
func ParseMessage(line string) (*Message, error) {
	m := new(Message)
	if err := m.UnmarshalText([]byte(line)); err != nil {
		return nil, err
	}
	m.IncludePrefix()
	return m, nil
}

// IncludePrefix controls whether the Source field will be marshaled by MarshalText.
//
// The Source field should be left empty for messages which are written to an IRC connection,
// because [RFC 1459] states that for messages originating from a client,
// it is invalid to include any prefix other than the client's nickname.
// Received messages and messages being replayed to handlers should include it.
//
// [RFC 1459]: https://datatracker.ietf.org/doc/html/rfc1459#section-2.3
func (m *Message) IncludePrefix() {
	m.includePrefix = true
}

// Clone returns a deep copy of m.
func (m *Message) Clone() *Message {
	c := *m
	c.Tags = m.Tags.Clone()
	if m.Params != nil {
		c.Params = append(Params(nil), m.Params...)
	}
	return &c
}

// Command is an IRC command such as PRIVMSG, NOTICE, 001, etc.
//
// A command may also be known as the "verb", "event type", or "numeric".
type Command string

// String implements fmt.Stringer
func (c Command) String() string {
	return string(c)
}

// normalize will modify the command to use consistent casing.
func (c *Command) normalize() {
	*c = Command(strings.ToUpper(c.String()))
}

// is does a case-insensitive compare between two commands, which is
// useful if a command was given as a string constant.
func (c Command) is(oc Command) bool {
	return strings.EqualFold(string(c), string(oc))
}

// Prefix is the optional message (line) prefix,
// which indicates the source (user or server) of the message,
// depending on the prefix format.
//
// Example nickname-only prefix:
// 	:Travis MODE Travis :+ixz
//
// Example "fulladdress" prefix:
// 	:NickServ!services@services.host NOTICE Travis :This nickname is registered...
//
// Example server prefix:
// 	:fiery.ca.us.SwiftIRC.net MODE #foo +nt
type Prefix struct {
	Nick Nickname
	User string
	Host string
}

// IsServer returns true when the message originated from a server (as opposed to a user/client).
// When true, the server name will be contained in the Host field.
func (p Prefix) IsServer() bool {
	return p.Host != "" && p.Nick == ""
}

// String implements fmt.Stringer
func (p Prefix) String() string {
	switch {
	case p.Nick == "" && p.User == "" && p.Host == "":
		return ""
	case p.Nick == "" && p.User == "":
		return p.Host
	case p.User == "":
		return p.Nick.String()
	default:
		return p.Nick.String() + "!" + p.User + "@" + p.Host
	}
}

// Params contains the slice of arguments for a message.
//
// Prefer the Get method for reading params rather than accessing the slice directly.
type Params []string

// Get returns the nth parameter (starting at 1) from the parameters list,
// or "" (empty string) if it did not exist.
//
// Get does not differentiate between missing and empty parameters.
func (p Params) Get(n int) string {
	if n > len(p) || n < 1 {
		return ""
	}
	return p[n-1]
}

type Nickname string

func (n Nickname) String() string {
	return string(n)
}

// Is determines whether a nickname matches a string by using Unicode case folding.
func (n Nickname) Is(other string) bool {
	return strings.EqualFold(n.String(), other)
}

// MessageWriter contains methods for sending IRC messages to a server.
type MessageWriter interface {

	// WriteMessage writes the message to the client's outgoing message queue.
	// The given encoding.TextMarshaler MUST return a byte slice which conforms to the IRC protocol.
	// If the slice does not end in "\r\n", then the sequence will be appended.
	WriteMessage(encoding.TextMarshaler)
}
