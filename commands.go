package irc

import "strings"

// Msg constructs a new Message of type PRIVMSG,
// with target being the intended target channel or nickname,
// and message being the text body.
func Msg(target, message string) *Message {
	return NewMessage(CmdPrivmsg, target, message)
}

// Notice constructs a new message of type NOTICE,
// with target being the intended target channel or nickname,
// and message being the text body.
func Notice(target, message string) *Message {
	return NewMessage(CmdNotice, target, message)
}

// TagMsg constructs a TAGMSG command, defined in the IRCv3 message-tags capability.
// A TAGMSG carries only tags, typically client-only tags such as "+typing".
func TagMsg(target string, tags Tags) *Message {
	m := NewMessage(CmdTagMsg, target)
	m.Tags = tags.Clone()
	return m
}

// Reply constructs a PRIVMSG to target that refers to the message with id msgid
// via the client-only "+draft/reply" tag.
func Reply(target, msgid, message string) *Message {
	m := Msg(target, message)
	m.Tags.Set(TagReply, msgid)
	return m
}

// BatchStart constructs the opening line of a batch.
// ref must be unique on the connection for the lifetime of the batch.
func BatchStart(ref, typ string, params ...string) *Message {
	return NewMessage(CmdBatch, append([]string{"+" + ref, typ}, params...)...)
}

// BatchEnd constructs the closing line of the batch ref.
func BatchEnd(ref string) *Message {
	return NewMessage(CmdBatch, "-"+ref)
}

// Nick constructs a nickname change command.
func Nick(name string) *Message {
	return NewMessage(CmdNick, name)
}

// Join constructs a channel join command.
func Join(channel string) *Message {
	return NewMessage(CmdJoin, channel)
}

// Quit constructs a command that will cause the server to terminate the client's connection,
// and may display the quit message to clients that are configured to show quit messages.
func Quit(message string) *Message {
	return NewMessage(CmdQuit, message)
}

// Ping constructs a command to PING the connection.
// The server will typically respond with PONG <message>.
func Ping(message string) *Message {
	return NewMessage(CmdPing, message)
}

// Pong builds the reply to a PING from the connection.
// The reply message must be the same as the original
// PING message.
func Pong(reply string) *Message {
	return NewMessage(CmdPong, reply)
}

// CapLS requests a list of the capabilities supported
// by the server.
//
// version is the capability negotiation protocol version,
// e.g. "302" for version 3.2.
func CapLS(version string) *Message {
	return Cap("LS", version)
}

// CapReq requests that caps be enabled for the
// client's connection. The server acknowledges or rejects the whole list at once.
func CapReq(caps ...string) *Message {
	return Cap("REQ", strings.Join(caps, " "))
}

// CapEnd ends the capability negotiation.
func CapEnd() *Message {
	return Cap("END")
}

// Cap sends a CAP command as part of capability negotiation.
// args are the subcommand and parameters of the CAP command.
func Cap(args ...string) *Message {
	return NewMessage(CmdCap, args...)
}

// User is used at the beginning of a connection to specify
// the username and realname of a new user.
//
// realname may contain spaces.
//
// https://tools.ietf.org/html/rfc2812#section-3.1.3
func User(user, realname string) *Message {
	// The second param (mode) is typically not useful.
	// The third param is unused.
	return NewMessage(CmdUser, user, "0", "*", realname)
}

// Pass specifies the connection password.
func Pass(password string) *Message {
	return NewMessage(CmdPass, password)
}
