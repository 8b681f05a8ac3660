package irc

// irc commands which may be sent or received by a client.
const (
	CmdAway    = "AWAY"    // Set an automatic reply string for any PRIVMSG commands.
	CmdBatch   = "BATCH"   // IRCv3 batch start (+ref) or end (-ref). https://ircv3.net/specs/extensions/batch
	CmdCap     = "CAP"     // IRCv3 Capability negotiation.
	CmdError   = "ERROR"   // Report a serious or fatal error to a peer.
	CmdInvite  = "INVITE"  // Invite a user to a channel.
	CmdJoin    = "JOIN"    // Join a channel.
	CmdKick    = "KICK"    // Request the forced removal of a user from a channel.
	CmdMode    = "MODE"    // User mode.
	CmdNick    = "NICK"    // ":<newnick>" Define a nickname.
	CmdNotice  = "NOTICE"  // Send a notice message to specific users or channels.
	CmdPart    = "PART"    // Leave a channel.
	CmdPass    = "PASS"    // Set a connection password.
	CmdPing    = "PING"    // Test for the presence of an active client or server.
	CmdPong    = "PONG"    // Reply to a PING message.
	CmdPrivmsg = "PRIVMSG" // Send private messages between users, as well as to send messages to channels.
	CmdQuit    = "QUIT"    // Terminate the client session.
	CmdTagMsg  = "TAGMSG"  // https://ircv3.net/specs/extensions/message-tags.html
	CmdTopic   = "TOPIC"   // Change or view the topic of a channel.
	CmdUser    = "USER"    // Specify the username, hostname and realname of a new user.
)

// irc reply codes used by the client.
const (
	RplWelcome    = "001" // "Welcome to the Internet Relay Network <nick>!<user>@<host>"
	RplMyInfo     = "004" // "<servername> <version> <available user modes> <available channel modes>"
	RplHostHidden = "396" // "<nick> <host> :is now your displayed host"

	RplErrInvalidCapCmd = "410" // "<client> <command> :Invalid CAP command"
)

// IRCv3 capabilities which affect message tags.
const (
	CapMessageTags = "message-tags"    // https://ircv3.net/specs/extensions/message-tags
	CapServerTime  = "server-time"     // https://ircv3.net/specs/extensions/server-time
	CapBatch       = "batch"           // https://ircv3.net/specs/extensions/batch
	CapMultiline   = "draft/multiline" // https://ircv3.net/specs/extensions/multiline
)

// Well-known tag keys.
const (
	TagBatch           = "batch"
	TagTime            = "time"
	TagMsgID           = "msgid"
	TagLabel           = "label"
	TagReply           = "+draft/reply"
	TagMultilineConcat = "draft/multiline-concat"
)

// BatchMultiline is the batch type for messages split over several lines.
const BatchMultiline = "draft/multiline"
