package irc

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jrivets/log4g"
	"github.com/pkg/errors"
	textencoding "golang.org/x/text/encoding"
)

var errPingTimeout = errors.New("ping timeout")

// DefaultCaps are the capabilities requested when Client.Caps is nil.
var DefaultCaps = []string{CapMessageTags, CapServerTime, CapBatch, CapMultiline}

// A Client manages a connection to an IRC server.
// It reads/writes IRC lines on the connection,
// and calls the handler for each Message it parses from the connection.
//
// During registration the client requests the capabilities listed in Caps.
// Once the batch capability is acknowledged, lines belonging to a batch are held back
// and passed to the handler when the batch ends, with the tags of the batch added to each line.
type Client struct {

	// The address ("host:port") of the IRC server. Only TLS connections are supported; use DialFn for anything else.
	// Addr is only used when DialFn is nil.
	Addr string

	// The nickname used by the Client when connecting to an IRC network (required).
	// Nicknames cannot contain spaces.
	Nickname string

	// The user name (required).
	// User cannot contain spaces.
	User string

	// The realname of the client (required).
	// Also referred to as the gecos field.
	// Realname may contain spaces
	Realname string

	// The connection password (optional: depends on the network).
	Pass string

	// Caps lists the capabilities requested from the server.
	// When nil, DefaultCaps is used. An empty, non-nil slice requests nothing.
	Caps []string

	// Charset decodes received lines that are not valid UTF-8, e.g. charmap.ISO8859_1.
	// When nil, such lines are parsed as they are.
	Charset textencoding.Encoding

	// DialFn is a function that accepts no parameters and returns an io.ReadWriteCloser and error.
	//
	// The returned connection can be any io.ReadWriteCloser: irc, ircs, ws, wss, a server mock, etc.
	// The only requirement is that the stream consists of CRLF-delimited IRC messages.
	//
	// When DialFn is nil, the default behavior dials Addr with tls.Dial.
	DialFn func() (io.ReadWriteCloser, error)

	// Logger receives errors returned from parsing and encoding messages.
	// If nil, the "irc.client" log4g logger is used.
	Logger log4g.Logger

	conn    io.ReadWriteCloser
	handler Handler
	state   clientState
	caps    *capNegotiator
	wg      sync.WaitGroup

	// errC is a buffered channel of errors.
	// The channel may be nil, so senders must always have a default case if sending blocked.
	// Only the first error sent to the channel will be used.
	errC chan error
}

// ConnectAndRun establishes a connection to the remote IRC server and sends the appropriate
// IRC protocol commands to begin the connection and capability negotiation.
//
// The Handler h is called for every incoming Message parsed from the connection.
// Handlers are called synchronously because the ordering of incoming messages matters.
//
// ConnectAndRun always returns an error, with one exception: if the client sends an IRC "QUIT"
// message followed by receiving an io.EOF from the connection, then the returned error
// will be nil.
func (c *Client) ConnectAndRun(ctx context.Context, h Handler) error {
	var (
		err     error
		cancel  context.CancelFunc
		mainctx context.Context
	)

	if c.Nickname == "" {
		panic("client nickname cannot be empty")
	}

	if c.User == "" {
		c.User = "guest"
	}

	if c.Realname == "" {
		c.Realname = "..."
	}

	if c.Logger == nil {
		c.Logger = log4g.GetLogger("irc.client")
	}

	if c.DialFn == nil {
		if c.Addr == "" {
			panic("ConnectAndRun: Addr cannot be empty when DialFn is nil")
		}
		c.DialFn = func() (io.ReadWriteCloser, error) {
			return tls.Dial("tcp", c.Addr, nil)
		}
	}

	caps := c.Caps
	if caps == nil {
		caps = DefaultCaps
	}

	// this context intentionally doesn't use ctx as a parent because we listen for ctx.Done() to trigger
	// a graceful shutdown (sending QUIT). that doesn't work if all of our goroutines have already exited.
	mainctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	c.state = clientState{
		nick:   c.Nickname,
		user:   c.User,
		server: strings.Split(c.Addr, ":")[0],
	}
	c.caps = newCapNegotiator(caps)

	if c.conn != nil {
		return errors.New("the client already has a connection")
	}

	if c.conn, err = c.DialFn(); err != nil {
		return errors.Wrap(err, "dial")
	}
	defer func() {
		_ = c.conn.Close()
		c.conn = nil
	}()

	// trigger shutdown on the first read from the error channel
	c.errC = make(chan error, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.conn.Close()
		defer cancel()

		err = <-c.errC // err is used in the method return value
	}()

	if h == nil {
		h = noop
	}

	pinger := &pingHandler{
		timeout: func() {
			c.exit(errPingTimeout)
		},
	}
	batches := newBatchTracker(c.caps.has, c.Logger)

	c.handler = wrap(h, pingMiddleware, pinger.pongHandler, c.state.middleware, c.caps.middleware, batches.middleware)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.mainLoop(mainctx, pinger)
	}()

	// when ctx is done we try to close the connection gracefully
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		select {
		case <-mainctx.Done():
			return
		case <-ctx.Done():
			c.WriteMessage(Quit("closing link"))
			select {
			case <-mainctx.Done():
			case <-time.After(3 * time.Second):
				c.exit(nil)
			}
		}
	}()

	c.WriteMessage(CapLS("302"))
	if c.Pass != "" {
		c.WriteMessage(Pass(c.Pass))
	}
	c.WriteMessage(Nick(c.Nickname))
	c.WriteMessage(User(c.User, c.Realname))

	c.wg.Wait()
	if err == io.EOF && c.state.status == statusDisconnecting {
		return nil
	}
	return err
}

// HasCap reports whether the server acknowledged the capability name on the current connection.
func (c *Client) HasCap(name string) bool {
	if c.caps == nil {
		return false
	}
	return c.caps.has(name)
}

func (c *Client) mainLoop(ctx context.Context, pinger *pingHandler) {
	readLine := c.startReading(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case l, ok := <-readLine:
			if !ok {
				c.exit(errors.New("read channel closed"))
				return
			}
			m := new(Message)
			m.IncludePrefix()
			if err := m.UnmarshalText(c.decode(l)); err != nil {
				// A parse error might be caused by a malformed line from the remote server
				// or a bug in our message parser. Neither is a reason for the client to exit.
				c.log(err)
				continue
			}
			// rfc1459: If the prefix is missing from the message, it
			// is assumed to have originated from the connection from which it was
			// received.
			if (m.Source == Prefix{}) {
				m.Source.Host = c.state.server
			}
			c.handler.SpeakIRC(c, m)
		case <-time.After(2 * time.Minute):
			pinger.ping(ctx, c, "TIMEOUTCHECK")
		}
	}
}

// decode converts l to UTF-8 with c.Charset when l is not valid UTF-8.
func (c *Client) decode(l []byte) []byte {
	if c.Charset == nil || utf8.Valid(l) {
		return l
	}
	d, err := c.Charset.NewDecoder().Bytes(l)
	if err != nil {
		c.log(errors.Wrapf(err, "decode %q", l))
		return l
	}
	return d
}

func (c *Client) startReading(ctx context.Context) <-chan []byte {
	lines := make(chan []byte)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(lines)

		s := bufio.NewScanner(c.conn)
		for s.Scan() {
			l := s.Bytes()
			if len(l) == 0 {
				continue
			}
			// the scanner reuses its buffer
			l = append([]byte(nil), l...)
			select {
			case <-ctx.Done():
				return
			case lines <- l:
			}
		}
		err := s.Err()
		// scanner.Err() returns nil when the reader error was EOF, but the IRC client
		// wants to know when the error is EOF in order to determine if the
		// connection was terminated gracefully.
		if err == nil {
			c.exit(io.EOF)
		} else {
			c.exit(err)
		}
	}()
	return lines
}

// exit requests the client to exit and return with err. Only the first such error
// is returned; any successive calls to exit will drop the error.
func (c *Client) exit(err error) {
	select {
	case c.errC <- err:
	default:
	}
}

// WriteMessage implements irc.MessageWriter.
// It writes m to the client's connection.
// Marshaling errors will be reported to the client's logger.
// Write errors will cause the client's run method to return with the first error.
func (c *Client) WriteMessage(m encoding.TextMarshaler) {
	var (
		err error
		b   []byte
	)

	if c.conn == nil {
		c.log(errors.Errorf("WriteMessage: conn cannot be nil; m: %#v", m))
		return
	}

	b, err = m.MarshalText()
	if err != nil {
		if errors.Cause(err) != warnTruncate {
			c.log(errors.Wrapf(err, "marshal text; message: %#v", m))
			return
		}
		c.log(err)
	}
	if !bytes.HasSuffix(b, []byte("\r\n")) {
		b = append(b, []byte("\r\n")...)
	}

	// lets us rewrite ConnectAndRun's error to nil when the exit was intentional
	if isQuit(b) {
		c.state.status = statusDisconnecting
	}

	if _, err = c.conn.Write(b); err != nil {
		c.exit(errors.Wrap(err, "write"))
	}
}

// isQuit reports whether the line b is a QUIT command, skipping any tag block.
func isQuit(b []byte) bool {
	if len(b) > 0 && b[0] == '@' {
		i := bytes.IndexByte(b, ' ')
		if i < 0 {
			return false
		}
		b = bytes.TrimLeft(b[i:], " ")
	}
	return bytes.HasPrefix(b, []byte(CmdQuit))
}

// log reports errors which are noteworthy but not a reason for the client to exit.
func (c *Client) log(e error) {
	if c.Logger == nil {
		log4g.GetLogger("irc.client").Warn(e)
		return
	}
	c.Logger.Warn(e)
}

// clientState groups and manages access to a minimal set of
// state around each new connection to the IRC server.
type clientState struct {

	// the client's current nickname, used for matching events that originated from our client.
	nick string

	// the client's user and host as seen by the server.
	user string
	host string

	// the server the client is connected to, used as the message source when incoming messages didn't contain a prefix.
	server string

	// only the "disconnecting" state is used, to rewrite io.EOF errors to nil when the disconnect was intentional
	status clientStatus
}

// Nick returns the client's current nickname according to the client's internal state tracking.
func (c *Client) Nick() Nickname {
	return Nickname(c.state.nick)
}

var fullAddress = regexp.MustCompile("^([^!@]+)!(.+?)@(.+)?$")

// middleware intercepts various events to keep the client state up to date.
func (s *clientState) middleware(next Handler) Handler {
	return HandlerFunc(func(mw MessageWriter, m *Message) {
		switch m.Command {

		// Format: "Welcome to the Internet Relay Network <nick>!<user>@<host>"
		case RplWelcome:
			fields := strings.Fields(m.Params.Get(2))
			if len(fields) == 0 {
				fields = []string{""}
			}
			// The last field can be <nick> or <nick>!<user>@<host>, but the format of RPL_WELCOME varies so widely that
			// accepting anything other than nick!user@host might break our nick state tracking.
			if parts := fullAddress.FindStringSubmatch(fields[len(fields)-1]); parts != nil {
				s.nick = parts[1]
				s.user = parts[2]
				s.host = parts[3]
			} else if nick := m.Params.Get(1); nick != "" {
				s.nick = nick
			}
		case RplMyInfo:
			if len(m.Params) > 2 {
				s.server = m.Params.Get(2)
			} else {
				s.server = m.Source.Host
			}
		case RplHostHidden:
			// "<target> <host> :is now your displayed host"
			if len(m.Params) > 1 {
				s.host = m.Params.Get(2)
			}
		case CmdNick:
			if m.Source.Nick.Is(s.nick) {
				s.nick = m.Params.Get(1)
			}
		}

		next.SpeakIRC(mw, m)
	})
}

type clientStatus int

func (s clientStatus) String() string {
	switch s {
	case statusDisconnected:
		return "disconnected"
	case statusConnecting:
		return "connecting"
	case statusConnected:
		return "connected"
	case statusDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

const (
	statusDisconnected clientStatus = iota
	statusConnecting
	statusConnected
	statusDisconnecting
)
