package irc

import (
	"context"
	"strings"
	"sync"
	"time"
)

// A Handler responds to an IRC message.
//
// An IRC message may be any type, including PRIVMSG, NOTICE, JOIN, Numerics,
// etc. It is up to the calling function to map incoming messages/commands
// to the appropriate handler.
//
// Handlers should avoid modifying the provided Message.
type Handler interface {
	SpeakIRC(MessageWriter, *Message)
}

// The HandlerFunc type is an adapter to allow the usage of ordinary functions
// as handlers, following the same pattern as http.HandlerFunc.
type HandlerFunc func(MessageWriter, *Message)

// SpeakIRC calls f(w, m).
func (f HandlerFunc) SpeakIRC(w MessageWriter, m *Message) {
	f(w, m)
}

type middleware func(Handler) Handler

func wrap(h Handler, mw ...middleware) Handler {
	if len(mw) < 1 {
		return h
	}

	wrapped := h
	// loop in reverse to preserve middleware order
	for i := len(mw) - 1; i >= 0; i-- {
		wrapped = mw[i](wrapped)
	}

	return wrapped
}

// noop performs no operation
var noop HandlerFunc = func(mw MessageWriter, m *Message) {}

// pingMiddleware intercepts server PING messages and replies with the appropriate PONG.
func pingMiddleware(next Handler) Handler {
	return HandlerFunc(func(mw MessageWriter, m *Message) {
		if !m.Command.is(CmdPing) {
			next.SpeakIRC(mw, m)
			return
		}
		mw.WriteMessage(Pong(m.Params.Get(1)))
	})
}

type pingHandler struct {
	sync.Mutex
	expecting map[string]chan bool
	timeout   func()
}

func (ph *pingHandler) ping(ctx context.Context, mw MessageWriter, m string) {
	ph.Lock()
	defer ph.Unlock()

	if ph.expecting == nil {
		ph.expecting = make(map[string]chan bool)
	}

	// having duplicate in-flight pings would not be of any benefit.
	if _, exists := ph.expecting[m]; exists {
		return
	}

	ret := make(chan bool, 1)
	ph.expecting[m] = ret
	go func() {
		defer func() {
			ph.Lock()
			defer ph.Unlock()
			delete(ph.expecting, m)
		}()

		select {
		case <-ret:
		case <-ctx.Done():
		case <-time.After(10 * time.Second):
			ph.timeout()
		}
	}()
	mw.WriteMessage(Ping(m))
}

func (ph *pingHandler) pongHandler(next Handler) Handler {
	return HandlerFunc(func(mw MessageWriter, m *Message) {
		if !m.Command.is(CmdPong) {
			next.SpeakIRC(mw, m)
			return
		}

		ph.Lock()
		defer ph.Unlock()

		reply := m.Params.Get(2)

		// if we were not expecting the reply, pass it on
		if _, expected := ph.expecting[reply]; !expected {
			next.SpeakIRC(mw, m)
			return
		}

		select {
		case ph.expecting[reply] <- true:
		default:
		}
	})
}

// capNegotiator requests the wanted capabilities and tracks which ones the server enabled.
//
//	"CAP * LS * :extended-join chghost cap-notify message-tags"
//	"CAP * LS :batch server-time draft/multiline=max-bytes=4096"
//	"CAP <nick> ACK :message-tags batch"
//	"CAP <nick> NEW :batch"
//	"CAP <nick> DEL :batch"
//
// https://ircv3.net/specs/core/capability-negotiation.html
type capNegotiator struct {
	sync.Mutex
	want      []string
	available map[string]bool
	enabled   map[string]bool

	// negotiating is true between CAP LS and CAP END.
	negotiating bool
}

func newCapNegotiator(want []string) *capNegotiator {
	return &capNegotiator{
		want:        want,
		available:   make(map[string]bool),
		enabled:     make(map[string]bool),
		negotiating: true,
	}
}

// has reports whether the server acknowledged capability name.
func (cn *capNegotiator) has(name string) bool {
	cn.Lock()
	defer cn.Unlock()
	return cn.enabled[name]
}

// capNames returns the capability names of a CAP list parameter, dropping values ("name=value").
func capNames(list string) []string {
	fields := strings.Fields(list)
	for i, f := range fields {
		if j := strings.IndexByte(f, '='); j >= 0 {
			fields[i] = f[:j]
		}
	}
	return fields
}

func (cn *capNegotiator) middleware(next Handler) Handler {
	return HandlerFunc(func(mw MessageWriter, m *Message) {
		// the next handler is always called first so that other middleware which request capabilities
		// will write their message before we complete negotiation.
		next.SpeakIRC(mw, m)

		if !m.Command.is(CmdCap) || len(m.Params) < 3 {
			return
		}

		cn.Lock()
		defer cn.Unlock()

		// the capability list is always the last parameter
		caps := capNames(m.Params.Get(len(m.Params)))

		switch strings.ToUpper(m.Params.Get(2)) {
		case "LS":
			for _, c := range caps {
				cn.available[c] = true
			}
			// an asterisk before the list means more LS lines are coming
			if m.Params.Get(3) == "*" {
				return
			}
			cn.request(mw, cn.available)
		case "NEW":
			available := make(map[string]bool)
			for _, c := range caps {
				cn.available[c] = true
				available[c] = true
			}
			cn.request(mw, available)
		case "ACK":
			for _, c := range caps {
				if strings.HasPrefix(c, "-") {
					delete(cn.enabled, c[1:])
					continue
				}
				cn.enabled[c] = true
			}
			cn.end(mw)
		case "NAK":
			cn.end(mw)
		case "DEL":
			for _, c := range caps {
				delete(cn.enabled, c)
				delete(cn.available, c)
			}
		}
	})
}

// request asks for every wanted capability found in available that is not enabled yet.
// The caller must hold the lock.
func (cn *capNegotiator) request(mw MessageWriter, available map[string]bool) {
	var req []string
	for _, c := range cn.want {
		if available[c] && !cn.enabled[c] {
			req = append(req, c)
		}
	}
	if len(req) == 0 {
		cn.end(mw)
		return
	}
	mw.WriteMessage(CapReq(req...))
}

// end sends CAP END once, closing the negotiation started at registration.
// The caller must hold the lock.
func (cn *capNegotiator) end(mw MessageWriter) {
	if !cn.negotiating {
		return
	}
	cn.negotiating = false
	mw.WriteMessage(CapEnd())
}
