package irc

import (
	"regexp"
	"strings"
)

// Router provides a Handler which can match incoming messages against a slice of route handlers.
// Matching is based on message attributes such as the command (verb), source, target, message text and tags.
//
// Routes are tested in the order they were added, and only the first matching route's handler
// will be called. Care should be taken to avoid adding multiple routes which may trigger
// on the same input message.
//
// Messages that were part of a batch reach the router after the batch has ended,
// with the tags of the BATCH line merged in, so a route added with MatchTag
// also matches tags the server only sent on the batch.
type Router struct {

	// routes to be matched, in order.
	routes []*route

	// Slice of middleware to be called, regardless of whether a match was found.
	middlewares []middleware
}

// Handle appends h to the list of handlers for cmd.
func (r *Router) Handle(cmd Command, h Handler) *route {
	rt := &route{
		h:        h,
		matchers: []matcher{commandMatch{cmd}},
	}
	r.routes = append(r.routes, rt)
	return rt
}

// HandleFunc appends f to the list of handlers for cmd.
func (r *Router) HandleFunc(cmd Command, f HandlerFunc) *route {
	return r.Handle(cmd, f)
}

// SpeakIRC implements Handler
func (r *Router) SpeakIRC(mw MessageWriter, m *Message) {
	for _, rt := range r.routes {
		if rt.matches(m) {
			wrap(rt.h, r.middlewares...).SpeakIRC(mw, m)
			return
		}
	}
	// global middlewares need to run even if there was no matching route
	wrap(noop, r.middlewares...).SpeakIRC(mw, m)
}

// Use appends global middleware to the router.
// Middleware are functions which accept a handler and return a handler.
//
// Global middleware are run against every incoming line,
// even if there were no matching routes for the message.
// They execute in the order they were attached.
func (r *Router) Use(middlewares ...middleware) {
	r.middlewares = append(r.middlewares, middlewares...)
}

// OnConnect attaches a handler which is called upon successful connection to an IRC server, after
// capability negotiation is complete. It is triggered by numeric 001 (RPL_WELCOME).
func (r *Router) OnConnect(h HandlerFunc) *route {
	return r.Handle(RplWelcome, h)
}

// OnText attaches a handler for PRIVMSG events whose text matches the Go regular expression expr.
func (r *Router) OnText(expr string, h HandlerFunc) *route {
	return r.HandleFunc(CmdPrivmsg, h).textRE(expr)
}

// OnTagMsg attaches a handler for TAGMSG events, which carry only client tags.
func (r *Router) OnTagMsg(h HandlerFunc) *route {
	return r.Handle(CmdTagMsg, h)
}

// OnReply attaches a handler for PRIVMSG events that reply to another message
// through the "+draft/reply" client tag.
func (r *Router) OnReply(h HandlerFunc) *route {
	return r.HandleFunc(CmdPrivmsg, h).MatchTag(TagReply)
}

type route struct {
	h        Handler
	matchers []matcher
}

// Use wraps the route handler with middlewares.
// The given middlewares will execute in the order listed, and only when the route matched.
//
// Use panics if the route handler is nil.
func (r *route) Use(middlewares ...middleware) *route {
	if r.h == nil {
		panic("nil handler: the route handler must be defined before wrapping the handler with middleware")
	}
	r.h = wrap(r.h, middlewares...)
	return r
}

func (r *route) matches(m *Message) bool {
	for _, rm := range r.matchers {
		if !rm.matches(m) {
			return false
		}
	}
	return true
}

// MatchTag limits the route to messages carrying the tag key, with or without a value.
func (r *route) MatchTag(key string) *route {
	return r.Matcher(tagMatch{key: key})
}

// MatchTagValue limits the route to messages whose tag key has exactly value, after unescaping.
func (r *route) MatchTagValue(key, value string) *route {
	return r.Matcher(tagMatch{key: key, value: Value(value)})
}

// MatchChan limits the route to messages sent to the channel ch.
func (r *route) MatchChan(ch string) *route {
	return r.Matcher(channelMatch{ch})
}

// MatchServer limits the route to messages sent by a server.
func (r *route) MatchServer() *route {
	return r.MatchFunc(func(m *Message) bool {
		return m.Source.IsServer()
	})
}

func (r *route) MatchFunc(f matcherFunc) *route {
	return r.Matcher(f)
}

func (r *route) Matcher(m matcher) *route {
	r.matchers = append(r.matchers, m)
	return r
}

// textRE appends the regular expression expr to the route's matchers.
func (r *route) textRE(expr string) *route {
	return r.Matcher(regexMatch{regexp.MustCompile(expr)})
}

// A matcher is attached to a route and determines whether a given Message satisfies some condition.
type matcher interface {
	matches(*Message) bool
}

type matcherFunc func(m *Message) bool

func (f matcherFunc) matches(m *Message) bool {
	return f(m)
}

type commandMatch struct {
	cmd Command
}

func (cm commandMatch) matches(m *Message) bool {
	return m.Command.is(cm.cmd)
}

// tagMatch matches the presence of key, and its value when value.HasValue is set.
type tagMatch struct {
	key   string
	value TagValue
}

func (tm tagMatch) matches(m *Message) bool {
	v, ok := m.Tags.Lookup(tm.key)
	if !ok {
		return false
	}
	return !tm.value.HasValue || v == tm.value
}

type regexMatch struct {
	re *regexp.Regexp
}

func (rm regexMatch) matches(m *Message) bool {
	text, err := m.Text()
	if err != nil {
		return false
	}
	return rm.re.MatchString(text)
}

type channelMatch struct {
	channel string
}

func (cm channelMatch) matches(m *Message) bool {
	target, err := m.Target()
	if err != nil {
		return false
	}
	return strings.EqualFold(cm.channel, target)
}
