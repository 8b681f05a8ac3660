// This lexer follows the method described in the video:
// Lexical Scanning in Go - Rob Pike
// https://www.youtube.com/watch?v=HxaD_trXwRE
//
// Items are appended to a slice rather than sent over a channel,
// so lexing a line runs on the caller's goroutine.

package irc

import (
	"fmt"
	"strings"
)

const (
	delimParam    = ' ' // the delimiter token for parameters
	delimTag      = ';' // the delimiter token for message tags
	delimTagValue = '=' // the delimiter token for message tag values
	startTags     = '@' // the delimiter for beginning tags
	startPrefix   = ':' // the delimiter for the prefix
	startTrailing = ':' // the delimiter for the trailing param
)

// item represents a token returned from the scanner.
type item struct {
	typ itemType
	val string
}

// itemType identifies the type of lex items.
type itemType int

const (
	itemError    itemType = iota // val is the text of the error
	itemTags                     // the raw IRCv3 tag block, without the leading '@'
	itemNickname                 // e.g. "nick" in ":nick!user@host"
	itemUser                     // e.g. "user" in ":nick!user@host"
	itemHost                     // a server name, or "host" in ":nick!user@host"
	itemCommand                  // the command or numeric, e.g. "PRIVMSG" or "001"
	itemParam                    // a command parameter, e.g. the target and text of a PRIVMSG
	itemEOF                      // end of message
)

// stateFn represents the state of the scanner as a function that returns the next state.
type stateFn func(*lexer) stateFn

// lexer holds the state of the scanner.
type lexer struct {
	input string // the line being scanned
	start int    // start position of the pending item
	pos   int    // current position in the input
	items []item
}

// lex scans a line and returns its items.
// The last item is always either itemEOF or itemError.
func lex(input string) []item {
	l := &lexer{input: input}
	for state := lexStart; state != nil; {
		state = state(l)
	}
	return l.items
}

// emit records the input consumed since the last item.
func (l *lexer) emit(t itemType) {
	l.items = append(l.items, item{t, l.input[l.start:l.pos]})
	l.start = l.pos
}

// emitNext consumes n more bytes and emits them as t.
func (l *lexer) emitNext(t itemType, n int) {
	l.pos += n
	l.emit(t)
}

// skip drops the next n bytes.
func (l *lexer) skip(n int) {
	l.pos += n
	l.start = l.pos
}

// skipSpaces drops a run of SPACE and reports whether any input remains.
func (l *lexer) skipSpaces() bool {
	for l.pos < len(l.input) && l.input[l.pos] == delimParam {
		l.pos++
	}
	l.start = l.pos
	return l.pos < len(l.input)
}

// at reports whether the next byte is c.
func (l *lexer) at(c byte) bool {
	return l.pos < len(l.input) && l.input[l.pos] == c
}

// rest returns the number of bytes up to the next SPACE, or -1 when there is none.
func (l *lexer) rest() int {
	return strings.IndexByte(l.input[l.pos:], delimParam)
}

// errorf emits an error item and returns nil, which stops the scan.
func (l *lexer) errorf(format string, args ...interface{}) stateFn {
	l.items = append(l.items, item{itemError, fmt.Sprintf(format, args...)})
	return nil
}

func lexStart(l *lexer) stateFn {
	switch {
	case l.at(startTags):
		return lexTags
	case l.at(startPrefix):
		return lexSource
	}
	return lexCommand
}

// lexTags scans the whole tag block up to the first SPACE and emits it as a single item.
// Splitting the block into keys and values is left to Tags.Parse,
// which is lenient about empty keys and stray delimiters.
func lexTags(l *lexer) stateFn {
	l.skip(1)
	n := l.rest()
	if n < 0 {
		return l.errorf("unexpected end of input while reading message tags")
	}
	l.emitNext(itemTags, n)
	if !l.skipSpaces() {
		return l.errorf("unexpected end of input after message tags")
	}
	if l.at(startPrefix) {
		return lexSource
	}
	return lexCommand
}

// lexSource scans the message prefix.
// A '.' before any '!' means the prefix is a server name. Otherwise it is
// a bare nickname or the nick!user@host form.
func lexSource(l *lexer) stateFn {
	l.skip(1)
	n := l.rest()
	if n < 0 {
		return l.errorf("unexpected end of input while reading the prefix")
	}

	src := l.input[l.pos : l.pos+n]
	bang := strings.IndexByte(src, '!')
	dot := strings.IndexByte(src, '.')
	switch {
	case dot >= 0 && (bang < 0 || dot < bang):
		l.emitNext(itemHost, n)
	case bang < 0:
		l.emitNext(itemNickname, n)
	default:
		at := strings.IndexByte(src[bang+1:], '@')
		if at < 0 {
			return l.errorf("expected host, found end of prefix")
		}
		l.emitNext(itemNickname, bang)
		l.skip(1)
		l.emitNext(itemUser, at)
		l.skip(1)
		l.emitNext(itemHost, n-bang-at-2)
	}

	if !l.skipSpaces() {
		return l.errorf("unexpected end of input; expected command")
	}
	return lexCommand
}

func lexCommand(l *lexer) stateFn {
	n := l.rest()
	if n < 0 {
		n = len(l.input) - l.pos
	}
	if n == 0 {
		return l.errorf("command is empty")
	}
	l.emitNext(itemCommand, n)
	if l.pos == len(l.input) {
		l.emit(itemEOF)
		return nil
	}
	l.skipSpaces()
	return lexParam
}

// lexParam scans one middle parameter, or the trailing parameter.
// A line ending in SPACE yields a final empty parameter; Params.Get reads
// an empty parameter the same as an omitted one.
func lexParam(l *lexer) stateFn {
	if l.at(startTrailing) {
		l.skip(1)
		return lexLastParam
	}
	n := l.rest()
	if n < 0 {
		return lexLastParam
	}
	l.emitNext(itemParam, n)
	l.skipSpaces()
	return lexParam
}

func lexLastParam(l *lexer) stateFn {
	l.emitNext(itemParam, len(l.input)-l.pos)
	l.emit(itemEOF)
	return nil
}
