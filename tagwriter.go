package irc

import (
	"encoding"
	"strings"

	"github.com/jrivets/log4g"
	"github.com/pkg/errors"
)

// WithTags returns a MessageWriter that adds tags to every message written to w.
//
// Tags already set on a message take precedence over tags,
// so a handler can still override a default per message.
// A common use is decorating the writer passed to a handler so that every reply
// carries a "+draft/reply" or "label" tag:
//
//	func(w irc.MessageWriter, m *irc.Message) {
//		var t irc.Tags
//		t.Set(irc.TagReply, m.Tags.Get(irc.TagMsgID))
//		w = irc.WithTags(w, t)
//		w.WriteMessage(irc.Msg("#foo", "pong"))
//	}
//
// Messages that can't be marshaled, or whose encoded tag block is malformed, are logged and dropped.
func WithTags(w MessageWriter, tags Tags) MessageWriter {
	return &tagWriter{
		w:      w,
		tags:   tags.Clone(),
		logger: log4g.GetLogger("irc.tagwriter"),
	}
}

type tagWriter struct {
	w      MessageWriter
	tags   Tags
	logger log4g.Logger
}

// WriteMessage implements MessageWriter.
func (tw *tagWriter) WriteMessage(m encoding.TextMarshaler) {
	b, err := m.MarshalText()
	if err != nil {
		if errors.Cause(err) != warnTruncate {
			tw.logger.Error(errors.Wrap(err, "marshal text"))
			return
		}
		tw.logger.Debug(err)
	}

	line, err := AddTagsToMessage(strings.TrimRight(string(b), "\r\n"), tw.tags)
	if err != nil {
		tw.logger.Error(errors.Wrapf(err, "add tags to %q", b))
		return
	}
	tw.w.WriteMessage(rawLine(line + "\r\n"))
}

// rawLine is an IRC-formatted line that is written as-is.
type rawLine string

// MarshalText implements encoding.TextMarshaler.
func (l rawLine) MarshalText() ([]byte, error) {
	return []byte(l), nil
}
