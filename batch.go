package irc

import (
	"bytes"
	"strings"
	"time"

	"github.com/jrivets/log4g"
	"github.com/pkg/errors"
)

// batch is an open IRCv3 batch.
//
// Lines tagged with the batch reference are held back until the batch ends,
// then replayed with the tags of the BATCH line merged in.
//
// https://ircv3.net/specs/extensions/batch
type batch struct {
	ref    string
	parent string
	typ    string
	params []string

	// tags of the "BATCH +ref" line
	tags Tags

	// raw lines, without CR-LF
	lines []string

	started   time.Time
	ended     bool
	processed bool
}

// batchTracker is middleware that implements the batch capability.
//
// Batches may be nested: a batch whose own BATCH line carries a batch tag
// is only replayed once its parent has been replayed.
type batchTracker struct {
	batches []*batch

	// enabled reports whether the server acknowledged a capability.
	enabled func(string) bool
	logger  log4g.Logger
}

func newBatchTracker(enabled func(string) bool, logger log4g.Logger) *batchTracker {
	return &batchTracker{
		enabled: enabled,
		logger:  logger,
	}
}

func (bt *batchTracker) search(ref string) *batch {
	if ref == "" {
		return nil
	}
	for _, b := range bt.batches {
		if b.ref == ref {
			return b
		}
	}
	return nil
}

// start opens a batch. It returns nil when ref is already open.
func (bt *batchTracker) start(ref, parent, typ string, params []string, tags Tags) *batch {
	if bt.search(ref) != nil {
		return nil
	}
	b := &batch{
		ref:     ref,
		parent:  parent,
		typ:     typ,
		params:  params,
		tags:    tags.Clone(),
		started: time.Now(),
	}
	bt.batches = append(bt.batches, b)
	return b
}

// add buffers line in the batch ref and reports whether the batch exists.
func (bt *batchTracker) add(ref string, line string) bool {
	b := bt.search(ref)
	if b == nil {
		return false
	}
	b.lines = append(b.lines, line)
	return true
}

// end closes the batch ref, then replays every closed batch whose parent is gone or already replayed,
// until a pass replays nothing. Replayed batches are dropped.
func (bt *batchTracker) end(mw MessageWriter, next Handler, ref string) {
	closing := bt.search(ref)
	if closing == nil {
		bt.logger.Debug("end of unknown batch ", ref)
		return
	}
	closing.ended = true

	for {
		var n int
		for _, b := range bt.batches {
			if !b.ended || b.processed {
				continue
			}
			if p := bt.search(b.parent); p == nil || p.processed {
				bt.process(mw, next, b)
				b.processed = true
				n++
			}
		}
		if n == 0 {
			break
		}
	}

	open := bt.batches[:0]
	for _, b := range bt.batches {
		if !b.processed {
			open = append(open, b)
		}
	}
	bt.batches = open
}

// process replays the lines of b to next.
func (bt *batchTracker) process(mw MessageWriter, next Handler, b *batch) {
	bt.logger.Debug("replaying batch ", b.ref, " (", b.typ, "): ", len(b.lines), " lines after ", time.Since(b.started))

	if b.typ == BatchMultiline && bt.enabled(CapMultiline) {
		m, err := joinMultiline(b.lines, b.params)
		if err != nil {
			bt.logger.Warn("multiline batch ", b.ref, ": ", err)
			return
		}
		if m == nil {
			return
		}
		m.Tags.Merge(b.tags)
		next.SpeakIRC(mw, m)
		return
	}

	for _, line := range b.lines {
		merged, err := AddTagsToMessage(line, b.tags)
		if err != nil {
			bt.logger.Warn("batch ", b.ref, ": ", errors.Wrapf(err, "add tags to %q", line))
			continue
		}
		m, err := ParseMessage(merged)
		if err != nil {
			bt.logger.Warn("batch ", b.ref, ": ", err)
			continue
		}
		next.SpeakIRC(mw, m)
	}
}

func (bt *batchTracker) middleware(next Handler) Handler {
	return HandlerFunc(func(mw MessageWriter, m *Message) {
		if !bt.enabled(CapBatch) {
			next.SpeakIRC(mw, m)
			return
		}

		if m.Command.is(CmdBatch) {
			bt.handleBatch(mw, next, m)
			return
		}

		ref := m.BatchRef()
		if ref == "" || bt.search(ref) == nil {
			next.SpeakIRC(mw, m)
			return
		}

		line, err := m.MarshalText()
		if err != nil && errors.Cause(err) != warnTruncate {
			bt.logger.Warn("batch ", ref, ": ", errors.Wrap(err, "marshal batched message"))
			next.SpeakIRC(mw, m)
			return
		}
		bt.add(ref, string(bytes.TrimRight(line, "\r\n")))
	})
}

// handleBatch starts or ends a batch.
//
//	BATCH +yXNAbvnRHTRBv netsplit irc.hub other.host
//	BATCH -yXNAbvnRHTRBv
func (bt *batchTracker) handleBatch(mw MessageWriter, next Handler, m *Message) {
	ref := m.Params.Get(1)
	switch {
	case strings.HasPrefix(ref, "+"):
		if len(m.Params) < 2 {
			bt.logger.Warn("batch start without a type: ", m.Params)
			return
		}
		if bt.start(ref[1:], m.BatchRef(), m.Params.Get(2), m.Params[2:], m.Tags) == nil {
			bt.logger.Warn("batch ", ref[1:], " is already open")
		}
	case strings.HasPrefix(ref, "-"):
		bt.end(mw, next, ref[1:])
	default:
		bt.logger.Debug("malformed batch reference ", ref)
	}
}

// joinMultiline converts the lines of a draft/multiline batch into a single message.
//
// params are the batch parameters, the first of which is the target.
// Only PRIVMSG and NOTICE lines sent to the target are kept. Their text is joined with
// LF unless a line carries the draft/multiline-concat tag, in which case it is appended directly.
// The first kept line supplies the tags, source and command of the result.
//
// https://ircv3.net/specs/extensions/multiline
func joinMultiline(lines []string, params []string) (*Message, error) {
	if len(params) < 1 {
		return nil, errors.New("multiline batch has no target")
	}
	target := params[0]

	var (
		result *Message
		text   strings.Builder
	)
	for _, line := range lines {
		m, err := ParseMessage(line)
		if err != nil {
			return nil, err
		}
		if m.Source.Host == "" && m.Source.Nick == "" {
			continue
		}
		if !m.Command.is(CmdPrivmsg) && !m.Command.is(CmdNotice) {
			continue
		}
		if m.Params.Get(1) != target {
			continue
		}

		if result == nil {
			result = m
		} else if !m.Tags.Has(TagMultilineConcat) {
			text.WriteByte('\n')
		}
		text.WriteString(m.Params.Get(2))
	}
	if result == nil {
		return nil, nil
	}

	result.Params = Params{target, text.String()}
	result.Tags.Delete(TagMultilineConcat)
	return result, nil
}
