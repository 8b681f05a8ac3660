/*
Package ircdebug contains helper functions that are useful while writing an IRC client.
*/
package ircdebug

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/jrivets/log4g"
)

// WriteTo returns a new io.ReadWriteCloser that copies all reads/writes for rwc to w, one line at a time.
// Lines written to the connection are prefixed with outPrefix and lines read from it with inPrefix.
// This is mainly useful while developing an IRC client like a bot,
// e.g. for writing to os.Stdout or a file.
func WriteTo(w io.Writer, rwc io.ReadWriteCloser, outPrefix string, inPrefix string) io.ReadWriteCloser {
	var mu sync.Mutex
	emit := func(prefix string) func([]byte) {
		return func(line []byte) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(w, "%s%s\n", prefix, line)
		}
	}
	return wrap(rwc, emit(outPrefix), emit(inPrefix))
}

// Log returns a new io.ReadWriteCloser that logs every line read from or written to rwc
// at debug level on logger. Tags are logged as sent on the wire, still escaped.
func Log(logger log4g.Logger, rwc io.ReadWriteCloser) io.ReadWriteCloser {
	return wrap(rwc,
		func(line []byte) { logger.Debug("-> ", string(line)) },
		func(line []byte) { logger.Debug("<- ", string(line)) },
	)
}

func wrap(rwc io.ReadWriteCloser, out, in func([]byte)) io.ReadWriteCloser {
	return &debugConn{
		ReadWriteCloser: rwc,
		r:               io.TeeReader(rwc, &lineSplitter{emit: in}),
		w:               io.MultiWriter(rwc, &lineSplitter{emit: out}),
	}
}

type debugConn struct {
	io.ReadWriteCloser
	r io.Reader
	w io.Writer
}

func (dc *debugConn) Read(p []byte) (int, error) {
	return dc.r.Read(p)
}
func (dc *debugConn) Write(p []byte) (int, error) {
	return dc.w.Write(p)
}

// lineSplitter buffers partial writes and calls emit once per complete line, without CR-LF.
type lineSplitter struct {
	mu   sync.Mutex
	buf  []byte
	emit func([]byte)
}

func (ls *lineSplitter) Write(p []byte) (int, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.buf = append(ls.buf, p...)
	for {
		i := bytes.IndexByte(ls.buf, '\n')
		if i < 0 {
			break
		}
		ls.emit(bytes.TrimRight(ls.buf[:i], "\r"))
		ls.buf = ls.buf[i+1:]
	}
	if len(ls.buf) == 0 {
		ls.buf = nil
	}
	// io.MultiWriter treats a short count as an error
	return len(p), nil
}
