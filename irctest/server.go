/*
Package irctest provides an in-memory IRC server for testing clients.
*/
package irctest

import (
	"bufio"
	"encoding"
	"io"
	"strings"
	"sync"

	"github.com/jrivets/log4g"
	"github.com/pkg/errors"

	irc "github.com/Travis-Britz/ircv3"
)

var logger = log4g.GetLogger("irctest")

// NewServer creates a new mock irc server that implements io.ReadWriteCloser.
// The client side of the connection is the Server itself: pass it from a Client's DialFn.
// Don't forget to close.
func NewServer() *Server {
	s := &Server{}
	s.sendReader, s.sendWriter = io.Pipe()
	s.recvReader, s.recvWriter = io.Pipe()

	s.recv = make(chan []byte, 64)

	// should exit when Close() is called
	go s.read()
	go s.write()
	return s
}

// Server is a mock IRC server.
//
// Handler is called for every line the client writes, with the Server as the MessageWriter,
// so handlers can reply with WriteMessage or WriteString.
type Server struct {
	Handler irc.Handler

	rs   sync.Once
	recv chan []byte

	mu    sync.Mutex
	lines []string

	recvReader *io.PipeReader
	recvWriter *io.PipeWriter

	sendReader *io.PipeReader
	sendWriter *io.PipeWriter
}

// Read is how the client reads lines from the server
func (s *Server) Read(p []byte) (int, error) {
	return s.sendReader.Read(p)
}

// Write is how a client sends messages to the server
func (s *Server) Write(p []byte) (n int, err error) {
	defer func() {
		// writing after Close panics on the closed channel
		if recover() != nil {
			n, err = 0, io.ErrClosedPipe
		}
	}()
	s.recv <- append([]byte(nil), p...)
	return len(p), nil
}

// Close closes both directions of the connection.
func (s *Server) Close() error {
	_ = s.recvWriter.Close()
	_ = s.sendWriter.Close()
	s.rs.Do(func() {
		close(s.recv)
	})
	return nil
}

// Lines returns the raw lines received from the client so far, without CR-LF.
func (s *Server) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

// WriteString sends messages to the client.
func (s *Server) WriteString(str string) {
	if !strings.HasSuffix(str, "\r\n") {
		str = str + "\r\n"
	}
	if _, err := s.sendWriter.Write([]byte(str)); err != nil {
		logger.Warn(errors.Wrap(err, "mock server write"))
	}
}

// WriteMessage sends messages from the server to the client
func (s *Server) WriteMessage(m encoding.TextMarshaler) {
	b, err := m.MarshalText()
	if err != nil {
		logger.Warn(errors.Wrap(err, "marshal"))
		return
	}
	s.WriteString(string(b))
}

func (s *Server) read() {
	scanner := bufio.NewScanner(s.recvReader)

	for scanner.Scan() {
		line := scanner.Text()
		s.mu.Lock()
		s.lines = append(s.lines, line)
		s.mu.Unlock()

		m, err := irc.ParseMessage(line)
		if err != nil {
			logger.Warn(errors.Wrap(err, "mock server unmarshal"))
			continue
		}
		if s.Handler != nil {
			s.Handler.SpeakIRC(s, m)
		}
	}
}

func (s *Server) write() {
	for b := range s.recv {
		if _, err := s.recvWriter.Write(b); err != nil {
			logger.Warn(errors.Wrap(err, "mock server write"))
		}
	}
}
