package ircdebug

import (
	"bytes"
	"io"
	"io/ioutil"
	"strings"
	"testing"
)

// fakeConn reads from r and records writes in w.
type fakeConn struct {
	r io.Reader
	w bytes.Buffer
}

func (c *fakeConn) Read(p []byte) (int, error)  { return c.r.Read(p) }
func (c *fakeConn) Write(p []byte) (int, error) { return c.w.Write(p) }
func (c *fakeConn) Close() error                { return nil }

func TestWriteTo(t *testing.T) {
	conn := &fakeConn{r: strings.NewReader("@time=2023-08-09T07:43:01.830Z PING :x\r\n:irc.example.com 001 bot :hi\r\n")}
	var out bytes.Buffer
	rwc := WriteTo(&out, conn, "-> ", "<- ")

	// partial writes are buffered until the line is complete
	for _, s := range []string{"PONG", " :x\r", "\nNICK bot\r\n"} {
		if _, err := io.WriteString(rwc, s); err != nil {
			t.Fatal(err)
		}
	}
	read, err := ioutil.ReadAll(rwc)
	if err != nil {
		t.Fatal(err)
	}

	if got := conn.w.String(); got != "PONG :x\r\nNICK bot\r\n" {
		t.Errorf("the connection should receive every write unchanged; got %q", got)
	}
	if !strings.HasPrefix(string(read), "@time=") {
		t.Errorf("reads should pass through; got %q", read)
	}

	want := "-> PONG :x\n-> NICK bot\n<- @time=2023-08-09T07:43:01.830Z PING :x\n<- :irc.example.com 001 bot :hi\n"
	if got := out.String(); got != want {
		t.Errorf("got:\n%s\nwanted:\n%s", got, want)
	}
}

func TestLineSplitter(t *testing.T) {
	var lines []string
	ls := &lineSplitter{emit: func(l []byte) { lines = append(lines, string(l)) }}

	for _, s := range []string{"a", "b\r\nc\n", "\r\n", "d"} {
		n, err := ls.Write([]byte(s))
		if err != nil || n != len(s) {
			t.Errorf("Write(%q): got %d, %v", s, n, err)
		}
	}

	want := []string{"ab", "c", ""}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, wanted %q", lines, want)
	}
	if string(ls.buf) != "d" {
		t.Errorf("expected the partial line to be kept; got %q", ls.buf)
	}
}
