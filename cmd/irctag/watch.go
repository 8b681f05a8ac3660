package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/jrivets/log4g"

	irc "github.com/Travis-Britz/ircv3"
	"github.com/Travis-Britz/ircv3/ircdebug"
)

// lineTagPrefix is prepended to every tag key printed by watch.
const lineTagPrefix = "irc_tag_"

func runWatch(ctx context.Context, out io.Writer, cfg *Config) error {
	cs, err := cfg.charset()
	if err != nil {
		return err
	}

	client := &irc.Client{
		Addr:     cfg.Addr,
		Nickname: cfg.Nickname,
		User:     cfg.User,
		Realname: cfg.Realname,
		Pass:     cfg.Pass,
		Charset:  cs,
		Logger:   log4g.GetLogger("irctag.client"),
	}
	if len(cfg.Caps) > 0 {
		client.Caps = cfg.Caps
	}

	raw := log4g.GetLogger("irctag.raw")
	client.DialFn = func() (io.ReadWriteCloser, error) {
		var (
			conn io.ReadWriteCloser
			err  error
		)
		if cfg.Plaintext {
			conn, err = net.DialTimeout("tcp", cfg.Addr, 30*time.Second)
		} else {
			conn, err = tls.DialWithDialer(&net.Dialer{Timeout: 30 * time.Second}, "tcp", cfg.Addr, nil)
		}
		if err != nil {
			return nil, err
		}
		if cfg.Raw {
			conn = ircdebug.Log(raw, conn)
		}
		return conn, nil
	}

	logger.Info("Connecting to ", cfg.Addr, " as ", cfg.Nickname)
	err = client.ConnectAndRun(ctx, newWatchHandler(out, cfg.Channels))
	logger.Info("Connection to ", cfg.Addr, " ended: ", err)
	return err
}

// newWatchHandler returns a handler that joins channels once registered
// and prints the command, source and tags of every tagged message.
//
//	PRIVMSG nick!user@host irc_tag_msgid=abc,irc_tag_time=2023-08-09T07:43:01.830Z
func newWatchHandler(out io.Writer, channels []string) irc.Handler {
	r := &irc.Router{}
	r.Use(printTags(out))
	r.OnConnect(func(w irc.MessageWriter, m *irc.Message) {
		for _, ch := range channels {
			w.WriteMessage(irc.Join(ch))
		}
	})
	return r
}

// printTags is router middleware that writes a line to out for every message carrying tags.
func printTags(out io.Writer) func(irc.Handler) irc.Handler {
	return func(next irc.Handler) irc.Handler {
		return irc.HandlerFunc(func(w irc.MessageWriter, m *irc.Message) {
			if len(m.Tags) > 0 {
				fmt.Fprintf(out, "%s %s %s\n", m.Command, m.Source, irc.FormatLineTags(m.Tags, lineTagPrefix))
			}
			next.SpeakIRC(w, m)
		})
	}
}
