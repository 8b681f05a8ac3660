package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/jrivets/log4g"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

type (
	// Config is the configuration of the watch command.
	Config struct {
		Addr     string
		Nickname string
		User     string
		Realname string
		Pass     string

		// Caps replaces the default capability list when not empty.
		Caps     []string `json:"Caps,omitempty"`
		Channels []string

		// Charset names the encoding used for received lines that are not valid UTF-8,
		// e.g. "iso-8859-2" or "windows-1251". "utf-8" turns decoding off.
		Charset string

		// Plaintext dials without TLS.
		Plaintext bool

		// Raw logs every line read or written at debug level.
		Raw bool
	}
)

var configLog = log4g.GetLogger("irctag.Config")

const (
	defaultConfigFile = "irctag.json"
	defaultAddr       = "irc.libera.chat:6697"
	defaultNickname   = "irctag"
	defaultRealname   = "irctag watcher"
)

func newDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Addr = defaultAddr
	cfg.Nickname = defaultNickname
	cfg.User = defaultNickname
	cfg.Realname = defaultRealname
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprint(
		"\n\tAddr=", c.Addr,
		"\n\tNickname=", c.Nickname,
		"\n\tUser=", c.User,
		"\n\tRealname=", c.Realname,
		"\n\tCaps=", c.Caps,
		"\n\tChannels=", c.Channels,
		"\n\tCharset=", c.Charset,
		"\n\tPlaintext=", c.Plaintext,
		"\n\tRaw=", c.Raw,
	)
}

// Apply overrides the fields of c with every field set in c2.
func (c *Config) Apply(c2 *Config) {
	if c2.Addr != "" {
		c.Addr = c2.Addr
	}
	if c2.Nickname != "" {
		c.Nickname = c2.Nickname
	}
	if c2.User != "" {
		c.User = c2.User
	}
	if c2.Realname != "" {
		c.Realname = c2.Realname
	}
	if c2.Pass != "" {
		c.Pass = c2.Pass
	}
	if len(c2.Caps) > 0 {
		c.Caps = c2.Caps
	}
	if len(c2.Channels) > 0 {
		c.Channels = c2.Channels
	}
	if c2.Charset != "" {
		c.Charset = c2.Charset
	}
	if c2.Plaintext {
		c.Plaintext = c2.Plaintext
	}
	if c2.Raw {
		c.Raw = c2.Raw
	}
}

// readFromFile applies the JSON configuration in filename. A missing file is not an error.
func (c *Config) readFromFile(filename string) error {
	if filename == "" {
		return nil
	}

	if isFileNotExist(filename) {
		configLog.Warn("There is no file ", filename, " for reading irctag config, will use default configuration.")
		return nil
	}

	cfgData, err := ioutil.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "read configuration file %s", filename)
	}

	cfg := &Config{}
	if err = json.Unmarshal(cfgData, cfg); err != nil {
		return errors.Wrapf(err, "unmarshal configuration from %s", filename)
	}
	configLog.Info("Configuration read from ", filename)
	c.Apply(cfg)
	return nil
}

// charset returns the fallback encoding for received lines, or nil when decoding is off.
// An empty Charset falls back to ISO 8859-1, which accepts any byte sequence.
func (c *Config) charset() (encoding.Encoding, error) {
	switch c.Charset {
	case "":
		return charmap.ISO8859_1, nil
	case "utf-8", "UTF-8", "utf8":
		return nil, nil
	}
	e, err := htmlindex.Get(c.Charset)
	if err != nil {
		return nil, errors.Wrapf(err, "charset %q", c.Charset)
	}
	return e, nil
}
