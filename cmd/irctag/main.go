// Command irctag escapes, parses and attaches IRCv3 message tags,
// and can watch the tags a server sends on a live connection.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/jrivets/log4g"
	"gopkg.in/alecthomas/kingpin.v2"
)

var logger = log4g.GetLogger("irctag")

func main() {
	var (
		logCfgFile = kingpin.Flag("log-config", "The log4g configuration file name").String()

		escapeCmd   = kingpin.Command("escape", "Escape a raw tag value for transmission.")
		escapeValue = escapeCmd.Arg("value", "The raw tag value").Required().String()

		unescapeCmd   = kingpin.Command("unescape", "Unescape a tag value as received on the wire.")
		unescapeValue = unescapeCmd.Arg("value", "The escaped tag value").Required().String()

		parseCmd    = kingpin.Command("parse", "Parse a tag block (the text between '@' and the first space) and list its tags.")
		parsePrefix = parseCmd.Flag("prefix", "A prefix added to every key").String()
		parseBlock  = parseCmd.Arg("block", "The tag block, with or without the leading '@'").Required().String()

		encodeCmd  = kingpin.Command("encode", "Encode tags into a tag block.")
		encodeTags = encodeCmd.Arg("tags", "Tags in the form KEY or KEY=VALUE, with raw values").Strings()

		addCmd  = kingpin.Command("add", "Add tags to IRC lines. Tags already present on a line win.")
		addTags = addCmd.Flag("tag", "A tag to add, KEY or KEY=VALUE, with a raw value").Short('t').Strings()
		addLine = addCmd.Arg("line", "The IRC line. Lines are read from stdin when omitted").String()

		watchCmd      = kingpin.Command("watch", "Connect to an IRC server and print the tags of every received line.")
		watchCfgFile  = watchCmd.Flag("config", "The watch configuration file name").Default(defaultConfigFile).String()
		watchAddr     = watchCmd.Flag("addr", "The server address in form <host:port>").String()
		watchNick     = watchCmd.Flag("nick", "The nickname to connect with").String()
		watchChannels = watchCmd.Flag("join", "A channel to join once connected").Strings()
		watchCaps     = watchCmd.Flag("cap", "A capability to request instead of the configured ones").Strings()
		watchRaw      = watchCmd.Flag("raw", "Log every raw line at debug level on the irctag.raw logger").Bool()
	)
	kingpin.Version("0.1.0")
	cmd := kingpin.Parse()
	defer log4g.Shutdown()

	if *logCfgFile != "" {
		if isFileNotExist(*logCfgFile) {
			logger.Warn("No file ", *logCfgFile, " will use default log4g configuration")
		} else if err := log4g.ConfigF(*logCfgFile); err != nil {
			kingpin.FatalIfError(err, "Could not parse %s file as a log4g configuration, please check syntax ", *logCfgFile)
		}
	}

	var err error
	switch cmd {
	case escapeCmd.FullCommand():
		runEscape(os.Stdout, *escapeValue)
	case unescapeCmd.FullCommand():
		runUnescape(os.Stdout, *unescapeValue)
	case parseCmd.FullCommand():
		runParse(os.Stdout, *parseBlock, *parsePrefix)
	case encodeCmd.FullCommand():
		err = runEncode(os.Stdout, *encodeTags)
	case addCmd.FullCommand():
		if *addLine != "" {
			err = runAdd(os.Stdout, nil, *addLine, *addTags)
		} else {
			err = runAdd(os.Stdout, os.Stdin, "", *addTags)
		}
	case watchCmd.FullCommand():
		cfg := newDefaultConfig()
		if err = cfg.readFromFile(*watchCfgFile); err != nil {
			break
		}
		cfg.Apply(&Config{
			Addr:     *watchAddr,
			Nickname: *watchNick,
			Channels: *watchChannels,
			Caps:     *watchCaps,
			Raw:      *watchRaw,
		})
		logger.Info("Watching with the configuration: ", cfg)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			signalChan := make(chan os.Signal, 1)
			signal.Notify(signalChan, os.Interrupt)
			<-signalChan
			logger.Warn("Interrupt signal is received")
			cancel()
		}()
		err = runWatch(ctx, os.Stdout, cfg)
		cancel()
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "irctag:", err)
		log4g.Shutdown()
		os.Exit(1)
	}
}

func isFileNotExist(filename string) bool {
	_, err := os.Stat(filename)
	return os.IsNotExist(err)
}
