package main

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"

	irc "github.com/Travis-Britz/ircv3"
)

func runEscape(w io.Writer, value string) {
	fmt.Fprintln(w, irc.EscapeTagValue(value))
}

func runUnescape(w io.Writer, value string) {
	fmt.Fprintln(w, irc.UnescapeTagValue(value))
}

// runParse prints the number of tags found in block, then one tag per line in sorted order.
// Values are printed unescaped and quoted; flag tags are printed without a value.
func runParse(w io.Writer, block string, prefix string) {
	block = strings.TrimPrefix(block, "@")
	if i := strings.IndexByte(block, ' '); i >= 0 {
		block = block[:i]
	}

	var tags irc.Tags
	n := tags.Parse(block, prefix)
	fmt.Fprintf(w, "%d tags\n", n)

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := tags[k]; v.HasValue {
			fmt.Fprintf(w, "%s=%q\n", k, v.Value)
		} else {
			fmt.Fprintln(w, k)
		}
	}
}

func runEncode(w io.Writer, args []string) error {
	tags, err := parseTagArgs(args)
	if err != nil {
		return err
	}
	if tags == nil {
		tags = irc.Tags{}
	}
	s, _ := irc.EncodeTags(tags)
	fmt.Fprintln(w, s)
	return nil
}

// runAdd adds tags to line, or to every line read from r when line is empty.
// Lines that can't be tagged are logged and skipped, and reported in the returned error.
func runAdd(w io.Writer, r io.Reader, line string, args []string) error {
	tags, err := parseTagArgs(args)
	if err != nil {
		return err
	}

	if r == nil {
		out, err := irc.AddTagsToMessage(line, tags)
		if err != nil {
			return errors.Wrapf(err, "add tags to %q", line)
		}
		fmt.Fprintln(w, out)
		return nil
	}

	var failed int
	s := bufio.NewScanner(r)
	for s.Scan() {
		l := strings.TrimRight(s.Text(), "\r")
		if l == "" {
			continue
		}
		out, err := irc.AddTagsToMessage(l, tags)
		if err != nil {
			logger.Warn("Skipping line ", l, ": ", err)
			failed++
			continue
		}
		fmt.Fprintln(w, out)
	}
	if err := s.Err(); err != nil {
		return errors.Wrap(err, "read lines")
	}
	if failed > 0 {
		return errors.Errorf("%d lines could not be tagged", failed)
	}
	return nil
}

// parseTagArgs converts KEY and KEY=VALUE arguments into Tags. Values are taken as raw, unescaped text.
func parseTagArgs(args []string) (irc.Tags, error) {
	var tags irc.Tags
	for _, a := range args {
		k, v, hasValue := a, "", false
		if i := strings.IndexByte(a, '='); i >= 0 {
			k, v, hasValue = a[:i], a[i+1:], true
		}
		if k == "" || strings.ContainsAny(k, "; ") {
			return nil, errors.Errorf("invalid tag key in %q", a)
		}
		if hasValue {
			tags.Set(k, v)
		} else {
			tags.SetFlag(k)
		}
	}
	return tags, nil
}
