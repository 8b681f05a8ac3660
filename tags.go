package irc

import (
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrMalformedTags is returned by AddTagsToMessage when a line begins with '@'
// but the tag block is never terminated by SPACE.
//
// A line like "@xyz" has no command, so there is nothing to attach tags to.
var ErrMalformedTags = errors.New("message tags are not followed by a space")

// unescaper is a string replacer that unescapes message tag values.
//
// The replacer tries the arguments in order at each position,
// so the lone backslash only matches when no known escape does.
// That drops the backslash of an unknown escape ("\a" becomes "a")
// as well as a trailing backslash.
var unescaper = strings.NewReplacer(
	"\\:", ";",
	"\\r", "\r",
	"\\n", "\n",
	"\\s", " ",
	"\\\\", "\\",
	"\\", "",
)

// escaper is a string replacer that escapes message tag values for transmission.
var escaper = strings.NewReplacer(
	";", "\\:",
	"\r", "\\r",
	"\n", "\\n",
	" ", "\\s",
	"\\", "\\\\",
)

// EscapeTagValue escapes a raw tag value for transmission.
//
//	character     | escaped value
//	--------------+--------------
//	; (semicolon) | \:
//	SPACE         | \s
//	\             | \\
//	CR            | \r
//	LF            | \n
//	all others    | the character itself
//
// All escaped characters are ASCII, so multi-byte UTF-8 sequences
// (and invalid bytes) pass through untouched.
//
// https://ircv3.net/specs/extensions/message-tags#escaping-values
func EscapeTagValue(value string) string {
	return escaper.Replace(value)
}

// UnescapeTagValue reverses EscapeTagValue.
//
// Parsing is lenient: a backslash followed by an unknown character
// yields that character, and a trailing backslash is dropped.
func UnescapeTagValue(value string) string {
	return unescaper.Replace(value)
}

// TagValue is the value of a single message tag.
//
// A tag sent without "=value" is a flag tag and has HasValue set to false.
// "key=" and "key" are different on the wire but many servers treat them the same;
// use Tags.Get if the distinction doesn't matter.
type TagValue struct {
	Value    string
	HasValue bool
}

// Value returns a TagValue holding v.
func Value(v string) TagValue {
	return TagValue{Value: v, HasValue: true}
}

// Escape returns the escaped form of v. A flag value stays a flag value.
func (v TagValue) Escape() TagValue {
	if !v.HasValue {
		return v
	}
	return Value(EscapeTagValue(v.Value))
}

// Unescape returns the unescaped form of v. A flag value stays a flag value.
func (v TagValue) Unescape() TagValue {
	if !v.HasValue {
		return v
	}
	return Value(UnescapeTagValue(v.Value))
}

// Tags represents the IRCv3 message tags for an incoming or outgoing IRC line.
//
// Values are stored unescaped.
type Tags map[string]TagValue

// ParseTags parses a tag block into a new Tags and returns the number of tags found.
// See Tags.Parse for the parsing rules.
func ParseTags(block string) (Tags, int) {
	var t Tags
	n := t.Parse(block, "")
	return t, n
}

// Parse parses the tag block of an IRC line into t and returns the number of tags found.
// block is the text between the leading '@' and the first SPACE, without either.
//
// The block is split on ';'. Each piece is trimmed of surrounding whitespace
// and empty pieces are skipped, so "a;;b" holds two tags.
// A piece is split at its first '=' into key and escaped value;
// a piece without '=' is a flag tag.
//
// prefix is prepended to every key, which lets callers keep tags apart from other
// keys in the same map, e.g. prefix "tag_" stores "aaa" as "tag_aaa".
// Existing keys are overwritten and the last duplicate wins.
//
// Parse allocates t if it is nil.
func (t *Tags) Parse(block string, prefix string) int {
	if block == "" {
		return 0
	}

	var n int
	for _, item := range strings.Split(block, string(delimTag)) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if i := strings.IndexByte(item, delimTagValue); i >= 0 {
			t.Set(prefix+item[:i], UnescapeTagValue(item[i+1:]))
		} else {
			t.SetFlag(prefix + item)
		}
		n++
	}
	return n
}

// EncodeTags serializes t into the "key=value;key2" form used on the wire,
// without the leading '@' or trailing SPACE. Values are escaped and keys are written
// in sorted order.
//
// ok is false when t is nil; an empty, non-nil t encodes to "".
func EncodeTags(t Tags) (s string, ok bool) {
	if t == nil {
		return "", false
	}
	if len(t) == 0 {
		return "", true
	}

	var b strings.Builder
	for i, k := range t.keys() {
		if i > 0 {
			b.WriteByte(delimTag)
		}
		b.WriteString(k)
		if v := t[k]; v.HasValue {
			b.WriteByte(delimTagValue)
			b.WriteString(EscapeTagValue(v.Value))
		}
	}
	return b.String(), true
}

// String implements fmt.Stringer, returning the encoded tag block.
func (t Tags) String() string {
	s, _ := EncodeTags(t)
	return s
}

// AddTagsToMessage merges tags into the tag block of the raw line message.
//
// Tags already present on the line win: a key from tags is only added
// when the line doesn't have it. Tags on the line are re-encoded in sorted order.
// When the merged set is empty the line is returned without a tag block.
//
// ErrMalformedTags is returned when message begins with '@' but has no SPACE.
func AddTagsToMessage(message string, tags Tags) (string, error) {
	var (
		msgTags Tags
		rest    = message
	)

	if strings.HasPrefix(message, string(startTags)) {
		i := strings.IndexByte(message, delimParam)
		if i < 0 {
			return "", ErrMalformedTags
		}
		msgTags.Parse(message[1:i], "")
		rest = strings.TrimLeft(message[i:], string(delimParam))
	}

	msgTags.Merge(tags)

	if s, _ := EncodeTags(msgTags); s != "" {
		return string(startTags) + s + string(delimParam) + rest, nil
	}
	return rest, nil
}

// Set will set the tag key k with value v.
func (t *Tags) Set(k string, v string) {
	t.setValue(k, Value(v))
}

// SetFlag will set the tag key k without a value.
func (t *Tags) SetFlag(k string) {
	t.setValue(k, TagValue{})
}

func (t *Tags) setValue(k string, v TagValue) {
	if *t == nil {
		*t = make(Tags)
	}
	(*t)[k] = v
}

// Get will get the message tag value for key. All variations of missing or empty values return
// an empty string. To check whether a message included a specific tag key, use Has.
func (t Tags) Get(key string) string {
	return t[key].Value
}

// Has returns true when the given key was listed in the IRCv3 message tags.
func (t Tags) Has(key string) bool {
	_, ok := t[key]
	return ok
}

// Lookup returns the value for key and whether the key was present.
func (t Tags) Lookup(key string) (TagValue, bool) {
	v, ok := t[key]
	return v, ok
}

// Delete removes key.
func (t Tags) Delete(key string) {
	delete(t, key)
}

// Clone returns a copy of t. The clone of a nil Tags is nil.
func (t Tags) Clone() Tags {
	if t == nil {
		return nil
	}
	c := make(Tags, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// Merge copies every key of other that is missing from t and returns the number of keys added.
// Keys already present in t are never overwritten.
func (t *Tags) Merge(other Tags) int {
	var n int
	for k, v := range other {
		if t.Has(k) {
			continue
		}
		t.setValue(k, v)
		n++
	}
	return n
}

// serverTimeLayout is the timestamp format required by the server-time capability.
const serverTimeLayout = "2006-01-02T15:04:05.000Z"

// Time returns the timestamp carried in the "time" tag.
// ok is false when the tag is missing or can't be parsed.
//
// https://ircv3.net/specs/extensions/server-time
func (t Tags) Time() (ts time.Time, ok bool) {
	v := t.Get(TagTime)
	if v == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// SetTime sets the "time" tag to ts in UTC with millisecond precision.
func (t *Tags) SetTime(ts time.Time) {
	t.Set(TagTime, ts.UTC().Format(serverTimeLayout))
}

// FormatLineTags converts tags into a comma-separated list of display tags,
// one "<prefix><key>[=<value>]" item per tag, in sorted key order.
// Commas inside keys and values are replaced with ';' so each item stays intact.
//
//	FormatLineTags(Tags{"time": Value("x"), "bot": {}}, "irc_tag_")
//	// "irc_tag_bot,irc_tag_time=x"
func FormatLineTags(tags Tags, prefix string) string {
	var b strings.Builder
	for i, k := range tags.keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(prefix)
		b.WriteString(strings.ReplaceAll(k, ",", ";"))
		if v := tags[k]; v.HasValue {
			b.WriteByte(delimTagValue)
			b.WriteString(strings.ReplaceAll(v.Value, ",", ";"))
		}
	}
	return b.String()
}

func (t Tags) keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
