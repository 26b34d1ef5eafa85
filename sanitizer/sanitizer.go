// Package sanitizer neutralizes characters in log output that could corrupt
// a terminal or a line-oriented log file.
package sanitizer

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Filter flags for character matching
const (
	FilterNonPrintable uint64 = 1 << iota // Runes strconv.IsPrint rejects
	FilterControl                         // unicode.IsControl
)

// Transform flags for character transformation
const (
	TransformStrip      uint64 = 1 << iota // Drop the rune
	TransformHexEncode                     // Replace with "<xxyy>" of its UTF-8 bytes
	TransformJSONEscape                    // Backslash escape, \u00XX for the rest
)

// Policy names a preset rule set
type Policy string

const (
	PolicyRaw  Policy = "raw"  // Passthrough
	PolicyTxt  Policy = "txt"  // Text log files and consoles
	PolicyJSON Policy = "json" // Strings embedded in JSON documents
)

type rule struct {
	filter    uint64
	transform uint64
}

var policyRules = map[Policy][]rule{
	PolicyRaw:  nil,
	PolicyTxt:  {{filter: FilterNonPrintable, transform: TransformHexEncode}},
	PolicyJSON: {{filter: FilterControl, transform: TransformJSONEscape}},
}

// Sanitizer applies an ordered list of rules; the first matching rule wins.
// Not safe for concurrent use.
type Sanitizer struct {
	rules []rule
	buf   []byte
}

// New creates a sanitizer preloaded with the given policies
func New(policies ...Policy) *Sanitizer {
	s := &Sanitizer{buf: make([]byte, 0, 256)}
	for _, p := range policies {
		s.Policy(p)
	}
	return s
}

// Policy appends a preset rule set
func (s *Sanitizer) Policy(p Policy) *Sanitizer {
	s.rules = append(s.rules, policyRules[p]...)
	return s
}

// Rule appends a custom rule
func (s *Sanitizer) Rule(filter, transform uint64) *Sanitizer {
	s.rules = append(s.rules, rule{filter: filter, transform: transform})
	return s
}

// Sanitize returns data with all rules applied
func (s *Sanitizer) Sanitize(data string) string {
	if len(s.rules) == 0 {
		return data
	}
	s.buf = s.buf[:0]
	for _, r := range data {
		s.buf = s.appendRune(s.buf, r)
	}
	return string(s.buf)
}

func (s *Sanitizer) appendRune(buf []byte, r rune) []byte {
	for _, rl := range s.rules {
		if !matches(r, rl.filter) {
			continue
		}
		switch {
		case rl.transform&TransformStrip != 0:
			return buf
		case rl.transform&TransformHexEncode != 0:
			var enc [utf8.UTFMax]byte
			n := utf8.EncodeRune(enc[:], r)
			buf = append(buf, '<')
			buf = append(buf, hex.EncodeToString(enc[:n])...)
			return append(buf, '>')
		case rl.transform&TransformJSONEscape != 0:
			return appendJSONEscaped(buf, r)
		}
	}
	return utf8.AppendRune(buf, r)
}

func matches(r rune, filter uint64) bool {
	if filter&FilterNonPrintable != 0 && !strconv.IsPrint(r) {
		return true
	}
	if filter&FilterControl != 0 && unicode.IsControl(r) {
		return true
	}
	return false
}

func appendJSONEscaped(buf []byte, r rune) []byte {
	switch r {
	case '\n':
		return append(buf, '\\', 'n')
	case '\r':
		return append(buf, '\\', 'r')
	case '\t':
		return append(buf, '\\', 't')
	case '\b':
		return append(buf, '\\', 'b')
	case '\f':
		return append(buf, '\\', 'f')
	}
	if r < 0x20 || r == 0x7f {
		return append(buf, fmt.Sprintf("\\u%04x", r)...)
	}
	return utf8.AppendRune(buf, r)
}
