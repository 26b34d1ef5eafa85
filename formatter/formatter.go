// Package formatter renders log records as txt, json, or raw lines.
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/davecgh/go-spew/spew"

	"github.com/lixenwraith/toastlog/sanitizer"
)

// Format flags for controlling output structure
const (
	FlagRaw           int64 = 0b001
	FlagShowTimestamp int64 = 0b010
	FlagShowLevel     int64 = 0b100
	FlagDefault             = FlagShowTimestamp | FlagShowLevel
)

// dumper renders complex values in raw format
var dumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Unprintable replaces values whose String or Error method panics
const Unprintable = "[unprintable]"

// Formatter owns a reusable buffer and is not safe for concurrent use
type Formatter struct {
	format          string
	timestampFormat string
	txt             *sanitizer.Sanitizer
	json            *sanitizer.Sanitizer
	buf             []byte
}

// New creates a formatter for the given format ("txt", "json", or "raw")
func New(format string) *Formatter {
	return &Formatter{
		format:          format,
		timestampFormat: time.RFC3339Nano,
		txt:             sanitizer.New(sanitizer.PolicyTxt),
		json:            sanitizer.New(sanitizer.PolicyJSON),
		buf:             make([]byte, 0, 1024),
	}
}

// TimestampFormat sets the layout used for timestamps and time.Time arguments
func (f *Formatter) TimestampFormat(layout string) *Formatter {
	if layout != "" {
		f.timestampFormat = layout
	}
	return f
}

// Format renders one record; the returned slice is valid until the next call
func (f *Formatter) Format(flags int64, ts time.Time, level int64, trace string, args []any) []byte {
	f.buf = f.buf[:0]

	if flags&FlagRaw != 0 {
		return f.formatRaw(args)
	}

	switch f.format {
	case "json":
		return f.formatJSON(flags, ts, level, trace, args)
	case "raw":
		return f.formatRaw(args)
	default:
		return f.formatTxt(flags, ts, level, trace, args)
	}
}

// LevelToString converts level values to their names
func LevelToString(level int64) string {
	switch level {
	case -4:
		return "DEBUG"
	case 0:
		return "INFO"
	case 4:
		return "WARN"
	case 8:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}

func (f *Formatter) formatRaw(args []any) []byte {
	for i, arg := range args {
		if i > 0 {
			f.buf = append(f.buf, ' ')
		}
		f.buf = f.appendRaw(f.buf, arg)
	}
	return f.buf
}

func (f *Formatter) formatTxt(flags int64, ts time.Time, level int64, trace string, args []any) []byte {
	sep := false
	space := func() {
		if sep {
			f.buf = append(f.buf, ' ')
		}
		sep = true
	}

	if flags&FlagShowTimestamp != 0 {
		space()
		f.buf = ts.AppendFormat(f.buf, f.timestampFormat)
	}
	if flags&FlagShowLevel != 0 {
		space()
		f.buf = append(f.buf, LevelToString(level)...)
	}
	if trace != "" {
		space()
		f.buf = append(f.buf, f.txt.Sanitize(trace)...)
	}
	for _, arg := range args {
		space()
		f.buf = f.appendTxt(f.buf, arg)
	}
	return append(f.buf, '\n')
}

func (f *Formatter) formatJSON(flags int64, ts time.Time, level int64, trace string, args []any) []byte {
	f.buf = append(f.buf, '{')
	comma := false
	key := func(k string) {
		if comma {
			f.buf = append(f.buf, ',')
		}
		comma = true
		f.buf = append(f.buf, '"')
		f.buf = append(f.buf, k...)
		f.buf = append(f.buf, '"', ':')
	}

	if flags&FlagShowTimestamp != 0 {
		key("time")
		f.buf = f.appendJSONString(f.buf, ts.Format(f.timestampFormat))
	}
	if flags&FlagShowLevel != 0 {
		key("level")
		f.buf = f.appendJSONString(f.buf, LevelToString(level))
	}
	if trace != "" {
		key("trace")
		f.buf = f.appendJSONString(f.buf, trace)
	}
	if len(args) > 0 {
		key("fields")
		f.buf = append(f.buf, '[')
		for i, arg := range args {
			if i > 0 {
				f.buf = append(f.buf, ',')
			}
			f.buf = f.appendJSONValue(f.buf, arg)
		}
		f.buf = append(f.buf, ']')
	}
	return append(f.buf, '}', '\n')
}

// appendRaw writes values unsanitized, dumping complex values with spew
func (f *Formatter) appendRaw(buf []byte, v any) []byte {
	if s, ok := scalarString(v, f.timestampFormat); ok {
		return append(buf, s...)
	}
	var b bytes.Buffer
	dumper.Fdump(&b, v)
	return append(buf, bytes.TrimSpace(b.Bytes())...)
}

func (f *Formatter) appendTxt(buf []byte, v any) []byte {
	var s string
	switch val := v.(type) {
	case nil:
		return append(buf, "null"...)
	case bool:
		return strconv.AppendBool(buf, val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		s, _ = scalarString(val, f.timestampFormat)
		return append(buf, s...)
	default:
		if str, ok := scalarString(val, f.timestampFormat); ok {
			s = str
		} else {
			s = dumpShort(val)
		}
	}

	s = f.txt.Sanitize(s)
	if !needsQuotes(s) {
		return append(buf, s...)
	}
	return strconv.AppendQuote(buf, s)
}

func (f *Formatter) appendJSONValue(buf []byte, v any) []byte {
	switch val := v.(type) {
	case nil:
		return append(buf, "null"...)
	case bool:
		return strconv.AppendBool(buf, val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return f.appendJSONString(buf, strconv.FormatFloat(val, 'f', -1, 64))
		}
		return strconv.AppendFloat(buf, val, 'f', -1, 64)
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return f.appendJSONString(buf, strconv.FormatFloat(float64(val), 'f', -1, 32))
		}
		return strconv.AppendFloat(buf, float64(val), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		s, _ := scalarString(val, f.timestampFormat)
		return append(buf, s...)
	}
	if s, ok := scalarString(v, f.timestampFormat); ok {
		return f.appendJSONString(buf, s)
	}
	data, err := marshal(v)
	if err != nil {
		return f.appendJSONString(buf, dumpShort(v))
	}
	return append(buf, data...)
}

// marshal treats a panicking MarshalJSON as a failure
func marshal(v any) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("marshal panicked: %v", r)
		}
	}()
	return json.Marshal(v)
}

// dumpShort renders complex values on one line, bounded by the dumper's depth limit
func dumpShort(v any) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = Unprintable
		}
	}()
	return dumper.Sprintf("%v", v)
}

// callText runs a String or Error method, replacing a panic with Unprintable
func callText(method func() string) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = Unprintable
		}
	}()
	return method()
}

func (f *Formatter) appendJSONString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			buf = append(buf, '\\', byte(r))
		default:
			buf = append(buf, f.json.Sanitize(string(r))...)
		}
	}
	return append(buf, '"')
}

// scalarString converts values with a natural single-token text form
func scalarString(v any, timeLayout string) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case []byte:
		return string(val), true
	case error:
		return callText(val.Error), true
	case time.Time:
		return val.Format(timeLayout), true
	case fmt.Stringer:
		return callText(val.String), true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int8:
		return strconv.FormatInt(int64(val), 10), true
	case int16:
		return strconv.FormatInt(int64(val), 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint8:
		return strconv.FormatUint(uint64(val), 10), true
	case uint16:
		return strconv.FormatUint(uint64(val), 10), true
	case uint32:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case nil:
		return "nil", true
	}
	return "", false
}

// needsQuotes reports whether a txt token would be ambiguous without quoting
func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || r == '\\' || r == '='
	}) >= 0
}
