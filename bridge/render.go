package bridge

import (
	"encoding/json"
	"strings"
)

// Placeholder replaces arguments that have no canonical text form
const Placeholder = "[unserializable]"

// Kind classifies how an argument is rendered
type Kind int

const (
	// Textual values are used verbatim: strings, and errors via Error()
	Textual Kind = iota
	// Serializable values render as their canonical JSON encoding
	Serializable
	// Opaque values cannot be encoded and render as Placeholder
	Opaque
)

func (k Kind) String() string {
	switch k {
	case Textual:
		return "textual"
	case Serializable:
		return "serializable"
	default:
		return "opaque"
	}
}

// RenderArg returns the display text of one argument and how it was produced
func RenderArg(arg any) (text string, kind Kind) {
	switch v := arg.(type) {
	case string:
		return v, Textual
	case error:
		return errorText(v), Textual
	}

	data, err := marshal(arg)
	if err != nil {
		return Placeholder, Opaque
	}
	return string(data), Serializable
}

// Render joins the display text of every argument with single spaces
// Zero arguments render as the empty string
func Render(args ...any) string {
	switch len(args) {
	case 0:
		return ""
	case 1:
		text, _ := RenderArg(args[0])
		return text
	}

	var sb strings.Builder
	for i, arg := range args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		text, _ := RenderArg(arg)
		sb.WriteString(text)
	}
	return sb.String()
}

// marshal encodes compactly without HTML escaping; a panicking MarshalJSON counts as a failure
func marshal(v any) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, errUnserializable
		}
	}()

	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return []byte(strings.TrimSuffix(sb.String(), "\n")), nil
}

// errorText guards against Error methods that panic, e.g. on a nil receiver
func errorText(e error) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = Placeholder
		}
	}()
	return e.Error()
}
