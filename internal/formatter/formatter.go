package formatter

import (
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/mcncl/gozod/internal/models"
	"github.com/mcncl/gozod/internal/parser"
)

// Indent is the per-level indentation of formatted output.
const Indent = "  "

// Formatter pretty-prints JSON documents
type Formatter struct {
	indent string
}

// NewFormatter creates a new Formatter instance
func NewFormatter() *Formatter {
	return &Formatter{indent: Indent}
}

// Format re-serializes text with two-space indentation, keeping keys in the
// order they appear. Text that does not parse is returned unchanged.
func Format(text string) string {
	return NewFormatter().Format(text)
}

// Format re-serializes text, or returns it unchanged if it is not valid JSON.
func (f *Formatter) Format(text string) string {
	ir, err := parser.ParseString(text)
	if err != nil {
		return text
	}
	return f.FormatValue(ir.Root)
}

// FormatValue serializes v the way JSON.stringify(v, null, 2) does.
func (f *Formatter) FormatValue(v models.JSONValue) string {
	var b strings.Builder
	f.write(&b, v, 0)
	return b.String()
}

func (f *Formatter) write(b *strings.Builder, v models.JSONValue, depth int) {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(t))
	case models.Number:
		b.WriteString(formatNumber(t))
	case string:
		b.WriteString(quote(t))
	case models.JSONArray:
		if len(t) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[")
		for i, item := range t {
			if i > 0 {
				b.WriteString(",")
			}
			f.newline(b, depth+1)
			f.write(b, item, depth+1)
		}
		f.newline(b, depth)
		b.WriteString("]")
	case *models.JSONObject:
		if t == nil {
			b.WriteString("null")
			return
		}
		if t.Len() == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{")
		first := true
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				b.WriteString(",")
			}
			first = false
			f.newline(b, depth+1)
			b.WriteString(quote(pair.Key))
			b.WriteString(": ")
			f.write(b, pair.Value, depth+1)
		}
		f.newline(b, depth)
		b.WriteString("}")
	default:
		b.WriteString("null")
	}
}

func (f *Formatter) newline(b *strings.Builder, depth int) {
	b.WriteString("\n")
	b.WriteString(strings.Repeat(f.indent, depth))
}

// shortEscapes are the control characters JSON.stringify writes with a
// two-character escape that the encoder spells as \u00XX.
var shortEscapes = map[byte]string{
	'\b': `\b`,
	'\f': `\f`,
}

// quote renders s as a JSON string the way JSON.stringify does: no HTML
// escaping and U+2028/U+2029 left as is.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	start := 0
	for i := 0; i < len(s); i++ {
		if esc, ok := shortEscapes[s[i]]; ok {
			b.WriteString(quoteInner(s[start:i]))
			b.WriteString(esc)
			start = i + 1
		}
	}
	b.WriteString(quoteInner(s[start:]))
	b.WriteByte('"')
	return b.String()
}

// quoteInner encodes s and strips the surrounding quotes.
func quoteInner(s string) string {
	if s == "" {
		return ""
	}
	out, err := json.MarshalWithOption(s, json.DisableHTMLEscape(), json.DisableNormalizeUTF8())
	if err != nil {
		q := strconv.Quote(s)
		return q[1 : len(q)-1]
	}
	return string(out[1 : len(out)-1])
}

// formatNumber renders a number literal the way JavaScript prints the
// corresponding double: shortest round-trip digits, exponent notation outside
// [1e-6, 1e21), and null for values that overflow.
func formatNumber(n models.Number) string {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		numErr, ok := err.(*strconv.NumError)
		if !ok || numErr.Err != strconv.ErrRange {
			return string(n)
		}
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "null"
	}
	if f == 0 {
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mantissa + "e" + exp[:1] + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
