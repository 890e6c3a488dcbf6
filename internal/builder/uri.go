package builder

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/cinemad/internal/ir"
)

// URIParser expands a uri_format argument for one record.
//
// Placeholders are %s, %d, %f, %x and %X. The i-th placeholder takes its
// value from the record field named by argument "i" ("0", "1", ...).
// \% is a literal percent sign.
type URIParser struct {
	pattern  string
	literals []string // len(literals) == len(verbs)+1
	verbs    []byte
	keys     []string
}

// NewURIParser parses args["uri_format"]. Placeholders without a matching
// numbered argument are logged and expand to nothing.
func NewURIParser(args ir.Object, logger *slog.Logger) *URIParser {
	if logger == nil {
		logger = slog.Default()
	}
	pattern, _ := ir.AsString(args.Get("uri_format"))
	p := &URIParser{pattern: pattern}

	var lit strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern) && pattern[i+1] == '%':
			lit.WriteByte('%')
			i++
		case c == '%' && i+1 < len(pattern) && strings.IndexByte("sdfxX", pattern[i+1]) >= 0:
			p.literals = append(p.literals, lit.String())
			lit.Reset()
			p.verbs = append(p.verbs, pattern[i+1])
			i++
		default:
			lit.WriteByte(c)
		}
	}
	p.literals = append(p.literals, lit.String())

	for i := range p.verbs {
		key, ok := ir.AsString(args.Get(strconv.Itoa(i)))
		if !ok || key == "" {
			logger.Warn("missing argument for uri_format placeholder",
				"argument", i,
				"uri_format", pattern,
			)
		}
		p.keys = append(p.keys, key)
	}
	return p
}

// Pattern returns the raw uri_format.
func (p *URIParser) Pattern() string { return p.pattern }

// Keys returns the record fields used by each placeholder, in order.
func (p *URIParser) Keys() []string { return append([]string(nil), p.keys...) }

// Parse expands the pattern for r.
func (p *URIParser) Parse(r *ir.Record) string {
	var out strings.Builder
	out.WriteString(p.literals[0])
	for i, verb := range p.verbs {
		if p.keys[i] != "" {
			out.WriteString(formatVerb(verb, r.Get(p.keys[i])))
		}
		out.WriteString(p.literals[i+1])
	}
	return out.String()
}

func formatVerb(verb byte, v ir.Value) string {
	if _, ok := v.(ir.Null); ok {
		return ""
	}
	f, numeric := ir.AsNumber(v)
	if _, isBool := v.(ir.Bool); isBool {
		numeric = false
	}
	switch verb {
	case 'd':
		if numeric {
			return strconv.FormatInt(int64(math.Trunc(f)), 10)
		}
	case 'x', 'X':
		if numeric && f == math.Trunc(f) {
			s := strconv.FormatInt(int64(f), 16)
			if verb == 'X' {
				s = strings.ToUpper(s)
			}
			return s
		}
	case 'f':
		if numeric {
			return ir.Text(ir.Number(f))
		}
	}
	return ir.Text(v)
}

// String implements fmt.Stringer.
func (p *URIParser) String() string {
	return fmt.Sprintf("URIParser(%q, keys=%v)", p.pattern, p.keys)
}
