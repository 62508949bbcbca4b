package prompts

import (
	"regexp"
	"strings"
)

// Placeholder is one {{VAR:...}} occurrence with its parsed options
type Placeholder struct {
	Raw     string
	Name    string
	Start   int
	End     int
	Options map[string]string // join, default
}

var (
	// {{VAR:name|key=value|key2="quoted value"}}
	varPattern = regexp.MustCompile(`\{\{VAR:([a-zA-Z0-9_\-]+)((?:\|[^}]+)?)}}`)
	optPattern = regexp.MustCompile(`\|([^=|]+)=([^|]+)`)
)

// ParsePlaceholders returns all placeholder occurrences in order of appearance
func ParsePlaceholders(body string) []Placeholder {
	matches := varPattern.FindAllStringSubmatchIndex(body, -1)
	out := make([]Placeholder, 0, len(matches))
	for _, idx := range matches {
		ph := Placeholder{
			Raw:     body[idx[0]:idx[1]],
			Name:    body[idx[2]:idx[3]],
			Start:   idx[0],
			End:     idx[1],
			Options: map[string]string{},
		}
		if idx[4] != -1 {
			for _, seg := range optPattern.FindAllStringSubmatch(body[idx[4]:idx[5]], -1) {
				ph.Options[strings.ToLower(strings.TrimSpace(seg[1]))] = decodeEscapes(unquote(strings.TrimSpace(seg[2])))
			}
		}
		out = append(out, ph)
	}
	return out
}

// Render substitutes every placeholder in body. A variable's values are
// joined with the join option (default ", "); a variable with no values
// renders the default option, or nothing.
func Render(body string, vars map[string][]string) string {
	var sb strings.Builder
	last := 0
	for _, ph := range ParsePlaceholders(body) {
		sb.WriteString(body[last:ph.Start])
		sep, ok := ph.Options["join"]
		if !ok {
			sep = ", "
		}
		val := strings.Join(nonEmpty(vars[ph.Name]), sep)
		if val == "" {
			val = ph.Options["default"]
		}
		sb.WriteString(val)
		last = ph.End
	}
	sb.WriteString(body[last:])
	return sb.String()
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func unquote(val string) string {
	if len(val) >= 2 && ((val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'')) {
		return val[1 : len(val)-1]
	}
	return val
}

// decodeEscapes handles \n, \t, \r and \\ and leaves other escapes as-is
func decodeEscapes(s string) string {
	b := strings.Builder{}
	b.Grow(len(s))
	esc := false
	for _, r := range s {
		if !esc {
			if r == '\\' {
				esc = true
				continue
			}
			b.WriteRune(r)
			continue
		}
		switch r {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
		esc = false
	}
	if esc {
		b.WriteByte('\\')
	}
	return b.String()
}
