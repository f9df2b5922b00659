package notification

import "strings"

// Render replaces every {{name}} placeholder in tmpl with its value from
// vars. Placeholders without a value are left verbatim: a malformed rule
// template degrades the message, it never blocks the send. Substitution is
// literal, there is no expression evaluation.
func Render(tmpl string, vars map[string]string) string {
	var sb strings.Builder

	for {
		start := strings.Index(tmpl, "{{")
		if start < 0 {
			sb.WriteString(tmpl)
			break
		}

		end := strings.Index(tmpl[start:], "}}")
		if end < 0 {
			sb.WriteString(tmpl)
			break
		}

		name := tmpl[start+2 : start+end]

		if value, ok := vars[name]; ok {
			sb.WriteString(tmpl[:start])
			sb.WriteString(value)
		} else {
			sb.WriteString(tmpl[:start+end+2])
		}

		tmpl = tmpl[start+end+2:]
	}

	return sb.String()
}
