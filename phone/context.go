package phone

import (
	"fmt"
	"strings"
)

// Placeholder marks a context slot in a diphone name template.
const Placeholder = "%s"

// Triphone builds the conventional context-dependent name "base(left,right)".
func Triphone(base, left, right string) string {
	return fmt.Sprintf("%s(%s,%s)", base, left, right)
}

// BaseName extracts the base phone from a context-dependent name.
// For "AE(DH,TD)b" it returns "AE"; names without context are returned as is.
func BaseName(name string) string {
	if i := strings.IndexByte(name, '('); i > 0 {
		return name[:i]
	}
	return name
}

// Slots returns how many context placeholders template holds.
func Slots(template string) int {
	return strings.Count(template, Placeholder)
}

// Expand substitutes ctx into the placeholders of template, left to right.
// Missing context leaves the remaining placeholders untouched.
func Expand(template string, ctx ...string) string {
	var b strings.Builder
	rest := template
	for _, c := range ctx {
		i := strings.Index(rest, Placeholder)
		if i < 0 {
			break
		}
		b.WriteString(rest[:i])
		b.WriteString(c)
		rest = rest[i+len(Placeholder):]
	}
	b.WriteString(rest)
	return b.String()
}
