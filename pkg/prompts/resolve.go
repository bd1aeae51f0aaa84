package prompts

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.-]+)\s*\}\}`)

// Render substitutes {{name}} placeholders with values from vars.
//
// Substitution is a single pass: values containing placeholder syntax are not
// re-expanded. Placeholders with no matching variable are left untouched so a
// missing value is visible in the output instead of silently vanishing.
func Render(template string, vars map[string]any) string {
	if len(vars) == 0 {
		return template
	}

	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.TrimSpace(strings.Trim(match, "{}"))

		value, ok := vars[name]
		if !ok {
			return match
		}

		return stringify(value)
	})
}

// Placeholders returns the distinct placeholder names in a template, in order
// of first appearance.
func Placeholders(template string) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)

	for _, match := range placeholderRe.FindAllStringSubmatch(template, -1) {
		name := match[1]
		if seen[name] {
			continue
		}

		seen[name] = true
		names = append(names, name)
	}

	return names
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
