package plan

import (
	"regexp"
	"strings"
)

// DefaultTitle is used when a description names no title.
const DefaultTitle = "System Architecture"

var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)titled "([^"]+)"`),
	regexp.MustCompile(`(?i)title(?: is)? '([^']+)'`),
	regexp.MustCompile(`(?i)for a '([^']+)' system`),
	regexp.MustCompile(`(?i)named "([^"]+)"`),
}

// ExtractTitle returns the first quoted title found in a free-form
// description, or [DefaultTitle].
func ExtractTitle(description string) string {
	for _, re := range titlePatterns {
		if m := re.FindStringSubmatch(description); m != nil {
			if t := strings.TrimSpace(m[1]); t != "" {
				return t
			}
		}
	}
	return DefaultTitle
}
