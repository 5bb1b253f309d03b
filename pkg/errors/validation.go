package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxNameLength bounds node, cluster and command names.
const maxNameLength = 256

// ValidateName validates an identifier used for nodes, clusters or commands.
// kind is used only in messages ("node", "cluster", ...).
//
// The validation rules are intentionally conservative:
//   - No empty or whitespace-only names
//   - No control characters
//   - Maximum length of 256 characters
func ValidateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidParameter, "%s name must be a non-empty string", kind)
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidParameter, "%s name too long (max %d characters)", kind, maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidParameter, "%s name contains invalid control characters", kind)
		}
	}

	return nil
}

// ValidFormats is the set of output formats a renderer may be asked for.
var ValidFormats = map[string]bool{
	"png": true,
	"svg": true,
	"pdf": true,
}

// ValidateFormat validates an output format name.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return New(ErrCodeInvalidFormat, "invalid output format %q: must be one of png, svg, pdf", format)
	}
	return nil
}

// slugRegex matches analysis identifiers (service and cluster slugs).
var slugRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// ValidateSlug validates a stable identifier coming from an analysis.
func ValidateSlug(kind, slug string) error {
	if err := ValidateName(kind, slug); err != nil {
		return New(ErrCodeInvalidAnalysis, "%s", UserMessage(err))
	}
	if !slugRegex.MatchString(slug) {
		return New(ErrCodeInvalidAnalysis, "invalid %s identifier: %q", kind, slug)
	}
	return nil
}
