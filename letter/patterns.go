package letter

import (
	"regexp"
	"strings"
)

// This file enumerates the line classifiers used by normalization, layout
// and the signature block. Downstream dedup/signature logic depends on the
// exact classification, so the patterns below are a stable contract:
//
//   salutation:  a line starting with "Dear", e.g. "Dear Hiring Manager,"
//   closing:     one of "Sincerely", "Best regards", "Regards",
//                "Yours sincerely", "Yours truly", "Respectfully",
//                case-insensitive, optional trailing comma
//   placeholder: a bracketed token such as "[Company Name]"

var (
	salutationPattern  = regexp.MustCompile(`^\s*Dear\b[^:\n]*$`)
	closingPattern     = regexp.MustCompile(`(?i)^\s*(sincerely|best regards|regards|yours sincerely|yours truly|respectfully),?\s*$`)
	placeholderPattern = regexp.MustCompile(`\[[^\[\]]+\]`)
)

// IsSalutation reports whether line is a salutation ("Dear ...") with or
// without its trailing colon.
func IsSalutation(line string) bool {
	trimmed := strings.TrimRight(strings.TrimSpace(line), ":")
	return salutationPattern.MatchString(trimmed)
}

// IsClosing reports whether line is a valediction phrase marking the start
// of the signature area.
func IsClosing(line string) bool {
	return closingPattern.MatchString(line)
}

// HasPlaceholder reports whether line still contains an unfilled bracketed
// token. Such lines are rendered muted and never bold.
func HasPlaceholder(line string) bool {
	return placeholderPattern.MatchString(line)
}
