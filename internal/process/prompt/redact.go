package prompt

import (
	"regexp"

	"github.com/hinata/core/internal/core/domain"
)

var (
	emailPattern     = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	longDigitPattern = regexp.MustCompile(`\d{6,}`)
)

const (
	emailPlaceholder = "[redacted-email]"
	digitsPlaceholder = "[redacted-number]"
)

// redactPII replaces emails and long digit sequences with placeholder
// tokens (spec §4.5 safety filter), applied to every candidate body since
// PromptComposer's only caller (ExternalModelGateway) always sends the
// composed prompt to an external model.
func redactPII(s string) string {
	s = emailPattern.ReplaceAllString(s, emailPlaceholder)
	s = longDigitPattern.ReplaceAllString(s, digitsPlaceholder)

	return s
}

// allowedExternal reports whether access permits a candidate's content to
// leave the process boundary (spec §4.5 safety filter: "strip ... any
// content whose access != private-allowed-for-external"). Restricted
// content is stripped entirely; private and public content is redacted for
// PII above and kept.
func allowedExternal(access domain.AccessLevel) bool {
	return access != domain.AccessRestricted
}
