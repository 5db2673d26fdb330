package redact

import "strings"

// RedactedValue is the placeholder for redacted content.
const RedactedValue = "[REDACTED]"

// Redactor handles redaction of sensitive data in page-side messages.
type Redactor struct {
	enabled       bool
	fieldDenylist []string
}

// New creates a new Redactor with default settings.
func New(enabled bool) *Redactor {
	return &Redactor{
		enabled:       enabled,
		fieldDenylist: DefaultFieldDenylist,
	}
}

// NewWithCustomRules creates a Redactor with extra denylisted field names.
func NewWithCustomRules(enabled bool, fields []string) *Redactor {
	r := New(enabled)
	if fields != nil {
		r.fieldDenylist = append(append([]string(nil), DefaultFieldDenylist...), fields...)
	}
	return r
}

// IsEnabled returns whether redaction is enabled.
func (r *Redactor) IsEnabled() bool {
	return r.enabled
}

// RedactMessage masks denylisted "field=value" pairs, card-number-like digit
// runs, and e-mail addresses in a free-text message.
func (r *Redactor) RedactMessage(msg string) string {
	if !r.enabled || msg == "" {
		return msg
	}

	msg = r.redactFields(msg)
	msg = cardPattern.ReplaceAllString(msg, RedactedValue)
	msg = emailPattern.ReplaceAllString(msg, RedactedValue)
	return msg
}

// redactFields replaces the values of denylisted fields. Matching resumes
// right after each field name, so pairs nested in another pair's value
// ("SELECTION: password=x") are still found.
func (r *Redactor) redactFields(msg string) string {
	var b strings.Builder
	pos := 0

	for pos < len(msg) {
		loc := fieldPattern.FindStringSubmatchIndex(msg[pos:])
		if loc == nil {
			break
		}

		nameStart, nameEnd := pos+loc[2], pos+loc[3]
		valueStart, valueEnd := pos+loc[6], pos+loc[7]

		if r.shouldRedactField(msg[nameStart:nameEnd]) {
			b.WriteString(msg[pos:valueStart])
			b.WriteString(RedactedValue)
			pos = valueEnd
			continue
		}

		b.WriteString(msg[pos:nameEnd])
		pos = nameEnd
	}

	b.WriteString(msg[pos:])
	return b.String()
}

// shouldRedactField checks if a field should be redacted.
func (r *Redactor) shouldRedactField(name string) bool {
	for _, pattern := range r.fieldDenylist {
		if matchFieldName(name, pattern) {
			return true
		}
	}
	return false
}
