package security

import (
	"html"
	"strings"
)

// Kind selects the normalization applied by Sanitize.
type Kind int

const (
	// PlainText trims surrounding whitespace and HTML-escapes markup
	// characters including both quote styles, making the result safe to
	// embed in rendered output.
	PlainText Kind = iota
	// Email strips characters outside the email character set. Format
	// correctness is a separate validation step, not this function's job.
	Email
	// URL strips characters outside the URL character set.
	URL
	// Integer keeps only sign characters and digits.
	Integer
	// Float keeps sign characters, digits, and a single decimal point.
	Float
)

const (
	emailChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789.!#$%&'*+-/=?^_`{|}~@"
	urlChars   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._~:/?#[]@!$&'()*+,;=%"
)

// Sanitize normalizes an untrusted string according to kind. The output
// is always defined: unparseable input degrades to an empty result, never
// an error. Callers needing strict validation must check the shape of the
// result themselves.
func Sanitize(value string, kind Kind) string {
	switch kind {
	case Email:
		return keepChars(value, emailChars)
	case URL:
		return keepChars(value, urlChars)
	case Integer:
		return sanitizeNumeric(value, false)
	case Float:
		return sanitizeNumeric(value, true)
	default:
		return html.EscapeString(strings.TrimSpace(value))
	}
}

// keepChars drops every byte of s not present in allowed.
func keepChars(s, allowed string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(allowed, s[i]) >= 0 {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// sanitizeNumeric keeps sign and digits; with decimal enabled the first
// '.' is kept and any later ones are dropped.
func sanitizeNumeric(s string, decimal bool) string {
	var b strings.Builder
	b.Grow(len(s))
	seenPoint := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c == '+', c == '-':
			b.WriteByte(c)
		case decimal && c == '.' && !seenPoint:
			seenPoint = true
			b.WriteByte(c)
		}
	}
	return b.String()
}
