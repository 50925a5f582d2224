package services

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// MaxSlugLength caps generated slugs
	MaxSlugLength = 100
	// MaxNameLength caps display names
	MaxNameLength = 120
	// MaxDescriptionLength caps free-text descriptions
	MaxDescriptionLength = 2000
)

var (
	markupPolicy = bluemonday.StrictPolicy()

	nameDisallowed    = regexp.MustCompile(`[^a-zA-Z0-9 &'(),-]+`)
	addressDisallowed = regexp.MustCompile(`[^a-zA-Z0-9 ,./#()&'-]+`)
	whitespaceRun     = regexp.MustCompile(`\s+`)

	slugSeparators = regexp.MustCompile(`[\s_]+`)
	slugDisallowed = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRun      = regexp.MustCompile(`-+`)

	emailDisallowed = regexp.MustCompile(`[^a-z0-9@._+-]+`)
	emailPattern    = regexp.MustCompile(`^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)

	nonDigits = regexp.MustCompile(`[^0-9]+`)

	gstDisallowed = regexp.MustCompile(`[^A-Z0-9]+`)
	gstPattern    = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

// stripMarkup removes any HTML and returns plain text
func stripMarkup(s string) string {
	return html.UnescapeString(markupPolicy.Sanitize(s))
}

// truncate cuts s to at most max bytes without splitting a rune
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// SanitizeName keeps letters, digits, spaces and & ' ( ) , - and collapses whitespace.
// "  Electronics!!  " becomes "Electronics".
func SanitizeName(s string) string {
	s = stripMarkup(s)
	s = nameDisallowed.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(truncate(strings.TrimSpace(s), MaxNameLength))
}

// SanitizeSlug lower-cases s and reduces it to hyphen-delimited [a-z0-9] runs.
// The result is either empty or matches ^[a-z0-9]+(-[a-z0-9]+)*$, and
// SanitizeSlug(SanitizeSlug(x)) == SanitizeSlug(x).
func SanitizeSlug(s string) string {
	slug := strings.ToLower(strings.TrimSpace(s))
	slug = slugSeparators.ReplaceAllString(slug, "-")
	slug = slugDisallowed.ReplaceAllString(slug, "")
	slug = hyphenRun.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	return slug
}

// SanitizeDescription strips markup and surrounding whitespace
func SanitizeDescription(s string) string {
	s = strings.TrimSpace(stripMarkup(s))
	return truncate(s, MaxDescriptionLength)
}

// SanitizeEmail lower-cases and keeps characters valid in an address
func SanitizeEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return emailDisallowed.ReplaceAllString(s, "")
}

// SanitizePhone keeps digits and an optional leading "+", at most 15 digits
func SanitizePhone(s string) string {
	s = strings.TrimSpace(s)
	plus := strings.HasPrefix(s, "+")
	digits := truncate(nonDigits.ReplaceAllString(s, ""), 15)
	if plus && digits != "" {
		return "+" + digits
	}
	return digits
}

// SanitizeGST upper-cases and keeps the 15 alphanumerics of a GSTIN
func SanitizeGST(s string) string {
	s = strings.ToUpper(s)
	return truncate(gstDisallowed.ReplaceAllString(s, ""), 15)
}

// SanitizeAddress strips markup, keeps common address punctuation and collapses whitespace
func SanitizeAddress(s string) string {
	s = stripMarkup(s)
	s = addressDisallowed.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return truncate(strings.TrimSpace(s), 500)
}

// SanitizePincode keeps digits only
func SanitizePincode(s string) string {
	return truncate(nonDigits.ReplaceAllString(s, ""), 6)
}

// ValidateEmail checks a sanitized email address
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

// ValidatePhone checks a sanitized phone number has 10 to 15 digits
func ValidatePhone(phone string) error {
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < 10 || len(digits) > 15 {
		return fmt.Errorf("phone number must have 10 to 15 digits")
	}
	return nil
}

// ValidateGST checks a sanitized GSTIN
func ValidateGST(gst string) error {
	if !gstPattern.MatchString(gst) {
		return fmt.Errorf("enter a valid 15 character GST number")
	}
	return nil
}

// ValidatePincode checks a six digit postal code
func ValidatePincode(pincode string) error {
	if !pincodePattern.MatchString(pincode) {
		return fmt.Errorf("pincode must be 6 digits")
	}
	return nil
}

// ValidateImageURL accepts only absolute http(s) URLs with a host
func ValidateImageURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("image URL is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("image URL must start with http:// or https://")
	}
	if u.Host == "" {
		return fmt.Errorf("image URL must include a host")
	}
	return nil
}
