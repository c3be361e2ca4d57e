package sms

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidPhoneNumber is returned when a phone number cannot be parsed or validated.
var ErrInvalidPhoneNumber = errors.New("invalid phone number")

// phoneFormatting holds the punctuation allowed around the digits of an
// international number.
const phoneFormatting = " -().+"

// NormalizePhone parses an international number (leading '+', no default
// region) and returns it in E.164 form. Anything libphonenumber does not
// consider a valid assigned number is rejected.
func NormalizePhone(input string) (string, error) {
	if !strings.HasPrefix(strings.TrimLeft(input, " ("), "+") || strings.Count(input, "+") != 1 {
		return "", ErrInvalidPhoneNumber
	}
	if strings.ContainsFunc(input, func(r rune) bool {
		return (r < '0' || r > '9') && !strings.ContainsRune(phoneFormatting, r)
	}) {
		return "", ErrInvalidPhoneNumber
	}

	num, err := phonenumbers.Parse(input, "")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhoneNumber
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// PhoneCountry returns the ISO 3166-1 alpha-2 region of an international
// number, or "" when it cannot be parsed.
func PhoneCountry(phone string) string {
	num, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return ""
	}
	return phonenumbers.GetRegionCodeForNumber(num)
}

// IsAllowedCountry reports whether phone belongs to one of the allowed
// regions. An empty allowed list permits all.
func IsAllowedCountry(phone string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	region := PhoneCountry(phone)
	return region != "" && slices.Contains(allowed, region)
}

// RecipientPolicy screens message recipients before they reach a provider.
type RecipientPolicy struct {
	// Normalize rewrites every recipient to E.164 and rejects unparsable numbers.
	Normalize bool
	// AllowedCountries restricts recipients to these regions. Empty permits all.
	AllowedCountries []string
}

// Apply checks, and when Normalize is set rewrites, the recipients of msg.
// Errors wrap ErrInvalidArgument and name the offending recipient; msg is
// left untouched on error.
func (p RecipientPolicy) Apply(msg *Message) error {
	if !p.Normalize && len(p.AllowedCountries) == 0 {
		return nil
	}
	out := make([]string, 0, len(msg.Recipients()))
	for _, r := range msg.Recipients() {
		phone := r
		if p.Normalize {
			var err error
			if phone, err = NormalizePhone(r); err != nil {
				return fmt.Errorf("%w: %w: %q", ErrInvalidArgument, err, r)
			}
		}
		if !IsAllowedCountry(phone, p.AllowedCountries) {
			return fmt.Errorf("%w: phone number country not allowed: %q", ErrInvalidArgument, r)
		}
		out = append(out, phone)
	}
	if !p.Normalize {
		return nil
	}
	return msg.SetRecipients(out)
}
