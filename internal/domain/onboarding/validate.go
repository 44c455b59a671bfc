package onboarding

import (
	"regexp"
	"strings"
)

const (
	MsgFullNameRequired     = "Full name is required"
	MsgEmailInvalid         = "Valid email is required"
	MsgPhoneInvalid         = "10-digit phone required"
	MsgDOBRequired          = "Date of birth is required"
	MsgConsentTerms         = "Accept Terms & Privacy"
	MsgConsentTreatment     = "Treatment consent required"
	MsgFixHighlightedFields = "Please fix the highlighted fields."
)

// Whitespace covers Unicode space separators and BOM as well as ASCII.
var emailPattern = regexp.MustCompile(`(?i)^[^\s\p{Z}\x{FEFF}@]+@[^\s\p{Z}\x{FEFF}@]+\.[^\s\p{Z}\x{FEFF}@]+$`)

// Validate maps a draft to its current validation errors. Every rule runs on
// every call; fields without a rule are always valid.
func Validate(d Draft) ErrorMap {
	errs := make(ErrorMap)
	if strings.TrimSpace(d.FullName) == "" {
		errs[FieldFullName] = MsgFullNameRequired
	}
	if !ValidEmail(d.Email) {
		errs[FieldEmail] = MsgEmailInvalid
	}
	if len(PhoneDigits(d.Phone)) != 10 {
		errs[FieldPhone] = MsgPhoneInvalid
	}
	if d.DOB == "" {
		errs[FieldDOB] = MsgDOBRequired
	}
	if !d.ConsentTerms {
		errs[FieldConsentTerms] = MsgConsentTerms
	}
	if !d.ConsentTreatment {
		errs[FieldConsentTreatment] = MsgConsentTreatment
	}
	return errs
}

// ValidEmail reports whether s has the local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// PhoneDigits strips every non-digit character.
func PhoneDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
