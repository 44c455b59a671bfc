package onboarding

import (
	"fmt"
	"sort"
)

// Sex is the self-reported sex option on the patient form.
type Sex string

const (
	SexUnset       Sex = ""
	SexMale        Sex = "Male"
	SexFemale      Sex = "Female"
	SexOther       Sex = "Other"
	SexUndisclosed Sex = "Prefer not to say"
)

// SexOptions lists the selectable values in display order.
var SexOptions = []Sex{SexMale, SexFemale, SexOther, SexUndisclosed}

// ParseSex accepts the empty string (unset) or one of SexOptions.
func ParseSex(s string) (Sex, error) {
	if s == "" {
		return SexUnset, nil
	}
	for _, o := range SexOptions {
		if string(o) == s {
			return o, nil
		}
	}
	return SexUnset, fmt.Errorf("%w: sex %q", ErrInvalidOption, s)
}

// Profile holds the identity claims captured from federated sign-in.
type Profile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
	IDToken string `json:"id_token"`
}

// Draft is the in-progress patient form.
type Draft struct {
	FullName          string `json:"fullName" form:"fullName"`
	Email             string `json:"email" form:"email"`
	Phone             string `json:"phone" form:"phone"`
	DOB               string `json:"dob" form:"dob"`
	Sex               Sex    `json:"sex" form:"sex"`
	Address1          string `json:"address1" form:"address1"`
	City              string `json:"city" form:"city"`
	State             string `json:"state" form:"state"`
	Zip               string `json:"zip" form:"zip"`
	InsuranceProvider string `json:"insuranceProvider" form:"insuranceProvider"`
	MemberID          string `json:"memberId" form:"memberId"`
	Reason            string `json:"reason" form:"reason"`
	Allergies         string `json:"allergies" form:"allergies"`
	ConsentTerms      bool   `json:"consentTerms" form:"consentTerms"`
	ConsentTreatment  bool   `json:"consentTreatment" form:"consentTreatment"`
}

// Field identifies a single Draft field.
type Field string

const (
	FieldFullName          Field = "fullName"
	FieldEmail             Field = "email"
	FieldPhone             Field = "phone"
	FieldDOB               Field = "dob"
	FieldSex               Field = "sex"
	FieldAddress1          Field = "address1"
	FieldCity              Field = "city"
	FieldState             Field = "state"
	FieldZip               Field = "zip"
	FieldInsuranceProvider Field = "insuranceProvider"
	FieldMemberID          Field = "memberId"
	FieldReason            Field = "reason"
	FieldAllergies         Field = "allergies"
	FieldConsentTerms      Field = "consentTerms"
	FieldConsentTreatment  Field = "consentTreatment"
)

// allFields is the form order.
var allFields = []Field{
	FieldFullName, FieldEmail, FieldPhone, FieldDOB, FieldSex,
	FieldAddress1, FieldCity, FieldState, FieldZip,
	FieldInsuranceProvider, FieldMemberID,
	FieldReason, FieldAllergies,
	FieldConsentTerms, FieldConsentTreatment,
}

var fieldOrder = func() map[Field]int {
	m := make(map[Field]int, len(allFields))
	for i, f := range allFields {
		m[f] = i
	}
	return m
}()

// ParseField resolves a field name as used in form posts and JSON.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if _, ok := fieldOrder[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// IsBool reports whether the field is a checkbox.
func (f Field) IsBool() bool {
	return f == FieldConsentTerms || f == FieldConsentTreatment
}

type updateKind int

const (
	kindInvalid updateKind = iota
	kindText
	kindBool
)

// FieldUpdate is a single typed change to a Draft. Build one with SetText or
// SetChecked; the zero value is rejected.
type FieldUpdate struct {
	Field   Field
	Text    string
	Checked bool
	kind    updateKind
}

// SetText replaces a text field's value verbatim.
func SetText(f Field, value string) FieldUpdate {
	return FieldUpdate{Field: f, Text: value, kind: kindText}
}

// SetChecked sets a checkbox field.
func SetChecked(f Field, checked bool) FieldUpdate {
	return FieldUpdate{Field: f, Checked: checked, kind: kindBool}
}

// Toggle flips a checkbox field relative to the given draft.
func Toggle(d Draft, f Field) FieldUpdate {
	return SetChecked(f, !d.checked(f))
}

func (d Draft) checked(f Field) bool {
	switch f {
	case FieldConsentTerms:
		return d.ConsentTerms
	case FieldConsentTreatment:
		return d.ConsentTreatment
	}
	return false
}

// With returns a copy of d with u applied.
func (d Draft) With(u FieldUpdate) (Draft, error) {
	if _, ok := fieldOrder[u.Field]; !ok {
		return d, fmt.Errorf("%w: %q", ErrUnknownField, u.Field)
	}
	if u.Field.IsBool() {
		if u.kind != kindBool {
			return d, fmt.Errorf("%w: %s expects a checkbox value", ErrFieldKind, u.Field)
		}
		switch u.Field {
		case FieldConsentTerms:
			d.ConsentTerms = u.Checked
		case FieldConsentTreatment:
			d.ConsentTreatment = u.Checked
		}
		return d, nil
	}
	if u.kind != kindText {
		return d, fmt.Errorf("%w: %s expects a text value", ErrFieldKind, u.Field)
	}

	switch u.Field {
	case FieldFullName:
		d.FullName = u.Text
	case FieldEmail:
		d.Email = u.Text
	case FieldPhone:
		d.Phone = u.Text
	case FieldDOB:
		d.DOB = u.Text
	case FieldSex:
		sex, err := ParseSex(u.Text)
		if err != nil {
			return d, err
		}
		d.Sex = sex
	case FieldAddress1:
		d.Address1 = u.Text
	case FieldCity:
		d.City = u.Text
	case FieldState:
		d.State = u.Text
	case FieldZip:
		d.Zip = u.Text
	case FieldInsuranceProvider:
		d.InsuranceProvider = u.Text
	case FieldMemberID:
		d.MemberID = u.Text
	case FieldReason:
		d.Reason = u.Text
	case FieldAllergies:
		d.Allergies = u.Text
	}
	return d, nil
}

// Value returns the text value of a field, or "" for checkbox fields.
func (d Draft) Value(f Field) string {
	switch f {
	case FieldFullName:
		return d.FullName
	case FieldEmail:
		return d.Email
	case FieldPhone:
		return d.Phone
	case FieldDOB:
		return d.DOB
	case FieldSex:
		return string(d.Sex)
	case FieldAddress1:
		return d.Address1
	case FieldCity:
		return d.City
	case FieldState:
		return d.State
	case FieldZip:
		return d.Zip
	case FieldInsuranceProvider:
		return d.InsuranceProvider
	case FieldMemberID:
		return d.MemberID
	case FieldReason:
		return d.Reason
	case FieldAllergies:
		return d.Allergies
	}
	return ""
}

// Checked returns the value of a checkbox field, or false for text fields.
func (d Draft) Checked(f Field) bool {
	return d.checked(f)
}

// ErrorMap maps a field to its validation message. A missing entry means the
// field is valid.
type ErrorMap map[Field]string

// Valid reports whether there are no errors.
func (m ErrorMap) Valid() bool {
	return len(m) == 0
}

// Fields returns the fields with errors in form order.
func (m ErrorMap) Fields() []Field {
	out := make([]Field, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return fieldOrder[out[i]] < fieldOrder[out[j]]
	})
	return out
}

func (m ErrorMap) clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
