package onboarding

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func validDraft() Draft {
	return Draft{
		FullName:         "Jane Doe",
		Email:            "jane@x.com",
		Phone:            "5551234567",
		DOB:              "1990-01-01",
		ConsentTerms:     true,
		ConsentTreatment: true,
	}
}

func TestValidate_EmptyDraft(t *testing.T) {
	got := Validate(Draft{})
	want := ErrorMap{
		FieldFullName:         MsgFullNameRequired,
		FieldEmail:            MsgEmailInvalid,
		FieldPhone:            MsgPhoneInvalid,
		FieldDOB:              MsgDOBRequired,
		FieldConsentTerms:     MsgConsentTerms,
		FieldConsentTreatment: MsgConsentTreatment,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Validate(empty) mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_CompleteDraft(t *testing.T) {
	got := Validate(validDraft())
	if !got.Valid() {
		t.Errorf("expected no errors, got %v", got)
	}
	if got == nil {
		t.Error("expected an empty map, got nil")
	}
}

func TestValidate_FullName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"empty", "", true},
		{"spaces", "   ", true},
		{"tabs and newlines", "\t\n", true},
		{"single letter", "J", false},
		{"padded", "  Jane  ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			d.FullName = tt.value
			_, hasErr := Validate(d)[FieldFullName]
			if hasErr != tt.wantErr {
				t.Errorf("fullName %q: expected error=%v, got %v", tt.value, tt.wantErr, hasErr)
			}
		})
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"a@b.co", true},
		{"jane.doe+tag@clinic.example.org", true},
		{"JANE@X.COM", true},
		{"a@b", false},
		{"a@@b.co", false},
		{"", false},
		{"a b@c.io", false},
		{"@b.co", false},
		{"a@b.", false},
		{"a\u00a0b@c.co", false},
		{"jane@clinic\u2028.co", false},
		{"a@b.co\u3000", false},
		{"\ufeffa@b.co", false},
		{"josé@clínica.es", true},
	}
	for _, tt := range tests {
		if got := ValidEmail(tt.input); got != tt.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValidate_EmailMessage(t *testing.T) {
	d := validDraft()
	d.Email = "a@b"
	if got := Validate(d)[FieldEmail]; got != MsgEmailInvalid {
		t.Errorf("expected %q, got %q", MsgEmailInvalid, got)
	}
}

func TestValidate_Phone(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"(555) 123-4567", true},
		{"555.123.4567", true},
		{"5551234567", true},
		{"555-123-456", false},
		{"+1 555 123 4567", false},
		{"", false},
		{"phone", false},
	}
	for _, tt := range tests {
		d := validDraft()
		d.Phone = tt.input
		_, hasErr := Validate(d)[FieldPhone]
		if hasErr == tt.valid {
			t.Errorf("phone %q: expected valid=%v", tt.input, tt.valid)
		}
		if byDigits := len(PhoneDigits(tt.input)) == 10; byDigits != tt.valid {
			t.Errorf("phone %q: digit count disagrees with validator", tt.input)
		}
	}
}

func TestPhoneDigits(t *testing.T) {
	if got := PhoneDigits("(555) 123-4567 ext"); got != "5551234567" {
		t.Errorf("expected 5551234567, got %s", got)
	}
}

func TestValidate_Consents(t *testing.T) {
	d := validDraft()
	d.ConsentTerms = false
	d.ConsentTreatment = false
	got := Validate(d)
	want := ErrorMap{
		FieldConsentTerms:     MsgConsentTerms,
		FieldConsentTreatment: MsgConsentTreatment,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("consent errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_OptionalFieldsNeverError(t *testing.T) {
	d := validDraft()
	d.Sex = SexOther
	d.Address1 = "<b>1 Main St</b>"
	d.Zip = "not-a-zip"
	d.Reason = ""
	if got := Validate(d); !got.Valid() {
		t.Errorf("expected no errors, got %v", got)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	d := Draft{FullName: "  ", Email: "x@y", Phone: "123"}
	before := d
	first := Validate(d)
	second := Validate(d)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated Validate differs (-first +second):\n%s", diff)
	}
	if d != before {
		t.Error("Validate mutated the draft")
	}
}

func TestErrorMap_FieldsInFormOrder(t *testing.T) {
	got := Validate(Draft{}).Fields()
	want := []Field{FieldFullName, FieldEmail, FieldPhone, FieldDOB, FieldConsentTerms, FieldConsentTreatment}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fields() mismatch (-want +got):\n%s", diff)
	}
}
