package validation

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last+tag@sub.domain.pk",
		"UPPER@EXAMPLE.COM",
	}
	for _, email := range valid {
		if !ValidateEmail(email) {
			t.Errorf("expected %q to be valid", email)
		}
	}

	invalid := []string{
		"",
		"plainstring",
		"@example.com",
		"user@",
		"user@domain",
		"user @example.com",
	}
	for _, email := range invalid {
		if ValidateEmail(email) {
			t.Errorf("expected %q to be invalid", email)
		}
	}
}

func TestFingerprintTag(t *testing.T) {
	type payload struct {
		Fingerprint string `validate:"required,fingerprint"`
	}

	v := NewValidator()

	good := []string{
		"abcdef0123456789",
		"a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90",
	}
	for _, fp := range good {
		if err := v.ValidateStruct(payload{Fingerprint: fp}); err != nil {
			t.Errorf("expected %q to pass: %v", fp, err)
		}
	}

	bad := []string{
		"",
		"short1",
		"ABCDEF0123456789",  // uppercase hex rejected
		"ghijkl0123456789",  // non-hex characters
		"abcdef 0123456789", // whitespace
	}
	for _, fp := range bad {
		if err := v.ValidateStruct(payload{Fingerprint: fp}); err == nil {
			t.Errorf("expected %q to fail", fp)
		}
	}
}

func TestFormatValidationErrors(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
		Name  string `validate:"required,min=2"`
	}

	v := NewValidator()
	err := v.ValidateStruct(payload{Email: "not-an-email", Name: ""})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	fields := FormatValidationErrors(err)
	if fields["email"] == "" {
		t.Error("expected an error message for email")
	}
	if fields["name"] == "" {
		t.Error("expected an error message for name")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello\x00world  "); got != "helloworld" {
		t.Errorf("SanitizeString = %q", got)
	}
	if got := SanitizeString("clean"); got != "clean" {
		t.Errorf("SanitizeString = %q", got)
	}
}
