package augment

import (
	"errors"
	"testing"
)

func TestValidatePasswordOrder(t *testing.T) {
	cases := []struct {
		password string
		want     string
	}{
		{"Ab1!", MsgPasswordLength},
		{"abcdefg1!", MsgPasswordUppercase},
		{"ABCDEFG1!", MsgPasswordLowercase},
		{"Abcdefgh!", MsgPasswordDigit},
		{"Abcdefg12", MsgPasswordSpecial},
		{"Abcdefg1!", ""},
		{"Abcdefg1\"", ""},
		{"Ab1!\U0001F600\U0001F600", ""},
		{"Ab1!\U0001F600", MsgPasswordLength},
	}
	for _, tc := range cases {
		err := ValidatePassword(tc.password)
		if tc.want == "" {
			if err != nil {
				t.Fatalf("%q: unexpected error %v", tc.password, err)
			}
			continue
		}
		var verr ValidationError
		if !errors.As(err, &verr) || verr.Message != tc.want || verr.Field != "password" {
			t.Fatalf("%q: got %v, want %q", tc.password, err, tc.want)
		}
	}
}

func TestPasswordStrength(t *testing.T) {
	if ok, msg := PasswordStrength("Passw0rd!"); !ok || msg != MsgPasswordValid {
		t.Fatalf("unexpected %v %q", ok, msg)
	}
	if ok, msg := PasswordStrength("password"); ok || msg != MsgPasswordUppercase {
		t.Fatalf("unexpected %v %q", ok, msg)
	}
}

func TestValidateEmail(t *testing.T) {
	for _, good := range []string{"a@b.co", "first.last+tag@example.org"} {
		if err := ValidateEmail(good); err != nil {
			t.Fatalf("%q: %v", good, err)
		}
	}
	for _, bad := range []string{
		"", "plain", "a@b", "a b@c.de", "@b.co",
		"a\vb@c.com", "a\u00a0b@c.com", "a\u2003b@c.com", "a@c\u3000d.com", "a@c.co\ufeff", "a\u2028b@c.com",
	} {
		if err := ValidateEmail(bad); err == nil || err.Error() != MsgInvalidEmail {
			t.Fatalf("%q: expected %q, got %v", bad, MsgInvalidEmail, err)
		}
	}
}

func TestOTP(t *testing.T) {
	if got := SanitizeOTP("12a3-45 678"); got != "123456" {
		t.Fatalf("SanitizeOTP = %q", got)
	}
	if got := SanitizeOTP("abc"); got != "" {
		t.Fatalf("SanitizeOTP = %q", got)
	}
	for _, ok := range []string{"000000", "123456"} {
		if err := ValidateOTP(ok); err != nil {
			t.Fatalf("%q: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "12345", "1234567", "12345a", "١٢٣٤٥٦"} {
		if err := ValidateOTP(bad); err == nil || err.Error() != MsgInvalidOTP {
			t.Fatalf("%q: expected %q, got %v", bad, MsgInvalidOTP, err)
		}
	}
}

func TestValidateUpload(t *testing.T) {
	cases := []struct {
		name   string
		upload Upload
		want   string
	}{
		{"missing", Upload{}, MsgNoImage},
		{"gif", Upload{Name: "a.gif", Size: 1 << 20, Open: emptyOpen}, MsgInvalidFileType},
		{"no extension", Upload{Name: "image", Size: 10, Open: emptyOpen}, MsgInvalidFileType},
		{"too large", Upload{Name: "a.jpg", Size: 20 << 20, Open: emptyOpen}, MsgFileTooLarge},
		{"exact limit", Upload{Name: "a.jpeg", Size: MaxUploadSize, Open: emptyOpen}, ""},
		{"upper case", Upload{Name: "A.PNG", Size: 1 << 20, Open: emptyOpen}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateUpload(tc.upload)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err == nil || err.Error() != tc.want {
				t.Fatalf("got %v, want %q", err, tc.want)
			}
		})
	}
}

func TestValidateOperation(t *testing.T) {
	cases := []struct {
		name string
		op   Operation
		want string
	}{
		{"angle low", RotateOp{Angle: -1}, "Angle must be between 0 and 360 degrees."},
		{"angle edge", RotateOp{Angle: 360}, ""},
		{"scale low", ScaleOp{Factor: 0.05}, "Scale factor must be between 0.1 and 2.0."},
		{"scale high", ScaleOp{Factor: 2.1}, "Scale factor must be between 0.1 and 2.0."},
		{"flip", FlipOp{Direction: "diagonal"}, "Flip direction must be horizontal or vertical."},
		{"brightness", AdvancedOp{Brightness: 3.5, Contrast: 1, Saturation: 1}, "Brightness must be between 0.1 and 3.0."},
		{"saturation", AdvancedOp{Brightness: 1, Contrast: 1, Saturation: 0}, "Saturation must be between 0.1 and 3.0."},
		{"advanced defaults", DefaultAdvanced(), ""},
		{"count 1", RotationBatchOp{Count: 1}, "Please enter a number between 2 and 360"},
		{"count 2", RotationBatchOp{Count: 2}, ""},
		{"count 360", RotationBatchOp{Count: 360}, ""},
		{"count 361", RotationBatchOp{Count: 361}, "Please enter a number between 2 and 360"},
		{"random", RandomOp{}, ""},
		{"nil", nil, "Operation is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateOperation(tc.op)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err == nil || err.Error() != tc.want {
				t.Fatalf("got %v, want %q", err, tc.want)
			}
		})
	}
	if got := (RotationBatchOp{Count: 36}).Interval(); got != 10 {
		t.Fatalf("interval = %v", got)
	}
}
