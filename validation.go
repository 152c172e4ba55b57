package augment

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8
	// OTPLength is the number of digits in an emailed passcode.
	OTPLength = 6
	// MaxUploadSize caps image uploads at 15 MiB.
	MaxUploadSize = 15 * 1024 * 1024
)

// User-facing validation messages.
const (
	MsgInvalidEmail      = "Invalid email format"
	MsgPasswordLength    = "Password must be at least 8 characters long"
	MsgPasswordUppercase = "Password must contain at least one uppercase letter"
	MsgPasswordLowercase = "Password must contain at least one lowercase letter"
	MsgPasswordDigit     = "Password must contain at least one number"
	MsgPasswordSpecial   = "Password must contain at least one special character"
	MsgPasswordValid     = "Password is valid"
	MsgInvalidOTP        = "OTP must be a valid 6-digit number"
	MsgNoImage           = "Please select an image"
	MsgInvalidFileType   = "Invalid file type. Please upload a PNG, JPG, or JPEG image."
	MsgFileTooLarge      = "File is too large. Maximum size is 15MB."
)

// passwordSpecials is the accepted special-character set.
const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

// emailChar excludes '@' and every character JavaScript's \s matches,
// which is wider than RE2's \s.
const emailChar = `[^\t\n\v\f\r \x{a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}@]`

var emailPattern = regexp.MustCompile(`^` + emailChar + `+@` + emailChar + `+\.` + emailChar + `+$`)

// AllowedExtensions lists the accepted upload extensions, lower-cased.
var AllowedExtensions = []string{"png", "jpg", "jpeg"}

// ValidateEmail checks the address shape only; the server owns deliverability.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ValidationError{Field: "email", Message: MsgInvalidEmail}
	}
	return nil
}

// ValidatePassword reports the first failing rule in the order
// length, uppercase, lowercase, digit, special character. Length counts
// UTF-16 code units, so a character outside the BMP counts twice.
func ValidatePassword(password string) error {
	if len(utf16.Encode([]rune(password))) < MinPasswordLength {
		return ValidationError{Field: "password", Message: MsgPasswordLength}
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	switch {
	case !upper:
		return ValidationError{Field: "password", Message: MsgPasswordUppercase}
	case !lower:
		return ValidationError{Field: "password", Message: MsgPasswordLowercase}
	case !digit:
		return ValidationError{Field: "password", Message: MsgPasswordDigit}
	case !special:
		return ValidationError{Field: "password", Message: MsgPasswordSpecial}
	}
	return nil
}

// PasswordStrength returns the live hint shown while a password is typed.
func PasswordStrength(password string) (valid bool, message string) {
	if err := ValidatePassword(password); err != nil {
		return false, err.Error()
	}
	return true, MsgPasswordValid
}

// ValidateCredentials validates the email and then the password.
func ValidateCredentials(c Credentials) error {
	if err := ValidateEmail(c.Email); err != nil {
		return err
	}
	return ValidatePassword(c.Password)
}

// SanitizeOTP strips every non-digit and truncates to OTPLength digits.
func SanitizeOTP(input string) string {
	var b strings.Builder
	for _, r := range input {
		if b.Len() == OTPLength {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateOTP requires exactly OTPLength ASCII digits.
func ValidateOTP(otp string) error {
	if len(otp) != OTPLength {
		return ValidationError{Field: "otp", Message: MsgInvalidOTP}
	}
	for i := 0; i < len(otp); i++ {
		if otp[i] < '0' || otp[i] > '9' {
			return ValidationError{Field: "otp", Message: MsgInvalidOTP}
		}
	}
	return nil
}

// ValidateUpload checks presence, extension (case-insensitive) and size.
func ValidateUpload(u Upload) error {
	if u.IsZero() {
		return ValidationError{Field: "image", Message: MsgNoImage}
	}
	ext := u.Extension()
	allowed := false
	for _, a := range AllowedExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return ValidationError{Field: "image", Message: MsgInvalidFileType}
	}
	if u.Size > MaxUploadSize {
		return ValidationError{Field: "image", Message: MsgFileTooLarge}
	}
	return nil
}
