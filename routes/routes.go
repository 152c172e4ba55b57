// Package routes provides the API route constants of the augmentation service
// so the client and its test backend cannot drift apart.
package routes

const (
	// Register creates an unverified account and emails a one-time passcode.
	Register = "/register"

	// Login exchanges verified credentials for an access token.
	Login = "/login"

	// VerifyOTP marks an account's email as verified.
	VerifyOTP = "/verify-otp"

	// Profile returns the identity behind the bearer token.
	Profile = "/profile"

	// AugmentBasic applies a single geometric operation (rotate, scale, flip).
	AugmentBasic = "/augment/basic"

	// AugmentAdvanced applies photometric adjustments.
	AugmentAdvanced = "/augment/advanced"

	// AugmentRotate returns a zip archive of evenly rotated copies.
	AugmentRotate = "/augment/rotate"

	// AugmentRandom applies a random composition of augmentations.
	AugmentRandom = "/augment/random"
)

// Public reports whether a route is served without a bearer token.
func Public(path string) bool {
	switch path {
	case Register, Login:
		return true
	default:
		return false
	}
}
