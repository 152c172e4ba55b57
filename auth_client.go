package augment

import (
	"context"
	"net/http"
	"strings"

	"github.com/augmentlab/augment-go/routes"
)

// Credentials encapsulates email/password inputs for register and login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OTPVerification confirms an email address with the emailed passcode.
type OTPVerification struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// MessageResponse is the confirmation body of register and verify-otp.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse carries the session token issued on login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// ProfileResponse identifies the account behind a bearer token.
type ProfileResponse struct {
	LoggedInAs string `json:"logged_in_as"`
}

// AuthClient wraps the account endpoints.
type AuthClient struct {
	client *Client
}

func (a *AuthClient) ensureInitialized() error {
	if a == nil || a.client == nil {
		return ConfigError{Reason: "auth client not initialized"}
	}
	return nil
}

// Register creates an unverified account; the server emails an OTP.
// Calling it again for a pending account is how a new code is requested.
func (a *AuthClient) Register(ctx context.Context, creds Credentials) (MessageResponse, error) {
	if err := a.ensureInitialized(); err != nil {
		return MessageResponse{}, err
	}
	if err := ValidateCredentials(creds); err != nil {
		return MessageResponse{}, err
	}
	var resp MessageResponse
	if err := a.client.sendAndDecode(ctx, http.MethodPost, routes.Register, creds, &resp); err != nil {
		return MessageResponse{}, err
	}
	return resp, nil
}

// Login exchanges credentials for an access token. An unverified account
// fails with an APIError for which IsUnverifiedEmail reports true.
func (a *AuthClient) Login(ctx context.Context, creds Credentials) (LoginResponse, error) {
	if err := a.ensureInitialized(); err != nil {
		return LoginResponse{}, err
	}
	if err := ValidateCredentials(creds); err != nil {
		return LoginResponse{}, err
	}
	var resp LoginResponse
	if err := a.client.sendAndDecode(ctx, http.MethodPost, routes.Login, creds, &resp); err != nil {
		return LoginResponse{}, err
	}
	if strings.TrimSpace(resp.AccessToken) == "" {
		return LoginResponse{}, TransportError{Kind: TransportErrorEmptyResponse, Message: "login response missing access_token"}
	}
	return resp, nil
}

// VerifyOTP confirms the account's email address.
func (a *AuthClient) VerifyOTP(ctx context.Context, req OTPVerification) (MessageResponse, error) {
	if err := a.ensureInitialized(); err != nil {
		return MessageResponse{}, err
	}
	if err := ValidateEmail(req.Email); err != nil {
		return MessageResponse{}, err
	}
	if err := ValidateOTP(req.OTP); err != nil {
		return MessageResponse{}, err
	}
	var resp MessageResponse
	if err := a.client.sendAndDecode(ctx, http.MethodPost, routes.VerifyOTP, req, &resp); err != nil {
		return MessageResponse{}, err
	}
	return resp, nil
}

// Profile returns the identity of the current session.
func (a *AuthClient) Profile(ctx context.Context) (ProfileResponse, error) {
	if err := a.ensureInitialized(); err != nil {
		return ProfileResponse{}, err
	}
	var resp ProfileResponse
	if err := a.client.sendAndDecode(ctx, http.MethodGet, routes.Profile, nil, &resp); err != nil {
		return ProfileResponse{}, err
	}
	return resp, nil
}
