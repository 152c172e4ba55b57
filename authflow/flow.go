// Package authflow is the two-step credential/OTP state machine behind the
// authentication view: login, registration, email verification and resend.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	augment "github.com/augmentlab/augment-go"
)

// Mode selects which credential endpoint a submit calls.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

// Step is the position in the flow.
type Step int

const (
	StepCredentials Step = iota
	StepOTPPending
)

func (s Step) String() string {
	if s == StepOTPPending {
		return "otp"
	}
	return "credentials"
}

// Messages shown when the server does not supply its own text.
const (
	MsgRegistered       = "Registration successful! Check your email for OTP."
	MsgVerified         = "Email verified successfully!"
	MsgVerifyFailed     = "Invalid or expired OTP. Please request a new one by registering again."
	MsgResent           = "OTP resent successfully! Check your email."
	MsgResendFailed     = "Failed to resend OTP"
	MsgSomethingWrong   = "Something went wrong"
	MsgSessionNotStored = "Could not store the session token"
)

// ErrNotPending is returned by Resend outside the OTP step.
var ErrNotPending = errors.New("authflow: no verification pending")

// API is the subset of augment.AuthClient the flow calls.
type API interface {
	Register(ctx context.Context, creds augment.Credentials) (augment.MessageResponse, error)
	Login(ctx context.Context, creds augment.Credentials) (augment.LoginResponse, error)
	VerifyOTP(ctx context.Context, req augment.OTPVerification) (augment.MessageResponse, error)
}

// TokenSaver persists the token issued on login.
type TokenSaver interface {
	Save(token string) error
}

// Navigator receives the redirect issued after a successful login.
type Navigator interface {
	NavigateToDashboard()
}

// State is a snapshot of everything the auth view renders.
type State struct {
	Mode     Mode
	Step     Step
	Email    string
	Password string
	OTP      string
	// Error and Info are the inline error and confirmation texts.
	Error string
	Info  string
	// PasswordHint is the live strength message; empty when no password.
	PasswordHint      string
	PasswordHintValid bool
	Request           augment.RequestState
}

// Flow owns the auth view state. Methods are safe for concurrent use; at
// most one request is in flight at a time.
type Flow struct {
	api    API
	tokens TokenSaver
	nav    Navigator
	gate   augment.Gate

	mu    sync.Mutex
	state State
}

// New starts a flow in Credentials/Login.
func New(api API, tokens TokenSaver, nav Navigator) *Flow {
	return &Flow{api: api, tokens: tokens, nav: nav}
}

// State returns a snapshot of the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) update(fn func(*State)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.state)
}

// SetEmail replaces the email draft.
func (f *Flow) SetEmail(email string) {
	f.update(func(s *State) { s.Email = email })
}

// SetPassword replaces the password draft and refreshes the strength hint.
func (f *Flow) SetPassword(password string) {
	f.update(func(s *State) {
		s.Password = password
		if password == "" {
			s.PasswordHint, s.PasswordHintValid = "", false
			return
		}
		s.PasswordHintValid, s.PasswordHint = augment.PasswordStrength(password)
	})
}

// SetOTP stores input with non-digits removed, truncated to six digits.
func (f *Flow) SetOTP(input string) {
	f.update(func(s *State) { s.OTP = augment.SanitizeOTP(input) })
}

// SwitchMode toggles login/register and resets to the credentials step,
// clearing otp, password, error and info whatever the current step.
func (f *Flow) SwitchMode() error {
	release, err := f.gate.Enter()
	if err != nil {
		return err
	}
	defer release()
	f.update(func(s *State) {
		if s.Mode == ModeLogin {
			s.Mode = ModeRegister
		} else {
			s.Mode = ModeLogin
		}
		s.Step = StepCredentials
		s.OTP = ""
		s.Password = ""
		s.PasswordHint, s.PasswordHintValid = "", false
		s.Error = ""
		s.Info = ""
		s.Request = augment.RequestState{}
	})
	return nil
}

// SubmitLabel is the caption of the primary button.
func (f *Flow) SubmitLabel() string {
	s := f.State()
	switch {
	case s.Request.Pending():
		return "Processing..."
	case s.Step == StepOTPPending:
		return "Verify OTP"
	case s.Mode == ModeRegister:
		return "Send OTP"
	default:
		return "Sign In"
	}
}

// Submit runs the transition for the current step and mode. Local
// validation failures never reach the API. The returned error is also
// reflected in State().Error.
func (f *Flow) Submit(ctx context.Context) error {
	release, err := f.gate.Enter()
	if err != nil {
		return err
	}
	defer release()

	s := f.State()
	switch s.Step {
	case StepCredentials:
		switch s.Mode {
		case ModeLogin:
			return f.login(ctx, s)
		case ModeRegister:
			return f.register(ctx, s)
		}
	case StepOTPPending:
		return f.verify(ctx, s)
	}
	return fmt.Errorf("authflow: unhandled state %s/%s", s.Step, s.Mode)
}

// Resend asks the server for a fresh OTP by registering again.
func (f *Flow) Resend(ctx context.Context) error {
	release, err := f.gate.Enter()
	if err != nil {
		return err
	}
	defer release()

	s := f.State()
	if s.Step != StepOTPPending {
		return ErrNotPending
	}
	creds := augment.Credentials{Email: s.Email, Password: s.Password}
	if err := augment.ValidateCredentials(creds); err != nil {
		f.fail(err, "")
		return err
	}
	f.begin()
	if _, err := f.api.Register(ctx, creds); err != nil {
		f.fail(err, MsgResendFailed)
		return err
	}
	f.update(func(s *State) {
		s.Info = MsgResent
		s.Error = ""
		s.Request = augment.RequestState{Status: augment.RequestSucceeded}
	})
	return nil
}

func (f *Flow) begin() {
	f.update(func(s *State) {
		s.Error = ""
		s.Request = augment.RequestState{Status: augment.RequestPending}
	})
}

func (f *Flow) fail(err error, fallback string) {
	msg := augment.ErrorMessage(err, fallback)
	f.update(func(s *State) {
		s.Error = msg
		s.Request = augment.Failed(msg)
	})
}

func (f *Flow) login(ctx context.Context, s State) error {
	creds := augment.Credentials{Email: s.Email, Password: s.Password}
	if err := augment.ValidateCredentials(creds); err != nil {
		f.fail(err, "")
		return err
	}
	f.begin()
	resp, err := f.api.Login(ctx, creds)
	if err != nil {
		f.fail(err, MsgSomethingWrong)
		if augment.IsUnverifiedEmail(err) {
			f.update(func(s *State) {
				s.Mode = ModeRegister
				s.Step = StepOTPPending
			})
		}
		return err
	}
	if err := f.tokens.Save(resp.AccessToken); err != nil {
		f.fail(err, MsgSessionNotStored)
		return err
	}
	f.update(func(s *State) {
		s.Request = augment.RequestState{Status: augment.RequestSucceeded}
	})
	if f.nav != nil {
		f.nav.NavigateToDashboard()
	}
	return nil
}

func (f *Flow) register(ctx context.Context, s State) error {
	creds := augment.Credentials{Email: s.Email, Password: s.Password}
	if err := augment.ValidateCredentials(creds); err != nil {
		f.fail(err, "")
		return err
	}
	f.begin()
	resp, err := f.api.Register(ctx, creds)
	if err != nil {
		f.fail(err, MsgSomethingWrong)
		return err
	}
	f.update(func(s *State) {
		s.Info = orDefault(resp.Message, MsgRegistered)
		s.Error = ""
		s.Step = StepOTPPending
		s.Request = augment.RequestState{Status: augment.RequestSucceeded}
	})
	return nil
}

func (f *Flow) verify(ctx context.Context, s State) error {
	if err := augment.ValidateOTP(s.OTP); err != nil {
		f.fail(err, "")
		return err
	}
	f.begin()
	resp, err := f.api.VerifyOTP(ctx, augment.OTPVerification{Email: s.Email, OTP: s.OTP})
	if err != nil {
		f.fail(err, MsgVerifyFailed)
		f.update(func(s *State) { s.Info = "" })
		return err
	}
	f.update(func(s *State) {
		s.Info = orDefault(resp.Message, MsgVerified)
		s.Error = ""
		s.Step = StepCredentials
		s.Mode = ModeLogin
		s.OTP = ""
		s.Password = ""
		s.PasswordHint, s.PasswordHintValid = "", false
		s.Request = augment.RequestState{Status: augment.RequestSucceeded}
	})
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
