package authflow

import (
	"context"
	"errors"
	"net/http"
	"testing"

	augment "github.com/augmentlab/augment-go"
	"github.com/augmentlab/augment-go/session"
)

type recordingNav struct{ dashboard int }

func (r *recordingNav) NavigateToDashboard() { r.dashboard++ }

func newFlow(t *testing.T, mock *augment.MockClient) (*Flow, *session.Session, *recordingNav) {
	t.Helper()
	sess := session.New(session.NewMemoryStore())
	nav := &recordingNav{}
	return New(mock.Auth, sess, nav), sess, nav
}

func TestRegisterThenWrongOTPStaysPending(t *testing.T) {
	mock := augment.NewMockClient().
		WithRegister(augment.MessageResponse{Message: "User registered successfully. Please check your email for OTP to verify."}, nil).
		WithVerifyOTP(augment.MessageResponse{}, augment.APIError{Status: http.StatusBadRequest, Message: "Invalid or expired OTP..."})
	flow, _, _ := newFlow(t, mock)

	if err := flow.SwitchMode(); err != nil {
		t.Fatalf("switch mode: %v", err)
	}
	flow.SetEmail("a@b.com")
	flow.SetPassword("Abcdef1!")
	if err := flow.Submit(context.Background()); err != nil {
		t.Fatalf("register submit: %v", err)
	}
	st := flow.State()
	if st.Step != StepOTPPending || st.Mode != ModeRegister {
		t.Fatalf("expected otp step in register mode, got %s/%s", st.Step, st.Mode)
	}
	if st.Info != "User registered successfully. Please check your email for OTP to verify." {
		t.Fatalf("expected server confirmation, got %q", st.Info)
	}

	flow.SetOTP("000000")
	err := flow.Submit(context.Background())
	if err == nil {
		t.Fatalf("expected verify failure")
	}
	st = flow.State()
	if st.Step != StepOTPPending {
		t.Fatalf("expected to remain in otp step, got %s", st.Step)
	}
	if st.Error != "Invalid or expired OTP..." {
		t.Fatalf("expected server message, got %q", st.Error)
	}
	if st.OTP != "000000" {
		t.Fatalf("otp must be unchanged, got %q", st.OTP)
	}
	if st.Request.Status != augment.RequestFailed {
		t.Fatalf("expected failed request state, got %s", st.Request.Status)
	}
}

func TestVerifySuccessReturnsToLogin(t *testing.T) {
	mock := augment.NewMockClient().
		WithRegister(augment.MessageResponse{}, nil).
		WithVerifyOTP(augment.MessageResponse{}, nil)
	flow, _, _ := newFlow(t, mock)
	_ = flow.SwitchMode()
	flow.SetEmail("a@b.com")
	flow.SetPassword("Abcdef1!")
	if err := flow.Submit(context.Background()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := flow.State().Info; got != MsgRegistered {
		t.Fatalf("expected default register message, got %q", got)
	}
	flow.SetOTP("123456")
	if err := flow.Submit(context.Background()); err != nil {
		t.Fatalf("verify: %v", err)
	}
	st := flow.State()
	if st.Step != StepCredentials || st.Mode != ModeLogin {
		t.Fatalf("expected credentials/login, got %s/%s", st.Step, st.Mode)
	}
	if st.OTP != "" || st.Password != "" {
		t.Fatalf("expected otp and password cleared, got %q %q", st.OTP, st.Password)
	}
	if st.Info != MsgVerified || st.Error != "" {
		t.Fatalf("unexpected messages info=%q error=%q", st.Info, st.Error)
	}
	if st.Email != "a@b.com" {
		t.Fatalf("email should be kept for login, got %q", st.Email)
	}
}

func TestLoginStoresTokenAndNavigates(t *testing.T) {
	mock := augment.NewMockClient().WithLogin(augment.LoginResponse{AccessToken: "jwt-token"}, nil)
	flow, sess, nav := newFlow(t, mock)
	flow.SetEmail("a@b.com")
	flow.SetPassword("Abcdef1!")

	if err := flow.Submit(context.Background()); err != nil {
		t.Fatalf("login: %v", err)
	}
	tok, _ := sess.CurrentToken()
	if tok != "jwt-token" {
		t.Fatalf("expected token stored, got %q", tok)
	}
	if nav.dashboard != 1 {
		t.Fatalf("expected one dashboard navigation, got %d", nav.dashboard)
	}
}

func TestLoginUnverifiedMovesToOTP(t *testing.T) {
	unverified := augment.APIError{Status: http.StatusUnauthorized, Message: "Email not verified. Please verify your email before logging in."}
	mock := augment.NewMockClient().
		WithLogin(augment.LoginResponse{}, unverified).
		WithRegister(augment.MessageResponse{}, nil)
	flow, sess, nav := newFlow(t, mock)
	flow.SetEmail("a@b.com")
	flow.SetPassword("Abcdef1!")

	if err := flow.Submit(context.Background()); err == nil {
		t.Fatalf("expected login failure")
	}
	st := flow.State()
	if st.Step != StepOTPPending || st.Mode != ModeRegister {
		t.Fatalf("expected otp/register, got %s/%s", st.Step, st.Mode)
	}
	if st.Error != unverified.Message {
		t.Fatalf("expected server error shown, got %q", st.Error)
	}
	if sess.Authenticated() || nav.dashboard != 0 {
		t.Fatalf("failed login must not create a session")
	}

	if err := flow.Resend(context.Background()); err != nil {
		t.Fatalf("resend: %v", err)
	}
	st = flow.State()
	if st.Info != MsgResent || st.Step != StepOTPPending {
		t.Fatalf("unexpected state after resend: %+v", st)
	}
	if mock.Auth.Calls("register") != 1 {
		t.Fatalf("expected resend to call register once, got %d", mock.Auth.Calls("register"))
	}
}

func TestLoginOtherFailureStaysOnCredentials(t *testing.T) {
	mock := augment.NewMockClient().
		WithLogin(augment.LoginResponse{}, augment.APIError{Status: http.StatusUnauthorized, Message: "Invalid email or password"})
	flow, _, _ := newFlow(t, mock)
	flow.SetEmail("a@b.com")
	flow.SetPassword("Abcdef1!")
	_ = flow.Submit(context.Background())
	st := flow.State()
	if st.Step != StepCredentials || st.Mode != ModeLogin || st.Error != "Invalid email or password" {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestTransportFailureShowsFallback(t *testing.T) {
	mock := augment.NewMockClient().
		WithLogin(augment.LoginResponse{}, augment.TransportError{Kind: augment.TransportErrorConnect, Message: "request failed"})
	flow, _, _ := newFlow(t, mock)
	flow.SetEmail("a@b.com")
	flow.SetPassword("Abcdef1!")
	_ = flow.Submit(context.Background())
	if got := flow.State().Error; got != MsgSomethingWrong {
		t.Fatalf("expected generic fallback, got %q", got)
	}
}

func TestRegisterFailureStaysOnCredentials(t *testing.T) {
	mock := augment.NewMockClient().
		WithRegister(augment.MessageResponse{}, augment.APIError{Status: http.StatusBadRequest, Message: "User already exists"})
	flow, _, _ := newFlow(t, mock)
	_ = flow.SwitchMode()
	flow.SetEmail("a@b.com")
	flow.SetPassword("Abcdef1!")
	_ = flow.Submit(context.Background())
	st := flow.State()
	if st.Step != StepCredentials || st.Error != "User already exists" {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestLocalValidationBlocksNetwork(t *testing.T) {
	cases := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{"bad email", "not-an-email", "Abcdef1!", augment.MsgInvalidEmail},
		{"missing tld", "a@b", "Abcdef1!", augment.MsgInvalidEmail},
		{"short password", "a@b.com", "Ab1!", augment.MsgPasswordLength},
		{"no uppercase", "a@b.com", "abcdef1!", augment.MsgPasswordUppercase},
		{"no special", "a@b.com", "Abcdefg1", augment.MsgPasswordSpecial},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := augment.NewMockClient()
			flow, _, _ := newFlow(t, mock)
			flow.SetEmail(tc.email)
			flow.SetPassword(tc.password)
			err := flow.Submit(context.Background())
			if !augment.IsValidationError(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := flow.State().Error; got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
			if mock.Auth.Calls("login") != 0 {
				t.Fatalf("no network call expected")
			}
		})
	}
}

func TestInvalidOTPBlocksVerify(t *testing.T) {
	mock := augment.NewMockClient().WithRegister(augment.MessageResponse{}, nil)
	flow, _, _ := newFlow(t, mock)
	_ = flow.SwitchMode()
	flow.SetEmail("a@b.com")
	flow.SetPassword("Abcdef1!")
	_ = flow.Submit(context.Background())

	flow.SetOTP("12a3")
	if err := flow.Submit(context.Background()); !augment.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if flow.State().Error != augment.MsgInvalidOTP {
		t.Fatalf("unexpected error %q", flow.State().Error)
	}
	if mock.Auth.Calls("verify-otp") != 0 {
		t.Fatalf("verify must not be called")
	}
}

func TestSetOTPSanitizes(t *testing.T) {
	flow, _, _ := newFlow(t, augment.NewMockClient())
	flow.SetOTP("12a3b45")
	if got := flow.State().OTP; got != "12345" {
		t.Fatalf("expected 12345, got %q", got)
	}
	flow.SetOTP("1234567")
	if got := flow.State().OTP; got != "123456" {
		t.Fatalf("expected 123456, got %q", got)
	}
}

func TestSwitchModeResetsTransientFields(t *testing.T) {
	mock := augment.NewMockClient().
		WithRegister(augment.MessageResponse{Message: "sent"}, nil)
	flow, _, _ := newFlow(t, mock)
	_ = flow.SwitchMode()
	flow.SetEmail("a@b.com")
	flow.SetPassword("Abcdef1!")
	_ = flow.Submit(context.Background())
	flow.SetOTP("99")

	if err := flow.SwitchMode(); err != nil {
		t.Fatalf("switch: %v", err)
	}
	st := flow.State()
	if st.Step != StepCredentials || st.Mode != ModeLogin {
		t.Fatalf("expected credentials/login, got %s/%s", st.Step, st.Mode)
	}
	if st.OTP != "" || st.Password != "" || st.Error != "" || st.Info != "" || st.PasswordHint != "" {
		t.Fatalf("expected transient fields cleared, got %+v", st)
	}
	if st.Email != "a@b.com" {
		t.Fatalf("email is not transient, got %q", st.Email)
	}
}

func TestResendOutsideOTPStep(t *testing.T) {
	flow, _, _ := newFlow(t, augment.NewMockClient())
	if err := flow.Resend(context.Background()); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestPasswordHintAndLabels(t *testing.T) {
	flow, _, _ := newFlow(t, augment.NewMockClient())
	if flow.SubmitLabel() != "Sign In" {
		t.Fatalf("unexpected label %q", flow.SubmitLabel())
	}
	flow.SetPassword("abc")
	st := flow.State()
	if st.PasswordHintValid || st.PasswordHint != augment.MsgPasswordLength {
		t.Fatalf("unexpected hint %+v", st)
	}
	flow.SetPassword("Abcdef1!")
	if st := flow.State(); !st.PasswordHintValid || st.PasswordHint != augment.MsgPasswordValid {
		t.Fatalf("unexpected hint %+v", st)
	}
	flow.SetPassword("")
	if flow.State().PasswordHint != "" {
		t.Fatalf("hint should clear with empty password")
	}
	_ = flow.SwitchMode()
	if flow.SubmitLabel() != "Send OTP" {
		t.Fatalf("unexpected label %q", flow.SubmitLabel())
	}
}
