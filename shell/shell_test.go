package shell

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	augment "github.com/augmentlab/augment-go"
	"github.com/augmentlab/augment-go/blob"
	"github.com/augmentlab/augment-go/headers"
	"github.com/augmentlab/augment-go/routes"
	"github.com/augmentlab/augment-go/session"
	"github.com/augmentlab/augment-go/testutil"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func archive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("rotated_0.png"); err != nil {
		t.Fatalf("zip: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip: %v", err)
	}
	return buf.Bytes()
}

func signedToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestShellEndToEnd(t *testing.T) {
	const email = "user@example.com"
	token := signedToken(t, email, time.Now().Add(time.Hour))
	backend := testutil.NewBackend(t).
		On(routes.Register, testutil.Reply{JSON: map[string]string{"message": "User registered successfully. Please check your email for OTP to verify."}}).
		On(routes.VerifyOTP, testutil.Reply{Status: 400, JSON: map[string]string{"error": "Invalid or expired OTP"}}).
		On(routes.VerifyOTP, testutil.Reply{JSON: map[string]string{"message": "Email verified successfully"}}).
		On(routes.Login, testutil.Reply{JSON: map[string]string{"access_token": token}}).
		On(routes.Profile, testutil.Reply{JSON: map[string]string{"logged_in_as": email}}).
		On(routes.AugmentRotate, testutil.Reply{Body: archive(t), ContentType: "application/zip", Filename: augment.DefaultArchiveFilename})

	dir := t.TempDir()
	downloads := filepath.Join(dir, "downloads")
	img := writePNG(t, dir, "cat.png")

	sess := session.New(session.NewMemoryStore())
	client, err := augment.NewClient(augment.Config{BaseURL: backend.URL(), Tokens: sess})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	app := NewApp(Services{
		Auth:      client.Auth,
		Augment:   client.Augment,
		Session:   sess,
		Deliverer: blob.DirSaver{Dir: downloads},
	})

	script := strings.Join([]string{
		"view dashboard",
		"register " + email + " Passw0rd!",
		"otp 000000",
		"otp 123456",
		"login " + email + " Passw0rd!",
		"whoami",
		"profile",
		"tab rotation",
		"file " + img,
		"set num_images 4",
		"submit",
		"logout",
		"submit",
		"quit",
	}, "\n")
	var out bytes.Buffer
	if err := New(app, nil).Run(context.Background(), strings.NewReader(script), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Please log in first.",
		"User registered successfully",
		"error: Invalid or expired OTP",
		"Email verified successfully",
		"Logged in.",
		"Logged in as " + email,
		"Saved " + filepath.Join(downloads, augment.DefaultArchiveFilename),
		"Logged out.",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "Please log in first.") != 2 {
		t.Fatalf("expected two guard redirects:\n%s", got)
	}

	reg := backend.RequestsTo(routes.Register)
	if len(reg) != 1 || reg[0].JSON["email"] != email || reg[0].Header.Get(headers.Authorization) != "" {
		t.Fatalf("unexpected register requests %+v", reg)
	}
	verify := backend.RequestsTo(routes.VerifyOTP)
	if len(verify) != 2 || verify[0].JSON["otp"] != "000000" || verify[1].JSON["otp"] != "123456" {
		t.Fatalf("unexpected verify requests %+v", verify)
	}
	profile := backend.RequestsTo(routes.Profile)
	if len(profile) != 1 || profile[0].Header.Get(headers.Authorization) != "Bearer "+token {
		t.Fatalf("profile not authorized with session token: %+v", profile)
	}
	rotate := backend.RequestsTo(routes.AugmentRotate)
	if len(rotate) != 1 {
		t.Fatalf("expected one rotate request, got %d", len(rotate))
	}
	if rotate[0].Form["num_images"] != "4" || rotate[0].File == nil || rotate[0].File.Field != "image" || rotate[0].File.ContentType != "image/png" {
		t.Fatalf("unexpected rotate request %+v", rotate[0])
	}
	if sess.Authenticated() {
		t.Fatalf("session should be cleared after logout")
	}
	if _, err := os.Stat(filepath.Join(downloads, augment.DefaultArchiveFilename)); err != nil {
		t.Fatalf("archive missing: %v", err)
	}
}

func newMockApp(t *testing.T, mock *augment.MockClient) (*App, *session.Session, *blob.Registry) {
	t.Helper()
	sess := session.New(session.NewMemoryStore())
	reg := blob.NewRegistry()
	app := NewApp(Services{
		Auth:      mock.Auth,
		Augment:   mock.Augment,
		Session:   sess,
		Registry:  reg,
		Deliverer: blob.DirSaver{Dir: t.TempDir()},
	})
	return app, sess, reg
}

func TestGuardRedirectsWithoutSession(t *testing.T) {
	app, _, _ := newMockApp(t, augment.NewMockClient())
	if got := app.Navigate(ViewDashboard); got != ViewAuth {
		t.Fatalf("expected redirect to auth, got %s", got)
	}
	if app.Dashboard() != nil {
		t.Fatalf("dashboard must not mount without a session")
	}
}

func TestLoginNavigatesToDashboard(t *testing.T) {
	mock := augment.NewMockClient().WithLogin(augment.LoginResponse{AccessToken: "tok"}, nil)
	app, sess, _ := newMockApp(t, mock)
	app.Navigate(ViewAuth)
	flow := app.Flow()
	flow.SetEmail("user@example.com")
	flow.SetPassword("Passw0rd!")
	if err := flow.Submit(context.Background()); err != nil {
		t.Fatalf("login: %v", err)
	}
	if app.View() != ViewDashboard || app.Dashboard() == nil {
		t.Fatalf("expected dashboard, got %s", app.View())
	}
	if tok, _ := sess.CurrentToken(); tok != "tok" {
		t.Fatalf("token not stored: %q", tok)
	}
}

func TestTabsKeepStateAndUnmountReleases(t *testing.T) {
	mock := augment.NewMockClient().WithResult(augment.Result{
		Data:     []byte("\x89PNG\r\n\x1a\n"),
		Kind:     augment.ResultImage,
		Filename: augment.DefaultImageFilename,
	}, nil)
	app, sess, reg := newMockApp(t, mock)
	if err := sess.Save("tok"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := app.Navigate(ViewDashboard); got != ViewDashboard {
		t.Fatalf("expected dashboard, got %s", got)
	}
	dash := app.Dashboard()
	dash.Select(TabRandom)
	dash.Form().SelectUpload(augment.UploadFromBytes("a.png", []byte("x")))
	if _, err := dash.Form().Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	dash.Select(TabRotation)
	dash.Rotation().SetCount(12)
	dash.Select(TabRandom)
	if dash.Form().Result().IsZero() || dash.Rotation().Count() != 12 {
		t.Fatalf("tab switch lost state")
	}
	if reg.Live() != 1 {
		t.Fatalf("expected one live result, got %d", reg.Live())
	}

	if err := app.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if app.View() != ViewAuth || app.Dashboard() != nil {
		t.Fatalf("expected auth view after logout, got %s", app.View())
	}
	if reg.Live() != 0 {
		t.Fatalf("leaving the dashboard should release results, %d live", reg.Live())
	}
}

func TestProfile(t *testing.T) {
	mock := augment.NewMockClient().
		WithProfile(augment.ProfileResponse{LoggedInAs: "user@example.com"}, nil).
		WithProfile(augment.ProfileResponse{}, augment.APIError{Status: 401, Message: "Token has expired"})
	app, sess, _ := newMockApp(t, mock)

	if got := app.Profile(context.Background()); got != MsgNotAuthorized {
		t.Fatalf("expected %q without session, got %q", MsgNotAuthorized, got)
	}
	if mock.Auth.Calls("profile") != 0 {
		t.Fatalf("profile must not be requested without a session")
	}
	if err := sess.Save("tok"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := app.Profile(context.Background()); got != "user@example.com" {
		t.Fatalf("unexpected profile %q", got)
	}
	if got := app.Profile(context.Background()); got != MsgNotAuthorized {
		t.Fatalf("expected %q on failure, got %q", MsgNotAuthorized, got)
	}
}

func TestExecErrors(t *testing.T) {
	app, sess, _ := newMockApp(t, augment.NewMockClient())
	sh := New(app, nil)
	var out bytes.Buffer

	if err := sh.Exec(context.Background(), "otp 123456", &out); err == nil {
		t.Fatalf("otp outside verification should fail")
	}
	if err := sh.Exec(context.Background(), "login onlyemail", &out); !augment.IsValidationError(err) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if err := sh.Exec(context.Background(), "whoami", &out); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out.String(), "Not logged in.") {
		t.Fatalf("unexpected output %q", out.String())
	}

	if err := sess.Save("opaque"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := sh.Exec(context.Background(), "bogus", &out); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command, got %v", err)
	}
	out.Reset()
	if err := sh.Exec(context.Background(), "whoami", &out); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out.String(), "opaque token") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestLoginValidationShowsMessage(t *testing.T) {
	mock := augment.NewMockClient()
	app, _, _ := newMockApp(t, mock)
	var out bytes.Buffer
	if err := New(app, nil).Exec(context.Background(), "login not-an-email Passw0rd!", &out); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !strings.Contains(out.String(), "error: "+augment.MsgInvalidEmail) {
		t.Fatalf("unexpected output %q", out.String())
	}
	if mock.Auth.Calls("login") != 0 {
		t.Fatalf("invalid credentials reached the API")
	}
}

func TestExecBlankLine(t *testing.T) {
	app, _, _ := newMockApp(t, augment.NewMockClient())
	var out bytes.Buffer
	for _, line := range []string{"", "   ", "\t"} {
		if err := New(app, nil).Exec(context.Background(), line, &out); err != nil {
			t.Fatalf("Exec(%q): %v", line, err)
		}
	}
	if out.Len() != 0 {
		t.Fatalf("blank lines should print nothing, got %q", out.String())
	}
}
