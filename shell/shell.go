package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	augment "github.com/augmentlab/augment-go"
	"github.com/augmentlab/augment-go/auth"
	"github.com/augmentlab/augment-go/authflow"
	"github.com/augmentlab/augment-go/forms"
)

const helpText = `Commands:
  view landing|auth|dashboard   switch view (dashboard needs a session)
  register <email> <password>   create an account and email an OTP
  login <email> <password>      sign in
  otp <code>                    verify the emailed code
  resend                        email a fresh OTP
  switch                        toggle between login and register
  tab basic|rotation|random     choose the dashboard form
  file <path>                   choose the image for the active form
  set <field> <value>           change a parameter of the active form
  show                          print the active form
  submit                        send the active form
  preview                       describe the current image result
  download [name]               save the current image result
  profile                       ask the server who you are
  whoami                        decode the stored session token
  logout                        clear the session
  help                          print this text
  quit                          leave`

// Shell reads commands line by line and drives an App.
type Shell struct {
	app    *App
	logger *slog.Logger
	now    func() time.Time
}

// New returns a shell over app. A nil logger discards debug output.
func New(app *App, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Shell{app: app, logger: logger, now: time.Now}
}

// errQuit ends Run without error.
var errQuit = errors.New("quit")

// Run interprets commands from in until EOF, quit, or ctx is done.
// Command failures are printed and never end the session.
func (s *Shell) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	defer s.app.Close()
	fmt.Fprintln(out, "Image Augmentation. Type 'help' for commands.")
	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s> ", s.app.View())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := s.Exec(ctx, line, out); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(out, "error: %s\n", augment.ErrorMessage(err, err.Error()))
		}
	}
}

// Exec runs one command line.
func (s *Shell) Exec(ctx context.Context, line string, out io.Writer) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(args[0]), args[1:]
	s.logger.Debug("shell command", "cmd", cmd, "view", s.app.View().String())

	switch cmd {
	case "help", "?":
		fmt.Fprintln(out, helpText)
		return nil
	case "quit", "exit":
		return errQuit
	case "view":
		if len(args) != 1 {
			return usage("view landing|auth|dashboard")
		}
		v, err := ParseView(args[0])
		if err != nil {
			return err
		}
		if got := s.app.Navigate(v); got != v {
			fmt.Fprintln(out, "Please log in first.")
		}
		return nil
	case "register", "login":
		if len(args) != 2 {
			return usage(cmd + " <email> <password>")
		}
		want := authflow.ModeLogin
		if cmd == "register" {
			want = authflow.ModeRegister
		}
		return s.credentials(ctx, want, args[0], args[1], out)
	case "otp":
		if len(args) != 1 {
			return usage("otp <code>")
		}
		return s.otp(ctx, args[0], out)
	case "resend":
		flow := s.authView()
		err := flow.Resend(ctx)
		if errors.Is(err, authflow.ErrNotPending) {
			return err
		}
		printAuth(out, flow.State())
		return nil
	case "switch":
		flow := s.authView()
		if err := flow.SwitchMode(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Mode: %s (%s)\n", flow.State().Mode, flow.SubmitLabel())
		return nil
	case "profile":
		fmt.Fprintln(out, s.app.Profile(ctx))
		return nil
	case "whoami":
		return s.whoami(out)
	case "logout":
		err := s.app.Logout()
		fmt.Fprintln(out, "Logged out.")
		return err
	}

	dash := s.dashboard(out)
	if dash == nil {
		return nil
	}
	form := dash.Form()
	switch cmd {
	case "tab":
		if len(args) != 1 {
			return usage("tab basic|rotation|random")
		}
		t, err := ParseTab(args[0])
		if err != nil {
			return err
		}
		dash.Select(t)
		printForm(out, dash.Form())
		return nil
	case "file":
		if len(args) != 1 {
			return usage("file <path>")
		}
		return form.SelectFile(args[0])
	case "set":
		if len(args) != 2 {
			return usage("set <field> <value>")
		}
		return form.Set(args[0], args[1])
	case "show":
		printForm(out, form)
		return nil
	case "submit":
		return s.submit(ctx, form, out)
	case "preview":
		p, err := form.Preview()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, p)
		return nil
	case "download":
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		path, err := form.Download(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %s\n", path)
		return nil
	}
	return fmt.Errorf("unknown command %q, try 'help'", cmd)
}

// authView moves to the auth view when needed and returns its flow.
func (s *Shell) authView() *authflow.Flow {
	if s.app.View() != ViewAuth {
		s.app.Navigate(ViewAuth)
	}
	return s.app.Flow()
}

// dashboard enters the dashboard under the guard; nil means redirected.
func (s *Shell) dashboard(out io.Writer) *Dashboard {
	if s.app.View() != ViewDashboard && s.app.Navigate(ViewDashboard) != ViewDashboard {
		fmt.Fprintln(out, "Please log in first.")
		return nil
	}
	return s.app.Dashboard()
}

func (s *Shell) credentials(ctx context.Context, mode authflow.Mode, email, password string, out io.Writer) error {
	flow := s.authView()
	st := flow.State()
	if st.Step != authflow.StepCredentials || st.Mode != mode {
		if err := flow.SwitchMode(); err != nil {
			return err
		}
		if flow.State().Mode != mode {
			if err := flow.SwitchMode(); err != nil {
				return err
			}
		}
	}
	flow.SetEmail(email)
	flow.SetPassword(password)
	err := flow.Submit(ctx)
	if errors.Is(err, augment.ErrBusy) {
		return err
	}
	if err == nil && mode == authflow.ModeLogin {
		fmt.Fprintln(out, "Logged in.")
		return nil
	}
	printAuth(out, flow.State())
	return nil
}

func (s *Shell) otp(ctx context.Context, code string, out io.Writer) error {
	flow := s.app.Flow()
	if s.app.View() != ViewAuth || flow.State().Step != authflow.StepOTPPending {
		return authflow.ErrNotPending
	}
	flow.SetOTP(code)
	if err := flow.Submit(ctx); errors.Is(err, augment.ErrBusy) {
		return err
	}
	printAuth(out, flow.State())
	return nil
}

func (s *Shell) submit(ctx context.Context, form forms.Form, out io.Writer) error {
	outcome, err := form.Submit(ctx)
	if err != nil {
		if errors.Is(err, augment.ErrBusy) {
			return err
		}
		fmt.Fprintf(out, "error: %s\n", form.Request().Message)
		return nil
	}
	if outcome.Delivered != "" {
		fmt.Fprintf(out, "Saved %s\n", outcome.Delivered)
		return nil
	}
	if p, err := form.Preview(); err == nil {
		fmt.Fprintf(out, "Result ready: %s\n", p)
	} else {
		fmt.Fprintf(out, "Result ready: %s\n", outcome.Ref.URL)
	}
	return nil
}

func (s *Shell) whoami(out io.Writer) error {
	token, err := s.app.Session().CurrentToken()
	if err != nil {
		return err
	}
	if token == "" {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}
	claims, err := auth.Inspect(token)
	if err != nil {
		fmt.Fprintln(out, "Logged in (opaque token).")
		return nil
	}
	fmt.Fprintf(out, "Logged in as %s", claims.Identity())
	if exp := claims.ExpiresAt(); !exp.IsZero() {
		state := "expires"
		if claims.Expired(s.now()) {
			state = "expired"
		}
		fmt.Fprintf(out, ", token %s %s", state, exp.Format(time.RFC3339))
	}
	fmt.Fprintln(out)
	return nil
}

func printAuth(out io.Writer, st authflow.State) {
	if st.Error != "" {
		fmt.Fprintf(out, "error: %s\n", st.Error)
	}
	if st.Info != "" {
		fmt.Fprintln(out, st.Info)
	}
	if st.Step == authflow.StepOTPPending {
		fmt.Fprintf(out, "Enter the OTP sent to %s with 'otp <code>'.\n", st.Email)
	} else if st.PasswordHint != "" && !st.PasswordHintValid {
		fmt.Fprintf(out, "hint: %s\n", st.PasswordHint)
	}
}

func printForm(out io.Writer, form forms.Form) {
	fmt.Fprintf(out, "[%s]", form.Name())
	if u := form.Upload(); !u.IsZero() {
		fmt.Fprintf(out, " file=%s", u.Name)
	}
	for _, f := range form.Fields() {
		fmt.Fprintf(out, " %s=%s", f.Name, f.Value)
	}
	fmt.Fprintln(out)
}

func usage(s string) error {
	return augment.ValidationError{Field: "command", Message: "usage: " + s}
}
