package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/binhbb2204/bookhub/internal/storage"
	"github.com/binhbb2204/bookhub/internal/validate"
	"github.com/binhbb2204/bookhub/pkg/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	username   string
	email      string
	adminLogin bool

	stdin       io.Reader = os.Stdin
	stdinReader *bufio.Reader
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Register, login, logout and manage your BookHub account.`,
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	Long:  `Register a new BookHub account with username and email.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)

		password, err := readPassword("Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("failed to read password confirmation: %w", err)
		}

		req := models.RegisterRequest{
			Username:        strings.TrimSpace(username),
			Email:           strings.ToLower(strings.TrimSpace(email)),
			Password:        password,
			ConfirmPassword: confirm,
			Role:            models.RoleUser,
		}
		if err := validate.Struct(req); err != nil {
			return fail(err, "Registration failed")
		}
		if err := a.Session.Register(cmd.Context(), req); err != nil {
			return fail(err, "Registration failed")
		}

		u := a.Session.User()
		printSuccess("Account created successfully!")
		outf("User ID: %d\n", u.ID)
		outf("Username: %s\n", u.Username)
		outf("Email: %s\n", u.Email)
		outln("\nYou are now logged in!")
		outln("Try: bookhub books list")
		return nil
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to your account",
	Long:  `Login to your BookHub account with email and password. Use --admin to require an admin account.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		if email == "" {
			return fmt.Errorf("email is required (--email)")
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		if adminLogin {
			err = a.Session.AdminLogin(cmd.Context(), email, password)
		} else {
			err = a.Session.Login(cmd.Context(), email, password)
		}
		if err != nil {
			return fail(err, "Login failed")
		}

		u := a.Session.User()
		printSuccess("Login successful!")
		outf("Welcome back, %s (%s)\n", u.Username, u.Role)
		return nil
	},
}

var authDemoLoginCmd = &cobra.Command{
	Use:       "demo-login [user|admin]",
	Short:     "Login with a demo account",
	Long:      `Sign in as the shared demo reader or demo admin account.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{models.RoleUser, models.RoleAdmin},
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		userType := models.RoleUser
		if len(args) == 1 {
			userType = strings.ToLower(args[0])
		}
		if err := a.Session.DemoLogin(cmd.Context(), userType); err != nil {
			return fail(err, "Demo login failed")
		}
		u := a.Session.User()
		printSuccess(fmt.Sprintf("Logged in as demo %s: %s", u.Role, u.Username))
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from your account",
	Long:  `Forget the stored session on this machine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		wasLoggedIn := storedToken(a) != ""
		a.Session.Logout()
		if !wasLoggedIn {
			printInfo("You are not logged in")
			return nil
		}
		printSuccess("Logged out successfully!")
		return nil
	},
}

var authWhoamiCmd = &cobra.Command{
	Use:         "whoami",
	Short:       "Show the logged in user",
	Annotations: map[string]string{annotationGuard: "auth"},
	RunE: func(cmd *cobra.Command, args []string) error {
		u := appFrom(cmd).Session.User()
		outf("ID:       %d\n", u.ID)
		outf("Username: %s\n", u.Username)
		outf("Email:    %s\n", u.Email)
		outf("Role:     %s\n", u.Role)
		if !u.CreatedAt.IsZero() {
			outf("Joined:   %s\n", u.CreatedAt.Format("2006-01-02"))
		}
		return nil
	},
}

var authChangePasswordCmd = &cobra.Command{
	Use:         "change-password",
	Short:       "Change your password",
	Annotations: map[string]string{annotationGuard: "auth"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		current, err := readPassword("Current password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		next, err := readPassword("New password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		confirm, err := readPassword("Confirm new password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if next != confirm {
			printError("Passwords do not match")
			return fmt.Errorf("passwords do not match")
		}
		if err := a.Session.ChangePassword(cmd.Context(), current, next); err != nil {
			return fail(err, "Failed to change password")
		}
		printSuccess("Password changed successfully!")
		return nil
	},
}

var authUpdateProfileCmd = &cobra.Command{
	Use:         "update-profile",
	Short:       "Update your username or email",
	Annotations: map[string]string{annotationGuard: "auth"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		if username == "" && email == "" {
			return fmt.Errorf("nothing to update (use --username and/or --email)")
		}
		req := models.UpdateProfileRequest{Username: username, Email: email}
		if err := a.Session.UpdateProfile(cmd.Context(), req); err != nil {
			return fail(err, "Failed to update profile")
		}
		u := a.Session.User()
		printSuccess("Profile updated successfully!")
		outf("Username: %s\n", u.Username)
		outf("Email: %s\n", u.Email)
		return nil
	},
}

func init() {
	authRegisterCmd.Flags().StringVar(&username, "username", "", "Username for registration")
	authRegisterCmd.Flags().StringVar(&email, "email", "", "Email for registration")
	authRegisterCmd.MarkFlagRequired("username")
	authRegisterCmd.MarkFlagRequired("email")

	authLoginCmd.Flags().StringVar(&email, "email", "", "Email for login")
	authLoginCmd.Flags().BoolVar(&adminLogin, "admin", false, "Require an admin account")

	authUpdateProfileCmd.Flags().StringVar(&username, "username", "", "New username")
	authUpdateProfileCmd.Flags().StringVar(&email, "email", "", "New email")

	authCmd.AddCommand(authRegisterCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authDemoLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authWhoamiCmd)
	authCmd.AddCommand(authChangePasswordCmd)
	authCmd.AddCommand(authUpdateProfileCmd)
}

func storedToken(a *App) string {
	return storage.Token(a.Storage)
}

// storedUser is the persisted user, without a round trip to the server.
func storedUser(a *App) (models.User, bool) {
	token, u, err := storage.LoadSession(a.Storage)
	if err != nil || token == "" || u.ID <= 0 {
		return models.User{}, false
	}
	return u, true
}

// readPassword prompts without echo on a terminal and reads a plain line
// otherwise.
func readPassword(prompt string) (string, error) {
	outf("%s", prompt)
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		outln()
		return string(b), err
	}
	return readPasswordFallback()
}

func readPasswordFallback() (string, error) {
	if stdinReader == nil {
		stdinReader = bufio.NewReader(stdin)
	}
	password, err := stdinReader.ReadString('\n')
	if err != nil && (err != io.EOF || password == "") {
		return "", err
	}
	return strings.TrimSpace(password), nil
}
