package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oksasatya/rbac-dashboard/pkg/client"
)

type rootConfig struct {
	apiURL      string
	sessionFile string
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "rbacctl", "session.json")
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	cfg := &rootConfig{}
	cmd := &cobra.Command{
		Use:          "rbacctl",
		Short:        "Terminal client for the RBAC dashboard API",
		Long:         `rbacctl signs in against the auth API, keeps the session token on disk and opens role dashboards.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfg.apiURL, "api", getenv("RBAC_API_URL", "http://localhost:5000/api"), "API base URL")
	cmd.PersistentFlags().StringVar(&cfg.sessionFile, "session", getenv("RBAC_SESSION_FILE", defaultSessionFile()), "session file path")

	session := func() *client.Session {
		return client.NewSession(cfg.apiURL, client.NewFileStore(cfg.sessionFile))
	}

	cmd.AddCommand(
		newRegisterCmd(session),
		newVerifyCmd(session),
		newLoginCmd(session),
		newLogoutCmd(session),
		newWhoamiCmd(session),
		newResendCmd(session),
		newForgotCmd(session),
		newResetCmd(session),
		newOpenCmd(session),
	)
	return cmd
}

type sessionFunc func() *client.Session

func newRegisterCmd(session sessionFunc) *cobra.Command {
	var in client.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and send the verification email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg, err := session().Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Username, "username", "", "username")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")
	return cmd
}

func newVerifyCmd(session sessionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "verify TOKEN",
		Short: "Confirm an email address with the token from the verification link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := session().VerifyEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		},
	}
}

func newLoginCmd(session sessionFunc) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := session().Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			cmd.Printf("Logged in as %s (%s), home %s\n", res.User.Username, res.User.Role, client.Home(res.User.Role))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newLogoutCmd(session sessionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := session().Logout(); err != nil {
				return err
			}
			cmd.Println("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(session sessionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the stored profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := session().Current()
			if err != nil {
				return err
			}
			if st.Token == "" || st.User == nil {
				cmd.Println("Not logged in")
				return nil
			}
			b, _ := json.MarshalIndent(st.User, "", "  ")
			cmd.Println(string(b))
			return nil
		},
	}
}

func newResendCmd(session sessionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "resend-verification EMAIL",
		Short: "Send a fresh verification email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := session().ResendVerification(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		},
	}
}

func newForgotCmd(session sessionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password EMAIL",
		Short: "Request a password reset email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := session().ForgotPassword(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		},
	}
}

func newResetCmd(session sessionFunc) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "reset-password TOKEN",
		Short: "Set a new password with the token from the reset link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := session().ResetPassword(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "new password")
	return cmd
}

func newOpenCmd(session sessionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "open PATH",
		Short: "Navigate to a dashboard path such as /admin, /manager or /user",
		Long:  `open applies the route guard to PATH and, when allowed, fetches the dashboard for that role.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := session()
			st, err := s.Current()
			if err != nil {
				return err
			}
			d := client.NewGuard().Check(args[0], st)
			if !d.Allow {
				cmd.Printf("Redirect to %s\n", d.Redirect)
				return nil
			}
			view := client.Role(strings.Trim(strings.SplitN(args[0], "?", 2)[0], "/"))
			if !view.Valid() {
				cmd.Printf("%s is a public page\n", args[0])
				return nil
			}
			data, err := s.Dashboard(cmd.Context(), view)
			if err != nil {
				if client.StatusOf(err) == http.StatusUnauthorized {
					cmd.Printf("Redirect to %s\n", client.LoginPath)
				}
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	}
}
