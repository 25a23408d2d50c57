package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/tgienger/coreterra/internal/derive"
	"github.com/tgienger/coreterra/internal/session"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

func newLoginCmd(flags *rootFlags) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the token locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			in := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				if username, err = prompt(cmd.OutOrStdout(), in, "Username"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword(cmd.OutOrStdout(), cmd.InOrStdin(), in); err != nil {
					return err
				}
			}

			if err := e.session.Login(cmd.Context(), username, password); err != nil {
				var authErr *session.AuthError
				if errors.As(err, &authErr) {
					return errors.New(authErr.Message)
				}
				return err
			}

			u, _ := e.session.User()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.Good.Render(styles.IconDone+" Signed in as "+u.Name))
			fmt.Fprintln(out, styles.LabelValue("Level", u.Level))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func prompt(w io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, styles.Key.Render(label+": "))
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// Swapped in tests
var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

// promptPassword reads without echo when stdin is a terminal and falls back
// to a plain line read for piped input
func promptPassword(w io.Writer, stdin io.Reader, in *bufio.Reader) (string, error) {
	f, ok := stdin.(interface{ Fd() uintptr })
	if !ok || !isTerminal(f.Fd()) {
		return prompt(w, in, "Password")
	}
	fmt.Fprint(w, styles.Key.Render("Password: "))
	b, err := readPassword(f.Fd())
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func newLogoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			e.session.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), styles.Muted.Render("Signed out"))
			return nil
		},
	}
}

func newWhoamiCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.requireSession(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			u, ok := e.session.User()
			if !ok {
				return errors.New("signed in, but the profile could not be loaded")
			}

			fmt.Fprintln(out, styles.Header(styles.IconProfile, u.Name))
			if claims, err := e.session.Claims(); err == nil {
				fmt.Fprintln(out, styles.LabelValue("Username", claims.Username))
				if !claims.ExpiresAt.IsZero() {
					fmt.Fprintln(out, styles.LabelValue("Token expires", claims.ExpiresAt.Local().Format("2006-01-02 15:04")))
				}
			}
			fmt.Fprintln(out, styles.LabelValue("Role", u.Role))
			fmt.Fprintln(out, styles.LabelValue("Level", u.Level))
			fmt.Fprintln(out, styles.LabelValue("XP", fmt.Sprintf("%s %d/%d", styles.Bar(derive.Percent(u.CurrentXP, u.MaxXP), 20), u.CurrentXP, u.MaxXP)))
			fmt.Fprintln(out, styles.LabelValue("Gold", styles.Gold.Render(fmt.Sprintf("%s %d", styles.IconGold, u.Gold))))
			fmt.Fprintln(out, styles.LabelValue("Streak", fmt.Sprintf("%d days", u.Streak)))
			return nil
		},
	}
}

