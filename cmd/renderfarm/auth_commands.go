package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"renderfarm/internal/core"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var user string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the farm",
		Long: "Log in to the farm. Without --user the stored credentials are reused; " +
			"otherwise the password is prompted for (or read from stdin with --password-stdin) " +
			"and only its hash is stored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCore(cmd, func(runCtx context.Context, rf *core.Core) error {
				params := core.LoginParams{User: strings.TrimSpace(user)}
				overview, err := rf.Overview(runCtx)
				if err != nil {
					return err
				}
				reader := bufio.NewReader(cmd.InOrStdin())
				if params.User == "" {
					if passwordStdin {
						return errors.New("--password-stdin requires --user")
					}
					if overview.User == "" {
						if params.User, err = promptLine(cmd, reader, "Email: "); err != nil {
							return err
						}
					}
				}
				if params.User != "" {
					if params.Password, err = readPassword(cmd, reader, passwordStdin); err != nil {
						return err
					}
				}

				actionErr := rf.Dispatch(runCtx, core.Request{Action: core.ActionLogin, Params: params})
				if actionErr != nil {
					return actionErr
				}
				overview, err = rf.Overview(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (user id %d)\n", overview.Login.User, overview.Login.UserID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Account email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "logout",
		Aliases: []string{"change-user"},
		Short:   "Forget the stored credentials and session catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.dispatch(cmd, core.Request{Action: core.ActionLogout}, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func promptLine(cmd *cobra.Command, reader *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads the password without echo from a terminal, or as one
// line from stdin.
func readPassword(cmd *cobra.Command, reader *bufio.Reader, fromStdin bool) (string, error) {
	in := cmd.InOrStdin()
	if file, ok := in.(*os.File); ok && !fromStdin && term.IsTerminal(int(file.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		secret, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(secret), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("empty password")
	}
	return password, nil
}
