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

	"github.com/PatrickWalther/unfollow-watch-go/internal/app"
	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
)

// Terminal seams, replaced in tests.
var (
	termReadPassword = term.ReadPassword
	termIsTerminal   = term.IsTerminal

	readPassword = termReadPassword
	isTerminal   = termIsTerminal
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var (
		username   string
		skipVerify bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save the GitHub username and personal access token to watch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			var err error
			if username == "" {
				username, err = promptLine(reader, out, "GitHub username: ")
				if err != nil {
					return err
				}
			}
			token, err := promptToken(reader, out)
			if err != nil {
				return err
			}

			cred := models.Credential{Token: token, Username: strings.TrimSpace(username)}
			if !cred.Valid() {
				return errors.New("username and token are both required")
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				if !skipVerify {
					if err := a.VerifyCredential(ctx, cred); err != nil {
						return fmt.Errorf("failed to verify token: %w", err)
					}
				}
				if err := a.SaveCredential(cred.Token, cred.Username); err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved credential for %s (token %s)\n", cred.Username, cred.Masked())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "GitHub username (prompted when omitted)")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Save without checking the token against the API")
	return cmd
}

func promptLine(reader *bufio.Reader, w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptToken reads the token without echo when stdin is a terminal, and as a
// plain line otherwise so it can be piped in.
func promptToken(reader *bufio.Reader, w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return promptLine(reader, w, "Personal access token: ")
	}

	fmt.Fprint(w, "Personal access token: ")
	token, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(token)), nil
}
