package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recap/pkg/adapter"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Read Gemini API key from stdin and save it into OS keyring",
		Action: func(ctx context.Context, c *cli.Command) error {
			fmt.Fprint(c.Root().ErrWriter, "Gemini API key: ")

			key, err := readSecret(c.Root().Reader, c.Root().ErrWriter)
			if err != nil {
				return err
			}
			if key == "" {
				return goerr.New("API key is empty")
			}

			if err := adapter.StoreSecret(keyringGeminiAPIKey, key); err != nil {
				return err
			}

			fmt.Fprintln(c.Root().ErrWriter, "API key stored in OS keyring.")
			return nil
		},
	}
}

// readSecret reads one line from r. Terminal input is read without echo.
func readSecret(r io.Reader, w io.Writer) (string, error) {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", goerr.Wrap(err, "failed to read API key")
		}
		return strings.TrimSpace(string(secret)), nil
	}

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", goerr.Wrap(err, "failed to read API key")
		}
		return "", goerr.New("no API key given")
	}
	return strings.TrimSpace(scanner.Text()), nil
}
