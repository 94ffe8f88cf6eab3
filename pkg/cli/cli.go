package cli

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/recap/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

// envFiles are loaded before parsing flags. Existing env vars are not overwritten.
var envFiles = []string{".env", ".env.local"}

func loadEnvFiles() {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}
}

func Run(ctx context.Context, argv []string) *Error {
	loadEnvFiles()

	var logLevel, logFormat string

	cmd := &cli.Command{
		Name:           "recap",
		Usage:          "Summarize an iMessage conversation on demand",
		Flags:          loggingFlags(&logLevel, &logFormat),
		DefaultCommand: "watch",
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger := logging.New(logLevel, logFormat, c.Root().ErrWriter)
			logging.SetDefault(logger)
			return logging.With(ctx, logger), nil
		},
		Commands: []*cli.Command{
			watchCommand(),
			summarizeCommand(),
			chatsCommand(),
			authCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("recap failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
