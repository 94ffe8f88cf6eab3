package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recap/pkg/model"
	"github.com/urfave/cli/v3"
)

func summarizeCommand() *cli.Command {
	return newSummarizeCommand(&config{})
}

func newSummarizeCommand(cfg *config) *cli.Command {
	var send bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "send",
			Aliases:     []string{"s"},
			Usage:       "Post the summary into the chat instead of printing it",
			Sources:     cli.EnvVars("RECAP_SEND"),
			Destination: &send,
		},
	}
	flags = append(flags, globalFlags(cfg)...)
	flags = append(flags, summaryFlags(cfg)...)

	return &cli.Command{
		Name:  "summarize",
		Usage: "Summarize recent messages once",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.loadFile(c); err != nil {
				return err
			}

			window, err := cfg.window()
			if err != nil {
				return err
			}

			summarizer, err := cfg.newSummarizer(ctx)
			if err != nil {
				return err
			}

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}

			chatID, err := repo.ResolveChat(ctx, cfg.chatName)
			if err != nil {
				return err
			}

			messages, err := repo.ListMessages(ctx, chatID, time.Now().Add(-window))
			if err != nil {
				return goerr.Wrap(err, "failed to fetch messages")
			}

			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
				spinner.WithWriter(c.Root().ErrWriter),
				spinner.WithSuffix(fmt.Sprintf(" summarizing %d messages...", len(messages))),
			)
			s.Start()
			text := summarizer.Summarize(ctx, model.Texts(messages))
			s.Stop()

			if !send {
				fmt.Fprintln(c.Root().Writer, text)
				return nil
			}

			sender, err := cfg.newSender()
			if err != nil {
				return err
			}
			return sender.Send(ctx, text)
		},
	}
}
