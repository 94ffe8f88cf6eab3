package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recap/pkg/usecase/watch"
	"github.com/urfave/cli/v3"
)

func watchCommand() *cli.Command {
	var cfg config

	var flags []cli.Flag
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, watchFlags(&cfg)...)
	flags = append(flags, summaryFlags(&cfg)...)

	return &cli.Command{
		Name:  "watch",
		Usage: "Watch the chat and reply with a summary when the trigger phrase is posted",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.loadFile(c); err != nil {
				return err
			}

			window, err := cfg.window()
			if err != nil {
				return err
			}

			schedule, err := cfg.newSchedule()
			if err != nil {
				return err
			}

			// Initialize dependencies
			summarizer, err := cfg.newSummarizer(ctx)
			if err != nil {
				return err
			}

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}

			sender, err := cfg.newSender()
			if err != nil {
				return err
			}

			watcher, err := watch.New(repo, summarizer, sender, watch.Config{
				ChatName: cfg.chatName,
				Trigger:  cfg.trigger,
				Window:   window,
				Schedule: schedule,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to create watcher")
			}

			return watcher.Run(ctx)
		},
	}
}
