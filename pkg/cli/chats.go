package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func chatsCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "chats",
		Usage: "List chats whose name contains --chat, to check what watch will pick",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.loadFile(c); err != nil {
				return err
			}

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}

			chats, err := repo.ListChats(ctx, cfg.chatName)
			if err != nil {
				return goerr.Wrap(err, "failed to list chats")
			}

			if len(chats) == 0 {
				fmt.Fprintf(c.Root().Writer, "No chat matches %q\n", cfg.chatName)
				return nil
			}

			// The first row is the one watch uses
			for _, chat := range chats {
				fmt.Fprintf(c.Root().Writer, "%d\t%s\t%s\n", chat.ID, chat.DisplayName, chat.Identifier)
			}

			return nil
		},
	}
}
