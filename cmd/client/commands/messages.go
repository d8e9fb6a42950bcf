package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"onpointe/prevention/internal/navigation"
)

func ThreadsCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "threads",
		Short: "Reload your conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.Enter(navigation.ScreenMessages); err != nil {
				return err
			}
			a.Session.Sync().RefreshThreads(a.Ctx)
			a.show()
			return nil
		},
	}
}

func OpenCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "open <thread_id>",
		Short: "Open a conversation and follow it live",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.Enter(navigation.ScreenMessages); err != nil {
				return err
			}
			a.Session.Sync().OpenThread(a.Ctx, args[0])
			a.show()
			return nil
		},
	}
}

func SendCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "send <text>",
		Short: "Send a message in the open conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.Enter(navigation.ScreenMessages); err != nil {
				return err
			}
			return a.Session.Sync().SendMessage(a.Ctx, strings.Join(args, " "))
		},
	}
}
