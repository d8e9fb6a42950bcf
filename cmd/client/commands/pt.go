package commands

import (
	"github.com/spf13/cobra"

	"onpointe/prevention/internal/backend"
	"onpointe/prevention/internal/navigation"
)

func RosterCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "Reload your linked dancers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.Enter(navigation.ScreenRoster); err != nil {
				return err
			}
			a.Session.Sync().RefreshRoster(a.Ctx)
			a.show()
			return nil
		},
	}
}

func DancerCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dancer <dancer_id>",
		Short: "Show a dancer's recent check-ins and risk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.ViewDancer(a.Ctx, args[0]); err != nil {
				return err
			}
			a.show()
			return nil
		},
	}
}

func AvailAddCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "avail-add <date> <start> <end> [note]",
		Short: "Publish an availability slot (times as HH:MM)",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.Enter(navigation.ScreenAvailability); err != nil {
				return err
			}
			in := backend.SlotInput{Date: args[0], Start: args[1], End: args[2]}
			if len(args) > 3 {
				in.Note = args[3]
			}
			if err := a.Session.Sync().AddAvailability(a.Ctx, in); err != nil {
				return err
			}
			a.show()
			return nil
		},
	}
}

func AvailDelCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "avail-del <slot_id>",
		Short: "Delete one of your availability slots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.Enter(navigation.ScreenAvailability); err != nil {
				return err
			}
			if err := a.Session.Sync().DeleteAvailability(a.Ctx, args[0]); err != nil {
				return err
			}
			a.show()
			return nil
		},
	}
}

func ReviewCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "review <alert_id>",
		Short: "Mark an alert reviewed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.Enter(navigation.ScreenRoster); err != nil {
				return err
			}
			// The alert feed delivers the change; nothing to wait for here.
			a.Session.Sync().MarkAlertReviewed(a.Ctx, args[0])
			return nil
		},
	}
}

func CodeCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "code",
		Short: "Generate a code a dancer can redeem to link with you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.Enter(navigation.ScreenRoster); err != nil {
				return err
			}
			if err := a.Session.Sync().GenerateCode(a.Ctx); err != nil {
				return err
			}
			a.show()
			return nil
		},
	}
}

func SeedCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add a demo dancer with recent check-ins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.Enter(navigation.ScreenRoster); err != nil {
				return err
			}
			if err := a.Session.Sync().SeedDemoData(a.Ctx); err != nil {
				return err
			}
			a.show()
			return nil
		},
	}
}

func ExportCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dancer_id>",
		Short: "Export a dancer's report and print its download link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.Enter(navigation.ScreenRoster); err != nil {
				return err
			}
			if err := a.Session.Sync().ExportReport(a.Ctx, args[0]); err != nil {
				return err
			}
			a.show()
			return nil
		},
	}
}
