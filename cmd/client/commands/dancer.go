package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"onpointe/prevention/internal/navigation"
	"onpointe/prevention/internal/viewsync"
)

func CheckInCmd(a *AppContext) *cobra.Command {
	var in viewsync.CheckInInput
	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Save today's check-in (or --date's)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.Enter(navigation.ScreenCheckIn); err != nil {
				return err
			}
			if err := a.Session.Sync().SaveCheckIn(a.Ctx, in); err != nil {
				return err
			}
			fmt.Fprintln(a.Out, "✓ Check-in saved")
			a.show()
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Date, "date", "", "Date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&in.Minutes, "minutes", "", "Minutes danced")
	cmd.Flags().StringVar(&in.RPE, "rpe", "", "Rate of perceived exertion, 0-10")
	cmd.Flags().StringVar(&in.Fatigue, "fatigue", "", "Fatigue, 0-10")
	cmd.Flags().StringVar(&in.Sore, "sore", "", "Soreness, 0-10")
	cmd.Flags().StringVar(&in.Sleep, "sleep", "", "Sleep quality, 0-10")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "Anything your PT should know")
	return cmd
}

func RedeemCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "redeem <code>",
		Short: "Link to your PT with their code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.Enter(navigation.ScreenCheckIn); err != nil {
				return err
			}
			if err := a.Session.Sync().RedeemCode(a.Ctx, args[0]); err != nil {
				return err
			}
			a.show()
			return nil
		},
	}
}
