package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one reminder sweep and exit",
	Long:  "Sends every reminder that is due now, for use from cron instead of the in-process sweeper",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := bootstrap()
		defer a.close()

		sweeper := a.reminderSweeper()

		sent, err := sweeper.SweepOnce(context.Background())
		if err != nil {
			return err
		}

		a.logger.Infof("reminder sweep sent %d reminders", sent)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
