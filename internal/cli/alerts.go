package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts <budget-id>",
	Short: "Show alert history for a budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlerts,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
}

func runAlerts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	_, service, store, err := initMonitor(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	history, err := service.Alerts(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("list alerts: %w", err)
	}

	if len(history) == 0 {
		fmt.Println("No alerts for this budget.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SENT AT\tTHRESHOLD\tUSAGE\tACTUAL\tDELIVERED\n")
	for _, a := range history {
		delivered := "pending"
		if a.SlackSent && a.EmailSent {
			delivered = "yes"
		}
		fmt.Fprintf(w, "%s\t%d%%\t%s%%\t%s\t%s\n",
			a.SentAt.Format("2006-01-02 15:04"), a.ThresholdPercent,
			a.UsagePercent.StringFixed(2), a.ActualAmount.StringFixed(2), delivered,
		)
	}
	w.Flush()

	return nil
}
