package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the budget portfolio rollup",
	RunE:  runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mon, _, store, err := initMonitor(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	dashboard, err := mon.Dashboard(cmd.Context(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("build dashboard: %w", err)
	}

	fmt.Printf("Budgets:    %d active\n", dashboard.ActiveBudgets)
	fmt.Printf("Budgeted:   %s\n", dashboard.TotalBudgetAmount.StringFixed(2))
	fmt.Printf("Spent:      %s (%s%%)\n",
		dashboard.TotalActualAmount.StringFixed(2),
		dashboard.OverallUsagePercent.StringFixed(2))
	fmt.Printf("Status:     %d on track, %d warning, %d exceeded\n",
		dashboard.OnTrackCount, dashboard.WarningCount, dashboard.ExceededCount)

	if len(dashboard.BudgetUsages) == 0 {
		return nil
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\tBUDGETED\tSPENT\tUSAGE\tSTATUS\n")
	for _, u := range dashboard.BudgetUsages {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s%%\t%s\n",
			u.BudgetName, u.BudgetAmount.StringFixed(2), u.ActualAmount.StringFixed(2),
			u.UsagePercent.StringFixed(2), u.Status,
		)
	}
	w.Flush()

	return nil
}
