package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/finopshq/budgetwatch/pkg/alerts"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a monitoring pass over all active budgets",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("dispatch", false, "Deliver pending alerts after the pass")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dispatch, _ := cmd.Flags().GetBool("dispatch")

	mon, _, store, err := initMonitor(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := mon.RunCheck(cmd.Context(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("run check: %w", err)
	}

	fmt.Printf("Checked %d budgets: %d alerts emitted, %d suppressed\n",
		result.BudgetsChecked, result.AlertsEmitted, result.Suppressed)
	if err := result.Err(); err != nil {
		fmt.Printf("Failures:\n%v\n", err)
	}

	if dispatch {
		logger := newLogger(cfg)
		chat, mail := initNotifiers(cfg)
		dispatcher := alerts.NewDispatcher(store, store, chat, mail, logger)

		delivered, err := dispatcher.DispatchPending(cmd.Context())
		if err != nil {
			return fmt.Errorf("dispatch alerts: %w", err)
		}
		fmt.Printf("Delivered %d alerts\n", delivered)
	}

	return nil
}
