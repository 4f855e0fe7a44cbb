package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/finopshq/budgetwatch/pkg/model"
	"github.com/finopshq/budgetwatch/pkg/monitor"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage spend budgets",
}

var budgetCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a budget",
	RunE:  runBudgetCreate,
}

var budgetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active budgets",
	RunE:  runBudgetList,
}

var budgetUsageCmd = &cobra.Command{
	Use:   "usage <budget-id>",
	Short: "Show usage for a budget's current period",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetUsage,
}

var budgetDeleteCmd = &cobra.Command{
	Use:   "delete <budget-id>",
	Short: "Deactivate a budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetDelete,
}

func init() {
	rootCmd.AddCommand(budgetCmd)
	budgetCmd.AddCommand(budgetCreateCmd)
	budgetCmd.AddCommand(budgetListCmd)
	budgetCmd.AddCommand(budgetUsageCmd)
	budgetCmd.AddCommand(budgetDeleteCmd)

	budgetCreateCmd.Flags().StringP("name", "n", "", "Budget name")
	budgetCreateCmd.Flags().StringP("type", "t", "PROJECT", "Budget type (TEAM, PROJECT, SERVICE)")
	budgetCreateCmd.Flags().String("target", "", "Target identifier for scoped budget types")
	budgetCreateCmd.Flags().StringP("amount", "a", "", "Budget amount")
	budgetCreateCmd.Flags().StringP("period", "P", "MONTHLY", "Period type (MONTHLY, QUARTERLY, YEARLY, CUSTOM)")
	budgetCreateCmd.Flags().String("start", "", "Start date (YYYY-MM-DD, default: today)")
	budgetCreateCmd.Flags().String("end", "", "End date for CUSTOM periods (YYYY-MM-DD)")
	budgetCreateCmd.Flags().String("currency", "", "Currency code (default: USD)")
	budgetCreateCmd.Flags().String("description", "", "Budget description")
	budgetCreateCmd.Flags().String("thresholds", "", `Thresholds as "percent:channel" pairs, e.g. "50:SLACK,80:BOTH,100:BOTH"`)
	_ = budgetCreateCmd.MarkFlagRequired("name")
	_ = budgetCreateCmd.MarkFlagRequired("amount")
}

// parseThresholds turns "50:SLACK,80:BOTH" into threshold specs. A bare
// percent defaults to SLACK.
func parseThresholds(raw string) ([]model.ThresholdSpec, error) {
	if raw == "" {
		return nil, nil
	}

	var specs []model.ThresholdSpec
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		pctStr, channel, _ := strings.Cut(part, ":")

		pct, err := strconv.Atoi(pctStr)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold %q: %w", part, err)
		}

		specs = append(specs, model.ThresholdSpec{
			Percent:      pct,
			Notification: model.NotificationType(strings.ToUpper(strings.TrimSpace(channel))),
		})
	}
	return specs, nil
}

func runBudgetCreate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	budgetType, _ := cmd.Flags().GetString("type")
	target, _ := cmd.Flags().GetString("target")
	amountStr, _ := cmd.Flags().GetString("amount")
	period, _ := cmd.Flags().GetString("period")
	startStr, _ := cmd.Flags().GetString("start")
	endStr, _ := cmd.Flags().GetString("end")
	currency, _ := cmd.Flags().GetString("currency")
	description, _ := cmd.Flags().GetString("description")
	thresholdsStr, _ := cmd.Flags().GetString("thresholds")

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}

	start := time.Now().UTC()
	if startStr != "" {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return fmt.Errorf("invalid start date %q: %w", startStr, err)
		}
	}

	var end *time.Time
	if endStr != "" {
		e, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return fmt.Errorf("invalid end date %q: %w", endStr, err)
		}
		end = &e
	}

	thresholds, err := parseThresholds(thresholdsStr)
	if err != nil {
		return err
	}

	_, service, store, err := initMonitor(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	budget, err := service.Create(cmd.Context(), monitor.BudgetRequest{
		Name:        name,
		Type:        model.BudgetType(budgetType),
		TargetID:    target,
		Amount:      amount,
		PeriodType:  model.PeriodType(period),
		StartDate:   start,
		EndDate:     end,
		Currency:    currency,
		Description: description,
		Thresholds:  thresholds,
	})
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}

	fmt.Printf("Budget created:\n")
	fmt.Printf("  ID:      %s\n", budget.ID)
	fmt.Printf("  Name:    %s\n", budget.Name)
	fmt.Printf("  Amount:  %s %s\n", budget.Amount.StringFixed(2), budget.Currency)
	fmt.Printf("  Period:  %s\n", budget.PeriodType)
	for _, th := range budget.Thresholds {
		fmt.Printf("  Alert at %d%% via %s\n", th.Percent, th.Notification)
	}

	return nil
}

func runBudgetList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	_, service, store, err := initMonitor(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	budgets, err := service.ListActive(cmd.Context())
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}

	if len(budgets) == 0 {
		fmt.Println("No budgets configured. Use 'budgetwatch budget create' to add one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tNAME\tTYPE\tAMOUNT\tPERIOD\tTHRESHOLDS\n")
	for _, b := range budgets {
		var pcts []string
		for _, th := range b.Thresholds {
			pcts = append(pcts, fmt.Sprintf("%d%%", th.Percent))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\t%s\n",
			b.ID, b.Name, b.Type, b.Amount.StringFixed(2), b.Currency,
			b.PeriodType, strings.Join(pcts, " "),
		)
	}
	w.Flush()

	return nil
}

func runBudgetUsage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mon, _, store, err := initMonitor(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := mon.UsageByID(cmd.Context(), args[0], time.Now().UTC())
	if err != nil {
		return fmt.Errorf("budget usage: %w", err)
	}

	fmt.Printf("Budget:     %s\n", snap.BudgetName)
	fmt.Printf("Period:     %s to %s\n",
		snap.PeriodStart.Format("2006-01-02"), snap.PeriodEnd.Format("2006-01-02"))
	fmt.Printf("Budgeted:   %s\n", snap.BudgetAmount.StringFixed(2))
	fmt.Printf("Spent:      %s\n", snap.ActualAmount.StringFixed(2))
	fmt.Printf("Remaining:  %s\n", snap.RemainingAmount.StringFixed(2))
	fmt.Printf("Usage:      %s%% [%s]\n", snap.UsagePercent.StringFixed(2), snap.Status)
	for _, ts := range snap.ThresholdStatuses {
		marker := " "
		if ts.Triggered {
			marker = "x"
		}
		fmt.Printf("  [%s] %d%% at %s\n", marker, ts.Percent, ts.TriggerAmount.StringFixed(2))
	}

	return nil
}

func runBudgetDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	_, service, store, err := initMonitor(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := service.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}

	fmt.Printf("Budget %s deactivated\n", args[0])
	return nil
}
