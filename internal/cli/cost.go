package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/finopshq/budgetwatch/pkg/model"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Manage the daily cost ledger",
}

var costRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record or replace a day's total spend",
	RunE:  runCostRecord,
}

var costImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import daily costs from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCostImport,
}

func init() {
	rootCmd.AddCommand(costCmd)
	costCmd.AddCommand(costRecordCmd)
	costCmd.AddCommand(costImportCmd)

	costRecordCmd.Flags().StringP("date", "d", "", "Cost date (YYYY-MM-DD, default: today)")
	costRecordCmd.Flags().StringP("amount", "a", "", "Total spend for the day")
	costRecordCmd.Flags().String("currency", "", "Currency code (default: USD)")
	_ = costRecordCmd.MarkFlagRequired("amount")
}

func runCostRecord(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dateStr, _ := cmd.Flags().GetString("date")
	amountStr, _ := cmd.Flags().GetString("amount")
	currency, _ := cmd.Flags().GetString("currency")

	day := time.Now().UTC()
	if dateStr != "" {
		day, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", dateStr, err)
		}
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("amount must not be negative")
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	cost := &model.DailyCost{
		CostDate:  day,
		TotalCost: amount,
		Currency:  currency,
	}
	if err := store.RecordDailyCost(cmd.Context(), cost); err != nil {
		return fmt.Errorf("record cost: %w", err)
	}

	fmt.Printf("Recorded %s %s for %s\n",
		cost.TotalCost.StringFixed(2), cost.Currency, cost.CostDate.Format("2006-01-02"))
	return nil
}

// costImportFile is the YAML shape accepted by 'cost import'.
type costImportFile struct {
	Costs []struct {
		Date     string `yaml:"date"`
		Amount   string `yaml:"amount"`
		Currency string `yaml:"currency"`
	} `yaml:"costs"`
}

func runCostImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	var file costImportFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse import file: %w", err)
	}
	if len(file.Costs) == 0 {
		return fmt.Errorf("import file has no costs")
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, entry := range file.Costs {
		day, err := time.Parse("2006-01-02", entry.Date)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", entry.Date, err)
		}
		amount, err := decimal.NewFromString(entry.Amount)
		if err != nil {
			return fmt.Errorf("invalid amount %q for %s: %w", entry.Amount, entry.Date, err)
		}
		if amount.Sign() < 0 {
			return fmt.Errorf("negative amount for %s", entry.Date)
		}

		cost := &model.DailyCost{
			CostDate:  day,
			TotalCost: amount,
			Currency:  entry.Currency,
		}
		if err := store.RecordDailyCost(cmd.Context(), cost); err != nil {
			return fmt.Errorf("record cost for %s: %w", entry.Date, err)
		}
	}

	fmt.Printf("Imported %d daily costs\n", len(file.Costs))
	return nil
}
