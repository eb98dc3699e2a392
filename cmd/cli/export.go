package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smartfood/grocery-service/internal/report"
)

var (
	exportLists []int64
	exportFile  string
)

var exportCmd = needsDatabase(&cobra.Command{
	Use:   "export",
	Short: "Export fulfillment plans and nutrition of shopping lists to Excel",
	Long: `Plans each list under the same constraints and writes one plan sheet and
one nutrition sheet per list into an .xlsx workbook.`,
	Example: `  grocery export --user 1 --lists 7,8 --file lists.xlsx
  grocery export --user 1 --lists 7 --policy distance --radius 5`,
	RunE: runExport,
})

func init() {
	exportCmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	exportCmd.Flags().Int64SliceVar(&exportLists, "lists", nil, "Shopping list IDs (comma separated)")
	exportCmd.Flags().StringVar(&exportFile, "file", "shopping-lists.xlsx", "Output workbook path")
	exportCmd.Flags().Int64Var(&budgetCeiling, "budget", 0, "Budget ceiling in cents")
	exportCmd.Flags().Float64Var(&radiusKm, "radius", 0, "Maximum distance in kilometers")
	exportCmd.Flags().StringVar(&rankPolicy, "policy", "", "Ranking policy: distance, price, price_then_distance (or 1-3)")
	exportCmd.MarkFlagRequired("user")
	exportCmd.MarkFlagRequired("lists")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	shared, err := fulfillRequest(cmd, 0)
	if err != nil {
		return err
	}

	logger.Info().Int64("user", userID).Ints64("lists", exportLists).Msg("Collecting list reports")
	reports, err := report.Collect(cmd.Context(), service, report.Options{
		UserID:        userID,
		ListIDs:       exportLists,
		Policy:        shared.Policy,
		BudgetCeiling: shared.BudgetCeiling,
		MaxRadiusKm:   shared.MaxRadiusKm,
	})
	if err != nil {
		return err
	}

	f, err := os.Create(exportFile)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportFile, err)
	}
	if err := report.Write(f, reports); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", exportFile, err)
	}

	fmt.Printf("Wrote %d list(s) to %s\n", len(reports), exportFile)
	return nil
}
