package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smartfood/grocery-service/internal/optimizer"
	"github.com/smartfood/grocery-service/internal/presentation"
	"github.com/smartfood/grocery-service/internal/types"
)

var (
	userID        int64
	foodID        int64
	listID        int64
	maxStores     int
	priceCeiling  int64
	budgetCeiling int64
	useBudget     bool
	collapse      bool
	radiusKm      float64
	rankPolicy    string
)

var closestCmd = needsDatabase(&cobra.Command{
	Use:     "closest",
	Short:   "Find the closest store carrying a food item",
	Example: `  grocery closest --user 1 --food 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		offer, err := service.FindClosestStore(cmd.Context(), userID, foodID)
		if err != nil {
			return err
		}
		return printOffers(os.Stdout, []optimizer.ScoredOffer{offer})
	},
})

var compareCmd = needsDatabase(&cobra.Command{
	Use:   "compare",
	Short: "Compare a food item's price across stores",
	Example: `  grocery compare --food 42
  grocery compare --food 42 --max-stores 10 --price-ceiling 500 -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := optimizer.CompareRequest{FoodID: foodID, MaxStores: maxStores}
		if cmd.Flags().Changed("price-ceiling") {
			req.PriceCeiling = &priceCeiling
		}
		offers, err := service.CompareOffers(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printOffers(os.Stdout, offers)
	},
})

var routeCmd = needsDatabase(&cobra.Command{
	Use:   "route",
	Short: "Show both the closest and the best value store for a food item",
	Example: `  grocery route --user 1 --food 42
  grocery route --user 1 --food 42 --use-budget --collapse`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := optimizer.RouteRequest{
			UserID:              userID,
			FoodID:              foodID,
			UseBudgetPreference: useBudget,
			Collapse:            collapse,
		}
		if cmd.Flags().Changed("budget") {
			req.BudgetCeiling = &budgetCeiling
		}
		result, err := service.RouteOptimize(cmd.Context(), req)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return writeJSON(os.Stdout, result)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SLOT\tSTORE\tPRICE\tDISTANCE")
		fmt.Fprintln(w, "----\t-----\t-----\t--------")
		writeSlot(w, "closest", result.Closest)
		if result.BestValue != nil {
			writeSlot(w, "best value", *result.BestValue)
		} else {
			fmt.Fprintln(w, "best value\t(same store)\t\t")
		}
		return w.Flush()
	},
})

var fulfillCmd = needsDatabase(&cobra.Command{
	Use:   "fulfill",
	Short: "Plan where to buy every item on a shopping list",
	Example: `  grocery fulfill --user 1 --list 7
  grocery fulfill --user 1 --list 7 --policy distance --radius 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := fulfillRequest(cmd, listID)
		if err != nil {
			return err
		}
		plan, err := service.FulfillList(cmd.Context(), req)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return writeJSON(os.Stdout, plan)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ITEM\tQTY\tSTORE\tDISTANCE\tUNIT\tLINE TOTAL")
		fmt.Fprintln(w, "----\t---\t-----\t--------\t----\t----------")
		for _, item := range plan.Items {
			if item.Offer == nil {
				fmt.Fprintf(w, "%s\t%d\t(%s)\t\t\t\n", item.Name, item.Quantity, item.Reason)
				continue
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
				item.Name, item.Quantity, item.Offer.StoreName,
				presentation.Distance(item.Offer.DistanceKm),
				presentation.Price(item.Offer.Price), presentation.Price(item.LineTotal))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nPolicy: %s  Fulfilled: %d/%d  Estimated total: %s\n",
			plan.Policy, plan.FulfilledCount, len(plan.Items), presentation.Price(plan.EstimatedTotal))
		return nil
	},
})

var snackCmd = needsDatabase(&cobra.Command{
	Use:   "snack",
	Short: "Find the best store for a food item within a radius",
	Example: `  grocery snack --user 1 --food 42
  grocery snack --user 1 --food 42 --radius 2 --policy price`,
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := optimizer.ParseRankPolicy(rankPolicy, 0)
		if err != nil {
			return err
		}
		req := optimizer.SnackRequest{UserID: userID, FoodID: foodID, Policy: policy}
		if cmd.Flags().Changed("radius") {
			req.MaxRadiusKm = &radiusKm
		}
		offer, err := service.FindSnack(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printOffers(os.Stdout, []optimizer.ScoredOffer{offer})
	},
})

var nutritionCmd = needsDatabase(&cobra.Command{
	Use:     "nutrition",
	Short:   "Show the nutrition breakdown of a shopping list",
	Example: `  grocery nutrition --user 1 --list 7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := service.ListNutritionFacts(cmd.Context(), userID, listID)
		if errors.Is(err, types.ErrListEmpty) {
			fmt.Println("Shopping list is empty.")
			return nil
		}
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return writeJSON(os.Stdout, report)
		}
		return printNutrition(os.Stdout, report)
	},
})

func init() {
	for _, c := range []*cobra.Command{closestCmd, routeCmd, snackCmd, nutritionCmd, fulfillCmd} {
		c.Flags().Int64Var(&userID, "user", 0, "User ID")
		c.MarkFlagRequired("user")
	}
	for _, c := range []*cobra.Command{closestCmd, compareCmd, routeCmd, snackCmd} {
		c.Flags().Int64Var(&foodID, "food", 0, "Food item ID")
		c.MarkFlagRequired("food")
	}
	for _, c := range []*cobra.Command{fulfillCmd, nutritionCmd} {
		c.Flags().Int64Var(&listID, "list", 0, "Shopping list ID")
		c.MarkFlagRequired("list")
	}

	compareCmd.Flags().IntVar(&maxStores, "max-stores", 0, "Number of offers to show (default from config)")
	compareCmd.Flags().Int64Var(&priceCeiling, "price-ceiling", 0, "Drop offers priced above this many cents")

	for _, c := range []*cobra.Command{routeCmd, fulfillCmd} {
		c.Flags().Int64Var(&budgetCeiling, "budget", 0, "Budget ceiling in cents")
		c.Flags().BoolVar(&useBudget, "use-budget", false, "Apply the user's stored budget preference")
	}
	routeCmd.Flags().BoolVar(&collapse, "collapse", false, "Omit the best value slot when it is the closest store")

	for _, c := range []*cobra.Command{fulfillCmd, snackCmd} {
		c.Flags().Float64Var(&radiusKm, "radius", 0, "Maximum distance in kilometers")
		c.Flags().StringVar(&rankPolicy, "policy", "", "Ranking policy: distance, price, price_then_distance (or 1-3)")
	}

	rootCmd.AddCommand(closestCmd, compareCmd, routeCmd, fulfillCmd, snackCmd, nutritionCmd)
}

// fulfillRequest builds the shared constraints from the fulfill and export flags.
func fulfillRequest(cmd *cobra.Command, listID int64) (optimizer.FulfillRequest, error) {
	policy, err := optimizer.ParseRankPolicy(rankPolicy, 0)
	if err != nil {
		return optimizer.FulfillRequest{}, err
	}
	req := optimizer.FulfillRequest{
		UserID:              userID,
		ListID:              listID,
		UseBudgetPreference: useBudget,
		Policy:              policy,
	}
	if cmd.Flags().Changed("budget") {
		req.BudgetCeiling = &budgetCeiling
	}
	if cmd.Flags().Changed("radius") {
		req.MaxRadiusKm = &radiusKm
	}
	return req, nil
}

func printOffers(out io.Writer, offers []optimizer.ScoredOffer) error {
	if outputFormat == "json" {
		return writeJSON(out, offers)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSTORE ID\tSTORE\tPRICE\tDISTANCE\tIN STOCK")
	fmt.Fprintln(w, "----\t--------\t-----\t-----\t--------\t--------")
	for _, o := range offers {
		distance := "-"
		if o.HasDistance {
			distance = presentation.Distance(o.DistanceKm)
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%d\n",
			o.Rank, o.StoreID, o.StoreName, presentation.Price(o.Price), distance, o.Quantity)
	}
	return w.Flush()
}

func writeSlot(w io.Writer, slot string, o optimizer.ScoredOffer) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", slot, o.StoreName, presentation.Price(o.Price), presentation.Distance(o.DistanceKm))
}

func printNutrition(out io.Writer, report *optimizer.NutritionReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{"ITEM", "QTY", "SERVING", "CAL", "SAT FAT", "TRANS FAT", "FIBER", "CARBS", "SUGARS", "PROTEIN"}
	fmt.Fprintln(w, strings.Join(header, "\t")+"\t")
	for _, row := range report.Items {
		fmt.Fprintf(w, "%s\t%d\t%s\t\n", row.Name, row.Quantity, nutrientColumns(row.Facts))
	}
	fmt.Fprintf(w, "%s\t\t%s\t\n", "Total", nutrientColumns(report.Total))
	return w.Flush()
}

func nutrientColumns(n types.NutritionFacts) string {
	cols := []string{
		presentation.Quantity(n.ServingSize),
		presentation.Quantity(n.Calories),
		presentation.Quantity(n.SaturatedFat),
		presentation.Quantity(n.TransFat),
		presentation.Quantity(n.Fiber),
		presentation.Quantity(n.Carbs),
		presentation.Quantity(n.Sugars),
		presentation.Quantity(n.Protein),
	}
	return strings.Join(cols, "\t")
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
