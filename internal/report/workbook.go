// Package report exports fulfillment plans and nutrition breakdowns of
// shopping lists as an Excel workbook.
package report

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/smartfood/grocery-service/internal/optimizer"
	"github.com/smartfood/grocery-service/internal/presentation"
	"github.com/smartfood/grocery-service/internal/types"
)

// maxConcurrentLists bounds how many lists are planned at once.
const maxConcurrentLists = 4

// Source produces the per-list data written to the workbook. Plan and
// nutrition for one list are read together from a single snapshot; the
// nutrition report is nil for an empty list.
type Source interface {
	ExportList(ctx context.Context, req optimizer.FulfillRequest) (*optimizer.FulfillmentPlan, *optimizer.NutritionReport, error)
}

// Options are the shared constraints applied to every exported list.
type Options struct {
	UserID        int64
	ListIDs       []int64
	Policy        optimizer.RankPolicy
	BudgetCeiling *int64
	MaxRadiusKm   *float64
}

// ListReport is everything exported for one list. Nutrition is nil when
// the list has no items.
type ListReport struct {
	ListID    int64
	Plan      *optimizer.FulfillmentPlan
	Nutrition *optimizer.NutritionReport
}

// Collect plans every list concurrently. Results keep the order of
// opts.ListIDs. The first failure cancels the rest.
func Collect(ctx context.Context, src Source, opts Options) ([]ListReport, error) {
	reports := make([]ListReport, len(opts.ListIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLists)
	for i, listID := range opts.ListIDs {
		g.Go(func() error {
			plan, nutrition, err := src.ExportList(gctx, optimizer.FulfillRequest{
				UserID:        opts.UserID,
				ListID:        listID,
				BudgetCeiling: opts.BudgetCeiling,
				MaxRadiusKm:   opts.MaxRadiusKm,
				Policy:        opts.Policy,
			})
			if err != nil {
				return fmt.Errorf("list %d: %w", listID, err)
			}

			reports[i] = ListReport{ListID: listID, Plan: plan, Nutrition: nutrition}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

var (
	planHeader      = []any{"Food ID", "Item", "Quantity", "Store", "Distance", "Unit Price", "Line Total", "Status"}
	nutritionHeader = []any{"Item", "Quantity", "Serving Size", "Calories", "Saturated Fat", "Trans Fat", "Fiber", "Carbs", "Sugars", "Protein"}
)

// Write renders one plan sheet and one nutrition sheet per list.
func Write(w io.Writer, reports []ListReport) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	for _, r := range reports {
		planSheet := fmt.Sprintf("List %d Plan", r.ListID)
		if _, err := f.NewSheet(planSheet); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", planSheet, err)
		}
		if err := writePlan(f, planSheet, r.Plan, bold); err != nil {
			return err
		}

		nutritionSheet := fmt.Sprintf("List %d Nutrition", r.ListID)
		if _, err := f.NewSheet(nutritionSheet); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", nutritionSheet, err)
		}
		if err := writeNutrition(f, nutritionSheet, r.Nutrition, bold); err != nil {
			return err
		}
	}

	if len(reports) > 0 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("failed to drop default sheet: %w", err)
		}
		f.SetActiveSheet(0)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writePlan(f *excelize.File, sheet string, plan *optimizer.FulfillmentPlan, header int) error {
	if err := setRow(f, sheet, 1, planHeader, header); err != nil {
		return err
	}

	row := 2
	for _, item := range plan.Items {
		values := []any{item.FoodID, item.Name, item.Quantity, "", "", "", "", item.Reason}
		if item.Offer != nil {
			values[3] = item.Offer.StoreName
			values[4] = presentation.Distance(item.Offer.DistanceKm)
			values[5] = presentation.Price(item.Offer.Price)
			values[6] = presentation.Price(item.LineTotal)
			values[7] = "fulfilled"
		}
		if err := setRow(f, sheet, row, values, 0); err != nil {
			return err
		}
		row++
	}

	summary := []any{"", "Estimated total", "", "", "", "", presentation.Price(plan.EstimatedTotal),
		fmt.Sprintf("%d of %d fulfilled", plan.FulfilledCount, len(plan.Items))}
	return setRow(f, sheet, row+1, summary, header)
}

func writeNutrition(f *excelize.File, sheet string, report *optimizer.NutritionReport, header int) error {
	if err := setRow(f, sheet, 1, nutritionHeader, header); err != nil {
		return err
	}
	if report == nil {
		return setRow(f, sheet, 2, []any{"(list is empty)"}, 0)
	}

	row := 2
	for _, item := range report.Items {
		if err := setRow(f, sheet, row, nutritionValues(item.Name, item.Quantity, item.Facts), 0); err != nil {
			return err
		}
		row++
	}
	return setRow(f, sheet, row, nutritionValues("Total", 0, report.Total), header)
}

func nutritionValues(name string, quantity int, n types.NutritionFacts) []any {
	var q any = quantity
	if quantity == 0 {
		q = ""
	}
	return []any{name, q, n.ServingSize, n.Calories, n.SaturatedFat, n.TransFat, n.Fiber, n.Carbs, n.Sugars, n.Protein}
}

func setRow(f *excelize.File, sheet string, row int, values []any, style int) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %q: %w", row, sheet, err)
	}
	if style == 0 {
		return nil
	}
	end, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, end, style)
}
