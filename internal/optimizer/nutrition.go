package optimizer

import (
	"github.com/smartfood/grocery-service/internal/types"
)

// AggregateNutrition scales every line by its quantity, sums lines sharing a
// food name, and adds a grand total. An empty list returns types.ErrListEmpty.
func AggregateNutrition(lines []NutritionLine) (*NutritionReport, error) {
	if len(lines) == 0 {
		return nil, types.ErrListEmpty
	}

	report := &NutritionReport{Items: make([]NutritionRow, 0, len(lines))}
	index := make(map[string]int, len(lines))

	for _, line := range lines {
		scaled := line.Facts.Scale(float64(line.Quantity))
		report.Total = report.Total.Add(scaled)

		if i, ok := index[line.Name]; ok {
			report.Items[i].Quantity += line.Quantity
			report.Items[i].Facts = report.Items[i].Facts.Add(scaled)
			continue
		}
		index[line.Name] = len(report.Items)
		report.Items = append(report.Items, NutritionRow{
			Name:     line.Name,
			Quantity: line.Quantity,
			Facts:    scaled,
		})
	}

	return report, nil
}
