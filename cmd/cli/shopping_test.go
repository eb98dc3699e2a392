package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfood/grocery-service/internal/optimizer"
	"github.com/smartfood/grocery-service/internal/types"
)

func withOutput(t *testing.T, format string) {
	t.Helper()
	prev := outputFormat
	outputFormat = format
	t.Cleanup(func() { outputFormat = prev })
}

func TestPrintOffersTable(t *testing.T) {
	withOutput(t, "table")
	offers := []optimizer.ScoredOffer{
		{CatalogOffer: types.CatalogOffer{StoreID: 2, StoreName: "Foothill Grocer", Price: 399, Quantity: 8}, DistanceKm: 2.04, HasDistance: true, Rank: 1},
		{CatalogOffer: types.CatalogOffer{StoreID: 1, StoreName: "Downtown Market", Price: 123456, Quantity: 3}, Rank: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, printOffers(&buf, offers))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[2], "Foothill Grocer")
	assert.Contains(t, lines[2], "$3.99")
	assert.Contains(t, lines[2], "2.0 km")
	assert.Contains(t, lines[3], "$1,234.56")
	assert.Contains(t, lines[3], " - ")
}

func TestPrintOffersJSON(t *testing.T) {
	withOutput(t, "json")

	var buf bytes.Buffer
	require.NoError(t, printOffers(&buf, []optimizer.ScoredOffer{{CatalogOffer: types.CatalogOffer{StoreID: 5}, Rank: 1}}))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, 5.0, decoded[0]["storeId"])
}

func TestPrintNutrition(t *testing.T) {
	report := &optimizer.NutritionReport{
		ListID: 7,
		Items: []optimizer.NutritionRow{
			{Name: "Granola", Quantity: 2, Facts: types.NutritionFacts{ServingSize: 100, Calories: 440, Protein: 12.5}},
		},
		Total: types.NutritionFacts{ServingSize: 100, Calories: 1200, Protein: 12.5},
	}

	var buf bytes.Buffer
	require.NoError(t, printNutrition(&buf, report))

	out := buf.String()
	assert.Contains(t, out, "Granola")
	assert.Contains(t, out, "440")
	assert.Contains(t, out, "12.5")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "Total")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"closest", "compare", "route", "fulfill", "snack", "nutrition", "export", "ping", "migrate"} {
		assert.True(t, names[want], "missing command %s", want)
	}
	assert.Equal(t, "true", fulfillCmd.Annotations["database"])
	assert.Empty(t, pingCmd.Annotations["database"])
}
