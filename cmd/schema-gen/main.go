// Schema Generator
//
// Generates JSON Schema files for the public API request and response types.
//
// Usage:
//
//	go run ./cmd/schema-gen --out schemas
//
// Output:
//
//	schemas/shopping.json
//	schemas/lists.json
//	schemas/stores.json
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/smartfood/grocery-service/internal/handlers"
)

// SchemaGroup represents a group of related schemas
type SchemaGroup struct {
	Name   string
	Types  []any
	Output string
}

var groups = []SchemaGroup{
	{
		Name: "shopping",
		Types: []any{
			handlers.ClosestStoreQuery{},
			handlers.CompareOffersQuery{},
			handlers.RouteOptimizeRequest{},
			handlers.FulfillListRequest{},
			handlers.FindSnackQuery{},
			handlers.OfferResponse{},
			handlers.CompareOffersResponse{},
			handlers.RouteOptimizeResponse{},
			handlers.ItemSelectionResponse{},
			handlers.FulfillListResponse{},
			handlers.ErrorResponse{},
		},
		Output: "shopping.json",
	},
	{
		Name: "lists",
		Types: []any{
			handlers.CreateUserRequest{},
			handlers.SetBudgetRequest{},
			handlers.CreateListRequest{},
			handlers.AddListItemsRequest{},
			handlers.UserResponse{},
			handlers.BudgetResponse{},
			handlers.ListResponse{},
			handlers.NutritionResponse{},
		},
		Output: "lists.json",
	},
	{
		Name: "stores",
		Types: []any{
			handlers.StoreResponse{},
			handlers.CatalogEntryResponse{},
		},
		Output: "stores.json",
	},
}

var outputDir string

var rootCmd = &cobra.Command{
	Use:          "schema-gen",
	Short:        "Generate JSON Schema files for the API types",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return generate(outputDir, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&outputDir, "out", "o", "schemas", "output directory")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// generate writes one schema file per group into dir.
func generate(dir string, out io.Writer) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, group := range groups {
		schema := generateGroupSchema(group)
		outputPath := filepath.Join(dir, group.Output)

		if err := writeSchema(schema, outputPath); err != nil {
			return fmt.Errorf("failed to write %s: %w", group.Output, err)
		}
		fmt.Fprintf(out, "Generated %s\n", outputPath)
	}
	return nil
}

// generateGroupSchema creates a combined schema with all types in a group
func generateGroupSchema(group SchemaGroup) map[string]any {
	reflector := &jsonschema.Reflector{}

	definitions := make(map[string]any)
	for _, t := range group.Types {
		schema := reflector.Reflect(t)
		for name, def := range schema.Definitions {
			definitions[name] = def
		}
	}

	return map[string]any{
		"$schema":     "https://json-schema.org/draft/2020-12/schema",
		"$id":         fmt.Sprintf("https://smartfood.dev/schemas/%s.json", group.Name),
		"title":       fmt.Sprintf("%s API Types", capitalize(group.Name)),
		"description": fmt.Sprintf("JSON Schema for %s API types generated from Go structs", group.Name),
		"$defs":       definitions,
	}
}

func writeSchema(schema map[string]any, path string) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
