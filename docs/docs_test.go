package docs

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type operation struct {
	Tags      []string                   `json:"tags"`
	Security  []map[string][]string      `json:"security"`
	Responses map[string]json.RawMessage `json:"responses"`
}

type swaggerDoc struct {
	Swagger     string                          `json:"swagger"`
	BasePath    string                          `json:"basePath"`
	Info        map[string]any                  `json:"info"`
	Paths       map[string]map[string]operation `json:"paths"`
	Definitions map[string]json.RawMessage      `json:"definitions"`
	Security    map[string]map[string]string    `json:"securityDefinitions"`
}

func loadDoc(t *testing.T) (swaggerDoc, string) {
	t.Helper()
	raw := SwaggerInfo.ReadDoc()
	var doc swaggerDoc
	require.NoError(t, json.Unmarshal([]byte(raw), &doc), "rendered swagger must be valid JSON")
	return doc, raw
}

func TestSwaggerInfo(t *testing.T) {
	doc, _ := loadDoc(t)

	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "/", doc.BasePath)
	assert.Equal(t, "Grocery Service API", doc.Info["title"])
	assert.Equal(t, SwaggerInfo.Version, doc.Info["version"])
	assert.Equal(t, "swagger", SwaggerInfo.InfoInstanceName)
}

func TestSwaggerDocumentsEveryRoute(t *testing.T) {
	doc, _ := loadDoc(t)

	routes := map[string][]string{
		"/health":                                          {"get"},
		"/v1/shopping/closest":                             {"get"},
		"/v1/shopping/compare":                             {"get"},
		"/v1/shopping/route-optimize":                      {"post"},
		"/v1/shopping/fulfill":                             {"post"},
		"/v1/shopping/snack":                               {"get"},
		"/v1/stores":                                       {"get"},
		"/v1/stores/{storeId}/catalog":                     {"get"},
		"/v1/users":                                        {"post"},
		"/v1/users/{userId}/preferences":                   {"get", "put"},
		"/v1/users/{userId}/lists":                         {"get", "post"},
		"/v1/users/{userId}/lists/{listId}":                {"delete"},
		"/v1/users/{userId}/lists/{listId}/items":          {"post"},
		"/v1/users/{userId}/lists/{listId}/items/{foodId}": {"delete"},
		"/v1/users/{userId}/lists/{listId}/nutrition":      {"get"},
	}

	for path, methods := range routes {
		for _, method := range methods {
			op, ok := doc.Paths[path][method]
			if assert.True(t, ok, "%s %s is not documented", strings.ToUpper(method), path) {
				assert.NotEmpty(t, op.Tags, "%s %s has no tag", method, path)
				assert.NotEmpty(t, op.Responses, "%s %s has no responses", method, path)
			}
		}
	}
}

func TestSwaggerV1RequiresAPIKey(t *testing.T) {
	doc, _ := loadDoc(t)

	scheme, ok := doc.Security["ApiKeyAuth"]
	require.True(t, ok)
	assert.Equal(t, "X-API-Key", scheme["name"])
	assert.Equal(t, "header", scheme["in"])

	for path, ops := range doc.Paths {
		for method, op := range ops {
			if !strings.HasPrefix(path, "/v1/") {
				assert.Empty(t, op.Security, "%s %s should be public", method, path)
				continue
			}
			require.Len(t, op.Security, 1, "%s %s", method, path)
			assert.Contains(t, op.Security[0], "ApiKeyAuth")
		}
	}
}

func TestSwaggerReferencesResolve(t *testing.T) {
	doc, raw := loadDoc(t)

	refs := regexp.MustCompile(`#/definitions/([\w.]+)`).FindAllStringSubmatch(raw, -1)
	require.NotEmpty(t, refs)
	for _, ref := range refs {
		assert.Contains(t, doc.Definitions, ref[1], "dangling $ref")
	}

	var errorSchema struct {
		Properties map[string]any `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(doc.Definitions["handlers.ErrorResponse"], &errorSchema))
	for _, field := range []string{"error", "message", "requestId"} {
		assert.Contains(t, errorSchema.Properties, field)
	}
}
