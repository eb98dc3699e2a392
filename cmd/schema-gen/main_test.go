package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateGroupSchema(t *testing.T) {
	schema := generateGroupSchema(groups[0])

	defs, ok := schema["$defs"].(map[string]any)
	require.True(t, ok)
	for _, name := range []string{"RouteOptimizeRequest", "FulfillListRequest", "OfferResponse", "FulfillListResponse"} {
		assert.Contains(t, defs, name)
	}
	assert.Equal(t, "Shopping API Types", schema["title"])
}

func TestWriteSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stores.json")
	require.NoError(t, writeSchema(generateGroupSchema(groups[2]), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Contains(t, parsed["$defs"], "StoreResponse")
}

func TestRootCommandWritesAllGroups(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--out", dir})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())

	for _, group := range groups {
		assert.FileExists(t, filepath.Join(dir, group.Output))
		assert.Contains(t, buf.String(), group.Output)
	}
}
