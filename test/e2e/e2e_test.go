package e2e_test

import (
	"bytes"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/gozod/internal/config"
	"github.com/mcncl/gozod/internal/errors"
	"github.com/mcncl/gozod/internal/formatter"
	"github.com/mcncl/gozod/internal/generator"
)

const complexJSON = `{
	"id": 12345,
	"uuid": "550e8400-e29b-41d4-a716-446655440000",
	"created_at": "2023-05-20T14:56:23Z",
	"updated_at": null,
	"config": {
		"enabled": true,
		"timeout_seconds": 30,
		"features": ["logging", "metrics", "alerting"],
		"rate_limits": {
			"per_second": 100,
			"burst": 150
		},
		"environments": {
			"development": {"debug": true, "log_level": "debug"},
			"production": {"debug": false, "log_level": "info"}
		}
	},
	"users": [
		{
			"id": 1,
			"name": "Alice",
			"roles": ["admin", "user"],
			"metadata": {"last_login": "2023-05-19T10:30:00Z", "login_count": 42}
		},
		{
			"id": 2,
			"name": "Bob",
			"roles": ["user"],
			"metadata": {"last_login": "2023-05-18T09:15:00Z", "login_count": 17}
		}
	],
	"stats": {
		"requests": 1234567,
		"success_rate": 0.9999,
		"response_times": [0.045, 0.067, 0.032]
	},
	"active": true
}`

// TestEndToEnd_ComplexNestedStructures runs the CLI on a document with several levels of nesting
func TestEndToEnd_ComplexNestedStructures(t *testing.T) {
	tempDir := t.TempDir()

	jsonFile := filepath.Join(tempDir, "complex.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte(complexJSON), 0o644))

	outputFile := filepath.Join(tempDir, "complex.ts")

	cmd := exec.Command("go", "run", "../../main.go", "-i", jsonFile, "-o", outputFile)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "CLI command failed: %s", string(output))

	generated, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	code := string(generated)

	expected, err := generator.Generate(complexJSON, nil)
	require.NoError(t, err)
	assert.Equal(t, expected+"\n", code)

	assert.Contains(t, code, "  id: z.number().int(),\n")
	assert.Contains(t, code, "  uuid: z.string(),\n")
	assert.Contains(t, code, "  created_at: z.string().datetime(),\n")
	assert.Contains(t, code, "  updated_at: z.null(),\n")
	assert.Contains(t, code, "  config: SchemaConfig,\n  export const SchemaConfig = z.object({\n")
	assert.Contains(t, code, "    features: z.array(z.string()),\n")
	assert.Contains(t, code, "    rate_limits: SchemaConfigRate_limits,\n")
	assert.Contains(t, code, "      development: SchemaConfigEnvironmentsDevelopment,\n")
	assert.Contains(t, code, "        log_level: z.string(),\n")
	assert.Contains(t, code, "  users: z.array(SchemaUsersItem),\n")
	assert.Contains(t, code, "    metadata: SchemaUsersItemMetadata,\n")
	assert.Contains(t, code, "      last_login: z.string().datetime(),\n")
	assert.Contains(t, code, "    success_rate: z.number(),\n")
	assert.Contains(t, code, "    response_times: z.array(z.number()),\n")
	assert.Contains(t, code, "  active: z.boolean(),\n")
}

// TestEndToEnd_HoistedOrder checks that hoisted declarations precede their first use
func TestEndToEnd_HoistedOrder(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Generation.Layout = config.LayoutHoisted

	out, err := generator.Generate(complexJSON, cfg)
	require.NoError(t, err)

	order := []string{
		"SchemaConfigRate_limits",
		"SchemaConfigEnvironmentsDevelopment",
		"SchemaConfigEnvironmentsProduction",
		"SchemaConfigEnvironments",
		"SchemaConfig",
		"SchemaUsersItemMetadata",
		"SchemaUsersItem",
		"SchemaStats",
		"Schema",
	}
	last := -1
	for _, name := range order {
		idx := strings.Index(out, "export const "+name+" = z.")
		require.GreaterOrEqual(t, idx, 0, "declaration %s missing", name)
		assert.Greater(t, idx, last, "declaration %s is out of order", name)
		last = idx
	}

	for _, line := range strings.Split(out, "\n") {
		assert.False(t, strings.HasPrefix(line, "  export const"), "hoisted output has a nested declaration: %q", line)
	}
}

// TestEndToEnd_CustomErrors checks the refinement scaffold on every field
func TestEndToEnd_CustomErrors(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Generation.CustomErrorMessages = true

	out, err := generator.Generate(`{"email": "a@b.c", "tags": ["x"], "owner": {"id": 1}}`, cfg)
	require.NoError(t, err)

	for _, key := range []string{"email", "tags", "id"} {
		assert.Contains(t, out, "// Add custom validation logic for "+key+"\n")
		assert.Contains(t, out, `message: "Custom error: `+key+` must be at least 5 characters"`)
	}
	assert.Contains(t, out, "  tags: z.array(z.string().superRefine((val, ctx) => {\n")
	assert.Contains(t, out, "  owner: SchemaOwner,\n")
	assert.Contains(t, out, "export const Schema = z.object({\n")
}

// TestEndToEnd_NullableSeed checks that seeded nullable marking is reproducible
func TestEndToEnd_NullableSeed(t *testing.T) {
	var fields []string
	for _, key := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o", "p"} {
		fields = append(fields, `"`+key+`": "value"`)
	}
	input := "{" + strings.Join(fields, ", ") + "}"

	generate := func(seed uint64) string {
		cfg := config.NewConfig()
		cfg.Generation.AddNullable = true
		cfg.Generation.NullableSeed = seed
		out, err := generator.Generate(input, cfg)
		require.NoError(t, err)
		return out
	}

	first := generate(2024)
	assert.Equal(t, first, generate(2024))
	assert.NotEqual(t, first, generate(2025))
	assert.Contains(t, first, "z.string().nullable(),\n")
}

// TestEndToEnd_FormatThenGenerate checks that formatting does not change the schema
func TestEndToEnd_FormatThenGenerate(t *testing.T) {
	formatted := formatter.Format(complexJSON)

	want, err := generator.Generate(complexJSON, nil)
	require.NoError(t, err)
	got, err := generator.Generate(formatted, nil)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, formatted, formatter.Format(formatted))
}

// TestEndToEnd_EdgeCases tests various edge cases through the CLI
func TestEndToEnd_EdgeCases(t *testing.T) {
	testCases := []struct {
		name     string
		json     string
		expected string
		isError  bool
	}{
		{
			name:     "EmptyObject",
			json:     `{}`,
			expected: "export const Schema = z.object({\n});\n",
		},
		{
			name:     "EmptyArray",
			json:     `[]`,
			expected: "export const Schema = z.array(z.unknown());\n",
		},
		{
			name:     "SingleValue",
			json:     `"just a string"`,
			expected: "export const Schema = z.string();\n",
		},
		{
			name:     "SingleNumber",
			json:     `42`,
			expected: "export const Schema = z.number().int();\n",
		},
		{
			name:     "SingleBoolean",
			json:     `true`,
			expected: "export const Schema = z.boolean();\n",
		},
		{
			name:     "SingleNull",
			json:     `null`,
			expected: "export const Schema = z.null();\n",
		},
		{
			name:    "InvalidJSON",
			json:    `{"name": "Invalid JSON",}`,
			isError: true,
		},
		{
			name:     "DeeplyNestedObject",
			json:     `{"level1":{"level2":{"level3":{"level4":{"level5":{"value":42}}}}}}`,
			expected: "export const SchemaLevel1Level2Level3Level4Level5 = z.object({\n",
		},
		{
			name:     "DeeplyNestedArray",
			json:     `[[[[[[42]]]]]]`,
			expected: "export const Schema = z.array(z.unknown());\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := exec.Command("go", "run", "../../main.go")
			cmd.Stdin = strings.NewReader(tc.json)
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			err := cmd.Run()

			if tc.isError {
				assert.Error(t, err, "Expected an error for %s", tc.name)
				assert.Empty(t, stdout.String())
			} else {
				assert.NoError(t, err, "Unexpected error for %s: %s", tc.name, stderr.String())
				assert.Contains(t, stdout.String(), tc.expected, "Expected output not found for %s", tc.name)
			}
		})
	}
}

// TestEndToEnd_MaxDepth checks that very deep documents fail cleanly
func TestEndToEnd_MaxDepth(t *testing.T) {
	depth := config.DefaultMaxDepth + 10
	input := strings.Repeat(`{"a":`, depth) + "1" + strings.Repeat("}", depth)

	_, err := generator.Generate(input, nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrMaxDepth))

	cfg := config.NewConfig()
	cfg.Generation.MaxDepth = depth + 1
	out, err := generator.Generate(input, cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "a: z.number().int(),")
}
