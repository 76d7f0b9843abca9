package main

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/gozod/internal/config"
	"github.com/mcncl/gozod/internal/errors"
	"github.com/mcncl/gozod/internal/generator"
	"github.com/mcncl/gozod/internal/samples"
)

func testContext(t *testing.T) *Context {
	t.Helper()
	return &Context{
		Context: context.Background(),
		Config:  config.NewConfig(),
	}
}

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// withStdin replaces os.Stdin with a pipe carrying data for the duration of the test.
func withStdin(t *testing.T, data string) {
	t.Helper()
	originalStdin := os.Stdin
	r, w, err := os.Pipe()
	require.NoError(t, err)

	go func() {
		defer func() { _ = w.Close() }()
		_, _ = w.WriteString(data)
	}()

	os.Stdin = r
	t.Cleanup(func() {
		os.Stdin = originalStdin
		_ = r.Close()
	})
}

// captureStdout runs fn and returns what it wrote to os.Stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan string)
	go func() {
		data, _ := io.ReadAll(r)
		done <- string(data)
	}()

	fn()
	_ = w.Close()
	os.Stdout = originalStdout
	return <-done
}

func TestGenerateCmd_FileToFile(t *testing.T) {
	jsonData := `{"id": 1, "email": "test@example.com", "profile": {"age": 30}}`
	output := filepath.Join(t.TempDir(), "schema.ts")

	cmd := &GenerateCmd{Input: writeTempJSON(t, jsonData), Output: output}
	require.NoError(t, cmd.Run(testContext(t)))

	content, err := os.ReadFile(output)
	require.NoError(t, err)

	expected, err := generator.Generate(jsonData, nil)
	require.NoError(t, err)
	assert.Equal(t, expected+"\n", string(content))
	assert.Contains(t, string(content), "  profile: SchemaProfile,\n")
}

func TestGenerateCmd_Stdout(t *testing.T) {
	withStdin(t, `[{"item": "apple"}, {"item": "banana"}]`)

	var runErr error
	out := captureStdout(t, func() {
		runErr = (&GenerateCmd{}).Run(testContext(t))
	})
	require.NoError(t, runErr)

	assert.True(t, strings.HasPrefix(out, `import { z } from "zod";`))
	assert.Contains(t, out, "export const Schema = z.array(SchemaItem);\n")
	assert.True(t, strings.HasSuffix(out, "export type Schema = z.infer<typeof Schema>;\n"))
}

func TestGenerateCmd_FlagsOverrideConfig(t *testing.T) {
	ctx := testContext(t)
	cmd := &GenerateCmd{
		RootName:     "user_profile",
		AddNullable:  true,
		NullableSeed: 11,
		CustomErrors: true,
		Layout:       "hoisted",
		Collisions:   "error",
		MaxDepth:     8,
		Repair:       true,
	}
	require.NoError(t, cmd.apply(ctx.Config))

	cfg := ctx.Config
	assert.Equal(t, "user_profile", cfg.RootName)
	assert.True(t, cfg.Generation.AddNullable)
	assert.Equal(t, uint64(11), cfg.Generation.NullableSeed)
	assert.True(t, cfg.Generation.CustomErrorMessages)
	assert.Equal(t, config.LayoutHoisted, cfg.Generation.Layout)
	assert.Equal(t, config.CollisionError, cfg.Generation.NameCollisions)
	assert.Equal(t, 8, cfg.Generation.MaxDepth)
	assert.True(t, cfg.Input.Repair)
}

func TestGenerateCmd_UnsetFlagsKeepConfig(t *testing.T) {
	ctx := testContext(t)
	ctx.Config.Generation.Layout = config.LayoutHoisted
	ctx.Config.Generation.CustomErrorMessages = true

	require.NoError(t, (&GenerateCmd{}).apply(ctx.Config))
	assert.Equal(t, config.LayoutHoisted, ctx.Config.Generation.Layout)
	assert.True(t, ctx.Config.Generation.CustomErrorMessages)
	assert.Equal(t, config.DefaultMaxDepth, ctx.Config.Generation.MaxDepth)
}

func TestGenerateCmd_InvalidLayout(t *testing.T) {
	cmd := &GenerateCmd{Input: writeTempJSON(t, `{"a": 1}`), Layout: "sideways"}
	err := cmd.Run(testContext(t))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidConfig))
	assert.Contains(t, errors.UserFriendlyError(err), "Configuration error")
}

func TestGenerateCmd_InvalidJSON(t *testing.T) {
	cmd := &GenerateCmd{Input: writeTempJSON(t, `{"name": "x",}`)}
	err := cmd.Run(testContext(t))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidJSON))
	assert.True(t, strings.HasPrefix(errors.UserFriendlyError(err), "JSON parsing error: "))
}

func TestGenerateCmd_RepairFlag(t *testing.T) {
	output := filepath.Join(t.TempDir(), "schema.ts")
	cmd := &GenerateCmd{Input: writeTempJSON(t, `{"name": "x",}`), Output: output, Repair: true}
	require.NoError(t, cmd.Run(testContext(t)))

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(content), "  name: z.string(),\n")
}

func TestReadInput_FromFile(t *testing.T) {
	jsonData := `{"user": {"name": "Alice", "id": 42}}`
	got, err := readInput(writeTempJSON(t, jsonData), false)
	require.NoError(t, err)
	assert.Equal(t, jsonData, got)
}

func TestReadInput_FromStdin(t *testing.T) {
	withStdin(t, `[1, 2, 3]`)
	got, err := readInput("", false)
	require.NoError(t, err)
	assert.Equal(t, `[1, 2, 3]`, got)
}

func TestReadInput_EmptyStdin(t *testing.T) {
	withStdin(t, "")
	_, err := readInput("", false)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrEmptyInput))
}

func TestReadInput_EmptyFile(t *testing.T) {
	_, err := readInput(writeTempJSON(t, ""), false)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrFileEmpty))
}

func TestReadInput_NonExistentFile(t *testing.T) {
	_, err := readInput("/non/existent/input.json", false)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrFileNotFound))
}

func TestReadInteractiveInput(t *testing.T) {
	got, err := readInteractiveInput(strings.NewReader("{\n  \"a\": 1\n}"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", got, "a final line without a newline is kept")

	_, err = readInteractiveInput(strings.NewReader("\n\n"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrEmptyInput))
}

func TestWriteOutput_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ts")
	require.NoError(t, writeOutput(context.Background(), path, "export const A = z.string();"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "export const A = z.string();\n", string(content))
}

func TestWriteOutput_ToStdout(t *testing.T) {
	var err error
	out := captureStdout(t, func() {
		err = writeOutput(context.Background(), "", "line\n")
	})
	require.NoError(t, err)
	assert.Equal(t, "line\n", out)
}

func TestWriteOutput_FileError(t *testing.T) {
	err := writeOutput(context.Background(), "/non/existent/dir/output.ts", "test")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeOutput}))
}

func TestFormatCmd(t *testing.T) {
	output := filepath.Join(t.TempDir(), "formatted.json")
	cmd := &FormatCmd{Input: writeTempJSON(t, `{"b":1,"a":[true]}`), Output: output}
	require.NoError(t, cmd.Run(testContext(t)))

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"b\": 1,\n  \"a\": [\n    true\n  ]\n}\n", string(content))
}

func TestFormatCmd_EchoesInvalidInput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "formatted.json")
	cmd := &FormatCmd{Input: writeTempJSON(t, "{not json"), Output: output}
	require.NoError(t, cmd.Run(testContext(t)))

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "{not json\n", string(content))
}

func TestSampleCmd(t *testing.T) {
	var err error
	out := captureStdout(t, func() {
		err = (&SampleCmd{}).Run(testContext(t))
	})
	require.NoError(t, err)
	assert.Equal(t, samples.User, out)
}

func TestConfigSchemaCmd(t *testing.T) {
	output := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, (&ConfigSchemaCmd{Output: output}).Run(testContext(t)))

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"root_name"`)
}

func TestNewContext_LoadsConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(".gozod.yml", []byte("root_name: Payload\ndev:\n  debug: true\n"), 0o644))

	ctx, err := newContext(context.Background(), "", "", false)
	require.NoError(t, err)
	assert.Equal(t, "Payload", ctx.Config.RootName)
	assert.True(t, ctx.Debug)
}

func TestNewContext_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(".gozod.yml", []byte("generation:\n  layout: sideways\n"), 0o644))

	_, err := newContext(context.Background(), "", "", false)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidConfig))
}
