package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/chainguard-dev/clog"

	"github.com/mcncl/gozod/internal/config"
	"github.com/mcncl/gozod/internal/errors"
	"github.com/mcncl/gozod/internal/formatter"
	"github.com/mcncl/gozod/internal/generator"
	"github.com/mcncl/gozod/internal/parser"
	"github.com/mcncl/gozod/internal/samples"
	"github.com/mcncl/gozod/internal/schema"
)

// CLI defines the command-line interface
var CLI struct {
	Debug   bool   `help:"Enable debug logging." short:"d"`
	Config  string `help:"Path to config file. Defaults to the nearest .gozod.yml." short:"c" type:"path"`
	EnvFile string `help:"Load GOZOD_* variables from a dotenv file." type:"path"`

	Generate     GenerateCmd     `cmd:"" default:"withargs" help:"Generate a zod schema from a JSON document."`
	Format       FormatCmd       `cmd:"" help:"Pretty-print a JSON document. Invalid input is echoed unchanged."`
	ConfigSchema ConfigSchemaCmd `cmd:"" name:"config-schema" help:"Print the JSON Schema of the config file."`
	Sample       SampleCmd       `cmd:"" help:"Print an example JSON document."`
	Version      VersionCmd      `cmd:"" help:"Show version information."`
}

// Context holds the runtime context
type Context struct {
	context.Context
	Debug  bool
	Config *config.Config
}

// Version information
const (
	Version = "0.1.0"
)

// GenerateCmd converts JSON into a zod schema
type GenerateCmd struct {
	Input        string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	Output       string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	RootName     string `help:"Name for the root declaration." short:"r"`
	AddNullable  bool   `help:"Mark some fields .nullable()."`
	NullableSeed uint64 `help:"Seed for nullable draws. Defaults to one derived from the clock."`
	CustomErrors bool   `help:"Wrap field types in a superRefine scaffold."`
	Layout       string `help:"Declaration layout: source or hoisted."`
	Collisions   string `help:"Name collision policy: suffix or error."`
	MaxDepth     int    `help:"Maximum nesting depth of the input."`
	Repair       bool   `help:"Try to repair malformed JSON before giving up."`
	Interactive  bool   `help:"Run in interactive mode, allowing direct JSON input with Ctrl+D to process." short:"I"`
}

// FormatCmd pretty-prints JSON
type FormatCmd struct {
	Input       string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	Output      string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	Interactive bool   `help:"Run in interactive mode, allowing direct JSON input with Ctrl+D to process." short:"I"`
}

// ConfigSchemaCmd prints the config file schema
type ConfigSchemaCmd struct {
	Output string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
}

// SampleCmd prints the example document
type SampleCmd struct{}

// VersionCmd prints the version
type VersionCmd struct{}

func main() {
	// Parse CLI arguments with Kong
	parser := kong.Must(&CLI,
		kong.Name("gozod"),
		kong.Description("A tool to convert JSON to zod schemas"),
		kong.UsageOnError(),
	)

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		// If there's an error parsing arguments, the usage will already be shown by kong.UsageOnError()
		os.Exit(1)
	}

	// Check if no arguments provided and set interactive mode by default
	if len(os.Args) == 1 {
		CLI.Generate.Interactive = true
	}

	ctx, err := newContext(context.Background(), CLI.Config, CLI.EnvFile, CLI.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(1)
	}

	if err := kctx.Run(ctx); err != nil {
		// Use our custom error handling to provide user-friendly error messages
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))

		// Show help on error
		fmt.Fprintf(os.Stderr, "\nFor help, run: gozod --help\n")

		os.Exit(1)
	}
}

// newContext loads configuration and installs the logger.
func newContext(parent context.Context, configPath, envFile string, debug bool) (*Context, error) {
	cfg, err := config.LoadConfigWithCLI(parent, configPath, envFile)
	if err != nil {
		return nil, err
	}
	debug = debug || cfg.Dev.Debug

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := clog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return &Context{
		Context: clog.WithLogger(parent, logger),
		Debug:   debug,
		Config:  cfg,
	}, nil
}

// Run generates a schema from the selected input
func (g *GenerateCmd) Run(ctx *Context) error {
	if err := g.apply(ctx.Config); err != nil {
		return err
	}

	input, err := readInput(g.Input, g.Interactive)
	if err != nil {
		return err
	}

	out, err := generator.NewService(ctx.Config).Generate(ctx, input)
	if err != nil {
		return err
	}

	return writeOutput(ctx, g.Output, out)
}

// apply overlays flags onto cfg. Zero values leave the config alone, so a
// flag can switch a feature on but not off.
func (g *GenerateCmd) apply(cfg *config.Config) error {
	if g.RootName != "" {
		cfg.RootName = g.RootName
	}
	if g.AddNullable {
		cfg.Generation.AddNullable = true
	}
	if g.NullableSeed != 0 {
		cfg.Generation.NullableSeed = g.NullableSeed
	}
	if g.CustomErrors {
		cfg.Generation.CustomErrorMessages = true
	}
	if g.Layout != "" {
		cfg.Generation.Layout = config.Layout(g.Layout)
	}
	if g.Collisions != "" {
		cfg.Generation.NameCollisions = config.CollisionPolicy(g.Collisions)
	}
	if g.MaxDepth != 0 {
		cfg.Generation.MaxDepth = g.MaxDepth
	}
	if g.Repair {
		cfg.Input.Repair = true
	}
	return cfg.Validate()
}

// Run pretty-prints the selected input
func (f *FormatCmd) Run(ctx *Context) error {
	input, err := readInput(f.Input, f.Interactive)
	if err != nil {
		return err
	}
	return writeOutput(ctx, f.Output, formatter.Format(input))
}

// Run prints the config schema
func (c *ConfigSchemaCmd) Run(ctx *Context) error {
	data, err := schema.ConfigSchemaJSON()
	if err != nil {
		return err
	}
	return writeOutput(ctx, c.Output, string(data))
}

// Run prints the sample document
func (s *SampleCmd) Run(ctx *Context) error {
	return writeOutput(ctx, "", samples.User)
}

// Run prints the version
func (v *VersionCmd) Run(ctx *Context) error {
	fmt.Printf("gozod version %s\n", Version)
	return nil
}

// readInput reads JSON text from a file, piped stdin, or an interactive paste
func readInput(path string, interactive bool) (string, error) {
	if path != "" {
		return parser.ReadFile(path)
	}

	// Check if stdin has data
	stdinInfo, err := os.Stdin.Stat()
	if err != nil {
		return "", errors.NewInputError("failed to access stdin", err)
	}

	// Interactive mode or piped input
	if (stdinInfo.Mode() & os.ModeCharDevice) != 0 {
		// Terminal is interactive (not piped)
		if interactive {
			return readInteractiveInput(os.Stdin)
		}
		// No data provided on stdin and not in interactive mode
		return "", errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	// Read from stdin (piped input)
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", errors.NewInputError("failed to read from stdin", err)
	}

	if len(data) == 0 {
		return "", errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}

	return string(data), nil
}

// writeOutput writes text to a file or stdout, ending it with a newline
func writeOutput(ctx context.Context, path, text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	if path != "" {
		// Write to file
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
		}
		clog.FromContext(ctx).Infof("Output written to %s", path)
		return nil
	}

	// Write to stdout
	if _, err := io.WriteString(os.Stdout, text); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// readInteractiveInput provides an interactive mode for users to paste JSON
// and signal completion with Ctrl+D (EOF)
func readInteractiveInput(in io.Reader) (string, error) {
	fmt.Fprintln(os.Stderr, "gozod Interactive Mode")
	fmt.Fprintln(os.Stderr, "Paste your JSON below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	// Read all input until EOF (Ctrl+D)
	reader := bufio.NewReader(in)
	var jsonBuilder strings.Builder

	for {
		line, err := reader.ReadString('\n')
		jsonBuilder.WriteString(line)
		if err == io.EOF {
			// End of input
			break
		}
		if err != nil {
			return "", errors.NewInputError("error reading input", err)
		}
	}

	jsonData := jsonBuilder.String()
	if strings.TrimSpace(jsonData) == "" {
		return "", errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}

	fmt.Fprintln(os.Stderr, "\nProcessing JSON...")
	return jsonData, nil
}
