package generator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mcncl/gozod/internal/config"
	"github.com/mcncl/gozod/internal/errors"
	"github.com/mcncl/gozod/internal/models"
)

// ImportLine is the first line of every generated file.
const ImportLine = `import { z } from "zod";`

// refineTemplate wraps an expression in a superRefine scaffold for a key.
const refineTemplate = `%[1]s.superRefine((val, ctx) => {
    // Add custom validation logic for %[2]s
    // Example: if (typeof val === 'string' && val.length < 5) {
    //   ctx.addIssue({
    //     code: z.ZodIssueCode.too_small,
    //     minimum: 5,
    //     type: "string",
    //     inclusive: true,
    //     message: "Custom error: %[2]s must be at least 5 characters"
    //   });
    // }
  })`

// indentUnit is repeated once per nesting level in the source layout.
const indentUnit = "  "

// leafTypes maps leaf expression kinds to their zod builders.
var leafTypes = map[models.ExprKind]string{
	models.ExprNull:     "z.null()",
	models.ExprString:   "z.string()",
	models.ExprDateTime: "z.string().datetime()",
	models.ExprInt:      "z.number().int()",
	models.ExprNumber:   "z.number()",
	models.ExprBool:     "z.boolean()",
	models.ExprUnknown:  "z.unknown()",
}

// Generator renders analysis results as zod schema source
type Generator struct {
	config *config.Config
}

// NewGenerator creates a new Generator instance
func NewGenerator() *Generator {
	return NewGeneratorWithConfig(config.NewConfig())
}

// NewGeneratorWithConfig creates a Generator that honours cfg's layout and output options
func NewGeneratorWithConfig(cfg *config.Config) *Generator {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Generator{config: cfg}
}

// GenerateSchema renders the declaration tree in result. Lines are joined
// with "\n" and the text has no trailing newline.
func (g *Generator) GenerateSchema(result models.AnalysisResult) (string, error) {
	if result.Root == nil {
		return "", errors.NewGenerateError("analysis produced no root declaration", nil)
	}

	var lines []string
	lines = append(lines, headerLines(g.config.Output.FileHeader)...)
	lines = append(lines, ImportLine, "")

	switch g.config.Generation.Layout {
	case config.LayoutSource, "":
		lines = writeSource(lines, result.Root, 0)
	case config.LayoutHoisted:
		lines = writeHoisted(lines, result.Root)
	default:
		return "", errors.NewGenerateError(fmt.Sprintf("unknown layout %q", g.config.Generation.Layout), errors.ErrInvalidConfig)
	}

	root := result.Root.Name
	lines = append(lines,
		"",
		fmt.Sprintf("export const %s = %s;", lowerFirst(root), root),
		fmt.Sprintf("export type %s = z.infer<typeof %s>;", root, root),
	)

	return strings.Join(lines, "\n"), nil
}

// writeSource emits d at depth and each child right after the line that
// references it, one level deeper.
func writeSource(lines []string, d *models.Declaration, depth int) []string {
	indent := strings.Repeat(indentUnit, depth)

	switch d.Kind {
	case models.DeclObject:
		lines = append(lines, fmt.Sprintf("%sexport const %s = z.object({", indent, d.Name))
		for _, f := range d.Fields {
			lines = append(lines, fieldLine(indent, f))
			if f.Child != nil {
				lines = writeSource(lines, f.Child, depth+1)
			}
		}
		lines = append(lines, indent+"});")
	default:
		lines = append(lines, fmt.Sprintf("%sexport const %s = %s;", indent, d.Name, RenderExpr(d.Expr)))
		if d.Item != nil {
			lines = writeSource(lines, d.Item, depth+1)
		}
	}

	return lines
}

// writeHoisted emits every declaration at top level, each one after all the
// declarations it references, separated by blank lines.
func writeHoisted(lines []string, root *models.Declaration) []string {
	first := true
	var visit func(d *models.Declaration)
	visit = func(d *models.Declaration) {
		for _, child := range d.Children() {
			visit(child)
		}
		if !first {
			lines = append(lines, "")
		}
		first = false
		lines = writeSource(lines, flatten(d), 0)
	}
	visit(root)
	return lines
}

// flatten returns a copy of d with child links removed so it renders alone.
func flatten(d *models.Declaration) *models.Declaration {
	out := *d
	out.Item = nil
	if len(d.Fields) > 0 {
		out.Fields = make([]models.Field, len(d.Fields))
		for i, f := range d.Fields {
			f.Child = nil
			out.Fields[i] = f
		}
	}
	return &out
}

func fieldLine(indent string, f models.Field) string {
	return fmt.Sprintf("%s%s%s: %s,", indent, indentUnit, f.Accessor, RenderExpr(f.Type))
}

// RenderExpr renders a type expression: the base, then .nullable(), then the
// superRefine scaffold.
func RenderExpr(e models.TypeExpr) string {
	var out string
	switch e.Kind {
	case models.ExprArray:
		elem := "z.unknown()"
		if e.Elem != nil {
			elem = RenderExpr(*e.Elem)
		}
		out = "z.array(" + elem + ")"
	case models.ExprRef:
		out = e.Ref
	default:
		var ok bool
		if out, ok = leafTypes[e.Kind]; !ok {
			out = leafTypes[models.ExprUnknown]
		}
	}

	if e.Nullable {
		out += ".nullable()"
	}
	if e.Refine != nil {
		out = fmt.Sprintf(refineTemplate, out, e.Refine.Key)
	}
	return out
}

// headerLines turns the configured file header into comment lines.
func headerLines(header string) []string {
	header = strings.TrimRight(header, "\n")
	if strings.TrimSpace(header) == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(header, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "//") {
			line = "// " + line
		}
		lines = append(lines, line)
	}
	return lines
}

// lowerFirst lower-cases the first character of s.
func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
