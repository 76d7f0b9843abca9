package analyzer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/araddon/dateparse"

	"github.com/mcncl/gozod/internal/config"
	"github.com/mcncl/gozod/internal/errors"
	"github.com/mcncl/gozod/internal/models"
	"github.com/mcncl/gozod/internal/nullable"
)

// Regex patterns for keys and date-like strings
var (
	identifierRegex = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_$]*$`)
	isoPrefixRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T|\s)`)
)

// itemSuffix is appended to the name of an array's element declaration.
const itemSuffix = "Item"

// Analyzer turns a parsed JSON document into a tree of declarations.
// An Analyzer is not safe for concurrent use; each call to Analyze starts
// from a clean name registry.
type Analyzer struct {
	// names counts how often a base name has been requested
	names map[string]int
	// claimed holds every declaration name handed out so far
	claimed map[string]struct{}
	order    []string
	policy   nullable.Policy
	sampler  Sampler
	maxDepth int
	config   *config.Config
}

// Sampler chooses the element an array's item type is inferred from.
// It reports false for an array with nothing to sample.
type Sampler func(arr models.JSONArray) (models.JSONValue, bool)

// samplers maps each configurable strategy to its implementation.
var samplers = map[config.SamplingStrategy]Sampler{
	config.SamplingFirstElement: FirstElement,
}

// FirstElement samples arr[0]; later elements never influence the result.
func FirstElement(arr models.JSONArray) (models.JSONValue, bool) {
	if len(arr) == 0 {
		return nil, false
	}
	return arr[0], true
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithConfig(config.NewConfig())
}

// NewAnalyzerWithConfig creates a new Analyzer instance with custom configuration.
func NewAnalyzerWithConfig(cfg *config.Config) *Analyzer {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Analyzer{config: cfg}
}

// Analyze walks ir and returns the declaration tree rooted at rootName.
// policy decides which object fields are marked nullable; nil marks none.
func (a *Analyzer) Analyze(ir models.IntermediateRepresentation, rootName string, policy nullable.Policy) (models.AnalysisResult, error) {
	if rootName == "" {
		rootName = config.DefaultRootName
	}
	if policy == nil {
		policy = nullable.Never
	}

	strategy := a.config.Generation.ArraySampling
	if strategy == "" {
		strategy = config.SamplingFirstElement
	}
	sampler, ok := samplers[strategy]
	if !ok {
		return models.AnalysisResult{}, errors.NewConfigError(
			fmt.Sprintf("unknown array sampling strategy %q", strategy),
			errors.ErrInvalidConfig,
		)
	}

	a.maxDepth = a.config.Generation.MaxDepth
	if a.maxDepth <= 0 {
		a.maxDepth = config.DefaultMaxDepth
	}

	a.names = make(map[string]int)
	a.claimed = make(map[string]struct{})
	a.order = nil
	a.policy = policy
	a.sampler = sampler

	name, err := a.claim(rootName, nil)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	var root *models.Declaration
	switch v := ir.Root.(type) {
	case *models.JSONObject:
		if v == nil {
			root = a.leafDeclaration(name, nil)
			break
		}
		root, err = a.analyzeObject(v, name, nil, 0)
	case models.JSONArray:
		root, err = a.analyzeRootArray(v, name, 0)
	default:
		root = a.leafDeclaration(name, v)
	}
	if err != nil {
		return models.AnalysisResult{}, err
	}

	return models.AnalysisResult{Root: root, Names: a.order}, nil
}

// leafDeclaration aliases a primitive value reached at the root.
func (a *Analyzer) leafDeclaration(name string, value models.JSONValue) *models.Declaration {
	return &models.Declaration{
		Name: name,
		Kind: models.DeclLeaf,
		Expr: a.refine(InferLeaf(value), name),
	}
}

// analyzeRootArray handles an array at the top of the document.
func (a *Analyzer) analyzeRootArray(arr models.JSONArray, name string, depth int) (*models.Declaration, error) {
	decl := &models.Declaration{Name: name, Kind: models.DeclArray}

	first, ok := a.sample(arr)
	if !ok {
		decl.Expr = arrayOf(models.TypeExpr{Kind: models.ExprUnknown})
		return decl, nil
	}

	if obj, isObject := asObject(first); isObject {
		itemName, err := a.claim(name+itemSuffix, models.FieldPath{models.ItemSegment})
		if err != nil {
			return nil, err
		}
		decl.Expr = arrayOf(models.TypeExpr{Kind: models.ExprRef, Ref: itemName})
		decl.Item, err = a.analyzeObject(obj, itemName, models.FieldPath{models.ItemSegment}, depth+1)
		if err != nil {
			return nil, err
		}
		return decl, nil
	}

	decl.Expr = arrayOf(a.refine(InferLeaf(first), name))
	return decl, nil
}

// analyzeObject builds an object declaration. Fields keep the key order of obj.
func (a *Analyzer) analyzeObject(obj *models.JSONObject, name string, path models.FieldPath, depth int) (*models.Declaration, error) {
	if depth >= a.maxDepth {
		return nil, errors.NewAnalysisError(
			fmt.Sprintf("value at %q nests deeper than %d levels", displayPath(path), a.maxDepth),
			errors.ErrMaxDepth,
		)
	}

	decl := &models.Declaration{
		Name:   name,
		Kind:   models.DeclObject,
		Fields: make([]models.Field, 0, obj.Len()),
	}

	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		field, err := a.analyzeField(pair.Key, pair.Value, name, path.Append(pair.Key), depth)
		if err != nil {
			return nil, err
		}
		decl.Fields = append(decl.Fields, field)
	}

	return decl, nil
}

// analyzeField infers the type of one object property. The nullable draw
// happens before any child declaration is analyzed.
func (a *Analyzer) analyzeField(key string, value models.JSONValue, parentName string, path models.FieldPath, depth int) (models.Field, error) {
	field := models.Field{
		Key:      key,
		Accessor: Accessor(key),
		Path:     path,
	}

	if obj, ok := asObject(value); ok {
		nested, err := a.claim(parentName+Capitalize(key), path)
		if err != nil {
			return models.Field{}, err
		}
		field.Type = models.TypeExpr{Kind: models.ExprRef, Ref: nested, Nullable: a.nullable(path)}
		field.Child, err = a.analyzeObject(obj, nested, path, depth+1)
		if err != nil {
			return models.Field{}, err
		}
		return field, nil
	}

	if arr, ok := value.(models.JSONArray); ok {
		return a.analyzeArrayField(field, arr, parentName, depth)
	}

	expr := InferLeaf(value)
	expr.Nullable = a.nullable(path)
	field.Type = a.refine(expr, key)
	return field, nil
}

// analyzeArrayField handles an array-valued property.
func (a *Analyzer) analyzeArrayField(field models.Field, arr models.JSONArray, parentName string, depth int) (models.Field, error) {
	first, ok := a.sample(arr)
	if !ok {
		field.Type = arrayOf(models.TypeExpr{Kind: models.ExprUnknown})
		field.Type.Nullable = a.nullable(field.Path)
		return field, nil
	}

	if obj, isObject := asObject(first); isObject {
		itemPath := field.Path.Append(models.ItemSegment)
		itemName, err := a.claim(parentName+Capitalize(field.Key)+itemSuffix, itemPath)
		if err != nil {
			return models.Field{}, err
		}
		expr := arrayOf(models.TypeExpr{Kind: models.ExprRef, Ref: itemName})
		expr.Nullable = a.nullable(field.Path)
		field.Type = a.refine(expr, field.Key)
		field.Child, err = a.analyzeObject(obj, itemName, itemPath, depth+1)
		if err != nil {
			return models.Field{}, err
		}
		return field, nil
	}

	field.Type = arrayOf(a.refine(InferLeaf(first), field.Key))
	field.Type.Nullable = a.nullable(field.Path)
	return field, nil
}

// sample picks the element that stands for the whole array.
func (a *Analyzer) sample(arr models.JSONArray) (models.JSONValue, bool) {
	return a.sampler(arr)
}

func (a *Analyzer) nullable(path models.FieldPath) bool {
	return a.policy.Nullable(path)
}

// refine attaches the custom error scaffold for key when enabled.
func (a *Analyzer) refine(expr models.TypeExpr, key string) models.TypeExpr {
	if a.config.Generation.CustomErrorMessages {
		expr.Refine = &models.Refinement{Key: key}
	}
	return expr
}

// claim registers a declaration name, resolving clashes per the configured policy.
func (a *Analyzer) claim(base string, path models.FieldPath) (string, error) {
	name := base
	if _, taken := a.claimed[name]; taken {
		if a.config.Generation.NameCollisions == config.CollisionError {
			return "", errors.NewAnalysisError(
				fmt.Sprintf("declaration name %q for %q is already used by another path", base, displayPath(path)),
				errors.ErrNameCollision,
			)
		}
		name = a.generateUniqueName(base)
	}
	a.claimed[name] = struct{}{}
	a.order = append(a.order, name)
	return name, nil
}

// generateUniqueName appends the next free counter to baseName.
func (a *Analyzer) generateUniqueName(baseName string) string {
	count := a.names[baseName]
	for {
		count++
		name := fmt.Sprintf("%s%d", baseName, count)
		if _, taken := a.claimed[name]; !taken {
			a.names[baseName] = count
			return name
		}
	}
}

func displayPath(path models.FieldPath) string {
	if len(path) == 0 {
		return "(root)"
	}
	return path.String()
}

func arrayOf(elem models.TypeExpr) models.TypeExpr {
	return models.TypeExpr{Kind: models.ExprArray, Elem: &elem}
}

func asObject(v models.JSONValue) (*models.JSONObject, bool) {
	obj, ok := v.(*models.JSONObject)
	return obj, ok && obj != nil
}

// InferLeaf returns the type expression for a value without recursing into it.
// Arrays and objects fall through to the unknown type.
func InferLeaf(v models.JSONValue) models.TypeExpr {
	switch t := v.(type) {
	case nil:
		return models.TypeExpr{Kind: models.ExprNull}
	case string:
		if IsLikelyDate(t) {
			return models.TypeExpr{Kind: models.ExprDateTime}
		}
		return models.TypeExpr{Kind: models.ExprString}
	case models.Number:
		if isIntegral(string(t)) {
			return models.TypeExpr{Kind: models.ExprInt}
		}
		return models.TypeExpr{Kind: models.ExprNumber}
	case float64:
		if isWhole(t) {
			return models.TypeExpr{Kind: models.ExprInt}
		}
		return models.TypeExpr{Kind: models.ExprNumber}
	case int, int64:
		return models.TypeExpr{Kind: models.ExprInt}
	case bool:
		return models.TypeExpr{Kind: models.ExprBool}
	default:
		return models.TypeExpr{Kind: models.ExprUnknown}
	}
}

// isIntegral reports whether a JSON number literal has a finite whole value.
func isIntegral(literal string) bool {
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil && !isRangeError(err) {
		return false
	}
	return isWhole(f)
}

func isRangeError(err error) bool {
	numErr, ok := err.(*strconv.NumError)
	return ok && numErr.Err == strconv.ErrRange
}

func isWhole(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && math.Trunc(f) == f
}

// IsLikelyDate reports whether s looks like a calendar date or timestamp.
// Bare numbers such as "2023" or unix timestamps are not treated as dates,
// and the parsed year must appear in s.
func IsLikelyDate(s string) bool {
	if isoPrefixRegex.MatchString(s) {
		return true
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false
	}
	if _, err := strconv.ParseFloat(trimmed, 64); err == nil || isRangeError(err) {
		return false
	}
	t, ok := parseDate(trimmed)
	return ok && strings.Contains(trimmed, strconv.Itoa(t.Year()))
}

// parseDate wraps dateparse.ParseAny, which can panic on some malformed input.
func parseDate(s string) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	t, err := dateparse.ParseAny(s)
	return t, err == nil
}

// Accessor returns key as a property name, quoting it unless it is a plain identifier.
func Accessor(key string) string {
	if identifierRegex.MatchString(key) {
		return key
	}
	return `"` + key + `"`
}

// Capitalize upper-cases the first character of s and leaves the rest alone.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
