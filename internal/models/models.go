package models

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// JSONValue is a generic type to represent any JSON value.
// This can be a string, Number, boolean, nil, *JSONObject or JSONArray.
type JSONValue interface{}

// JSONObject is a JSON object that remembers the order its keys were first seen in.
// Setting an existing key replaces the value but keeps the original position.
type JSONObject = orderedmap.OrderedMap[string, JSONValue]

// JSONArray represents a JSON array, which is a slice of JSONValues.
type JSONArray []JSONValue

// Number holds the literal text of a JSON number.
type Number string

// NewJSONObject returns an empty ordered JSON object.
func NewJSONObject() *JSONObject {
	return orderedmap.New[string, JSONValue]()
}

// Kind is the structural kind of a JSON value.
type Kind int

const (
	KindUnknown Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// KindOf reports the structural kind of v. Arrays are checked before objects.
func KindOf(v JSONValue) Kind {
	switch t := v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case Number:
		return KindNumber
	case string:
		return KindString
	case JSONArray:
		return KindArray
	case *JSONObject:
		if t == nil {
			return KindNull
		}
		return KindObject
	default:
		return KindUnknown
	}
}

// IntermediateRepresentation is a structure to hold the parsed JSON data
// in a way that's easy for the analyzer to work with.
type IntermediateRepresentation struct {
	Root     JSONValue
	RootKind Kind
	// Repaired is true when the input only parsed after running it through jsonrepair.
	Repaired bool
}

// ExprKind identifies the base of a type expression.
type ExprKind int

const (
	ExprUnknown ExprKind = iota
	ExprNull
	ExprString
	ExprDateTime
	ExprInt
	ExprNumber
	ExprBool
	ExprArray
	ExprRef
)

// Refinement marks an expression that is wrapped in a custom validation hook
// scaffold mentioning Key.
type Refinement struct {
	Key string
}

// TypeExpr is a schema type expression. Wrappers apply in a fixed order:
// the base, then Nullable, then Refine.
type TypeExpr struct {
	Kind     ExprKind
	Elem     *TypeExpr // element type for ExprArray
	Ref      string    // declaration name for ExprRef
	Nullable bool
	Refine   *Refinement
}

// DeclKind is the body shape of a declaration.
type DeclKind int

const (
	DeclObject DeclKind = iota
	DeclArray
	DeclLeaf
)

// FieldPath is the list of keys leading from the root to a field. Array items
// are represented by the ItemSegment segment.
type FieldPath []string

// ItemSegment marks descent into the sampled element of an array.
const ItemSegment = "[]"

// Append returns a copy of p extended with seg.
func (p FieldPath) Append(seg string) FieldPath {
	out := make(FieldPath, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// String renders the path as dotted keys, e.g. "orders[].id".
func (p FieldPath) String() string {
	var b strings.Builder
	for i, seg := range p {
		if seg == ItemSegment {
			b.WriteString(ItemSegment)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

// Field is one property of an object declaration. Child, when set, is the
// declaration emitted right after the field line.
type Field struct {
	Key      string
	Accessor string
	Path     FieldPath
	Type     TypeExpr
	Child    *Declaration
}

// Declaration is one named unit of generated output.
type Declaration struct {
	Name   string
	Kind   DeclKind
	Fields []Field      // DeclObject
	Expr   TypeExpr     // DeclArray and DeclLeaf
	Item   *Declaration // DeclArray whose sampled element is an object
}

// Children returns the declarations d refers to, in emission order.
func (d *Declaration) Children() []*Declaration {
	var out []*Declaration
	for _, f := range d.Fields {
		if f.Child != nil {
			out = append(out, f.Child)
		}
	}
	if d.Item != nil {
		out = append(out, d.Item)
	}
	return out
}

// AnalysisResult holds the declaration tree for one document.
type AnalysisResult struct {
	Root *Declaration
	// Names lists every declaration name in the order it was claimed.
	Names []string
}
