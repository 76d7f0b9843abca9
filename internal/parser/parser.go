package parser

import (
	"bytes"
	stderrors "errors" // Standard errors package
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/kaptinlin/jsonrepair"

	"github.com/mcncl/gozod/internal/errors" // Custom errors package
	"github.com/mcncl/gozod/internal/models"
)

// Options tune how input text is turned into a value tree.
type Options struct {
	// Repair runs malformed input through jsonrepair and parses the result.
	Repair bool
}

// frame is one open container while walking the token stream.
type frame struct {
	object *models.JSONObject
	array  models.JSONArray
	key    string
	hasKey bool
}

// Parse converts JSON data from an io.Reader into an IntermediateRepresentation
func Parse(reader io.Reader) (models.IntermediateRepresentation, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return models.IntermediateRepresentation{}, errors.NewInputError("failed to read input", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses a single JSON document, keeping object keys in the
// order they appear.
func ParseBytes(data []byte) (models.IntermediateRepresentation, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.IntermediateRepresentation{}, errors.NewParsingError("unexpected end of JSON input", errors.ErrEmptyInput)
	}

	// The token stream is not strict about separators, so validate up front
	// and surface the decoder's own message when the document is malformed.
	if err := validate(data); err != nil {
		return models.IntermediateRepresentation{}, err
	}

	root, err := decode(data)
	if err != nil {
		return models.IntermediateRepresentation{}, err
	}

	return models.IntermediateRepresentation{
		Root:     root,
		RootKind: models.KindOf(root),
	}, nil
}

// validate checks that data holds exactly one JSON value. Numbers are kept
// as literals so values outside the float64 range still pass.
func validate(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var scratch interface{}
	if err := decoder.Decode(&scratch); err != nil {
		return errors.NewParsingError(err.Error(), errors.ErrInvalidJSON)
	}
	if !decoder.More() || decoder.InputOffset() >= int64(len(data)) {
		return nil
	}
	if err := decoder.Decode(&scratch); err != nil {
		return errors.NewParsingError(err.Error(), errors.ErrInvalidJSON)
	}
	return errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
}

// decode walks the token stream with an explicit stack so nesting depth does
// not grow the call stack.
func decode(data []byte) (models.JSONValue, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var (
		stack []*frame
		root  models.JSONValue
		done  bool
	)

	// emit attaches a finished value to the enclosing container or the root.
	emit := func(v models.JSONValue) {
		if len(stack) == 0 {
			root = v
			done = true
			return
		}
		top := stack[len(stack)-1]
		if top.object != nil {
			top.object.Set(top.key, v)
			top.hasKey = false
			return
		}
		top.array = append(top.array, v)
	}

	for !done {
		tok, err := decoder.Token()
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				return nil, errors.NewParsingError("unexpected end of JSON input", errors.ErrInvalidJSON)
			}
			return nil, errors.NewParsingError(err.Error(), errors.ErrInvalidJSON)
		}

		// Inside an object a string token is a key unless one is pending.
		if n := len(stack); n > 0 && stack[n-1].object != nil && !stack[n-1].hasKey {
			switch k := tok.(type) {
			case string:
				stack[n-1].key = k
				stack[n-1].hasKey = true
				continue
			case json.Delim:
				if k != '}' {
					return nil, errors.NewParsingError(fmt.Sprintf("unexpected %q where an object key was expected", rune(k)), errors.ErrInvalidJSON)
				}
			default:
				return nil, errors.NewParsingError(fmt.Sprintf("unexpected %v where an object key was expected", k), errors.ErrInvalidJSON)
			}
		}

		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				stack = append(stack, &frame{object: models.NewJSONObject()})
			case '[':
				stack = append(stack, &frame{array: models.JSONArray{}})
			case '}', ']':
				if len(stack) == 0 {
					return nil, errors.NewParsingError(fmt.Sprintf("unexpected %q", rune(v)), errors.ErrInvalidJSON)
				}
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.object != nil {
					emit(top.object)
				} else {
					emit(top.array)
				}
			}
		case json.Number:
			emit(models.Number(v))
		case float64:
			emit(models.Number(strconv.FormatFloat(v, 'g', -1, 64)))
		case string:
			emit(v)
		case bool:
			emit(v)
		case nil:
			emit(nil)
		default:
			return nil, errors.NewParsingError(fmt.Sprintf("unexpected token %v", v), errors.ErrInvalidJSON)
		}
	}

	// Anything but whitespace after the root value is an error.
	if _, err := decoder.Token(); !stderrors.Is(err, io.EOF) {
		return nil, errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
	}

	return root, nil
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (models.IntermediateRepresentation, error) {
	return ParseBytes([]byte(jsonString))
}

// ParseStringWithOptions parses JSON from a string, optionally repairing
// malformed input. The original parse error is returned when repair fails.
func ParseStringWithOptions(jsonString string, opts Options) (models.IntermediateRepresentation, error) {
	ir, err := ParseString(jsonString)
	if err == nil || !opts.Repair || !stderrors.Is(err, errors.ErrInvalidJSON) {
		return ir, err
	}

	repaired, repairErr := jsonrepair.JSONRepair(jsonString)
	if repairErr != nil {
		return models.IntermediateRepresentation{}, err
	}
	ir, repairedErr := ParseString(repaired)
	if repairedErr != nil {
		return models.IntermediateRepresentation{}, err
	}
	ir.Repaired = true
	return ir, nil
}

// ReadFile reads the raw text of a JSON input file
func ReadFile(filePath string) (string, error) {
	if strings.TrimSpace(filePath) == "" {
		return "", errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return "", errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	if len(data) == 0 {
		return "", errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}
	return string(data), nil
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (models.IntermediateRepresentation, error) {
	text, err := ReadFile(filePath)
	if err != nil {
		return models.IntermediateRepresentation{}, err
	}
	return ParseString(text)
}
