// Package samples holds the example document shown by `gozod sample`.
package samples

import _ "embed"

// User is a small user record covering every inferred type: integers,
// fractions, booleans, date-like strings, primitive arrays, a nested object
// and an array of objects.
//
//go:embed user.json
var User string
