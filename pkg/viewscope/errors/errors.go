// Package errors provides structured error types for scope resolution.
//
// ScopeError carries a class, a catalog code and a rendered message so that
// callers can tell fatal navigation and configuration problems apart from
// ordinary lookup failures.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and display.
type ErrorClass string

const (
	ClassNavigation ErrorClass = "navigation" // Invalid Up/Top/pop navigation
	ClassConfig     ErrorClass = "config"     // Malformed provider or cast registration
	ClassUndefined  ErrorClass = "undefined"  // Property or method not found
	ClassType       ErrorClass = "type"       // Type mismatches
	ClassArity      ErrorClass = "arity"      // Wrong argument count
	ClassParse      ErrorClass = "parse"      // Lookup chain syntax
	ClassIO         ErrorClass = "io"         // Data file operations
	ClassDatabase   ErrorClass = "database"   // SQL data sources
)

// ScopeError represents any error raised while resolving template scope.
type ScopeError struct {
	Class   ErrorClass     `json:"class"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hints   []string       `json:"hints,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *ScopeError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}
	return sb.String()
}

// Is reports whether target is a ScopeError with the same code.
// This lets errors.Is match against the exported sentinels.
func (e *ScopeError) Is(target error) bool {
	t, ok := target.(*ScopeError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// Fatal reports whether the error must abort rendering.
func (e *ScopeError) Fatal() bool {
	return e.Class == ClassNavigation || e.Class == ClassConfig
}

// ToJSON returns the error as JSON bytes.
func (e *ScopeError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Sentinels for errors.Is. Only the code is compared.
var (
	ErrNoAncestor     = &ScopeError{Code: "NAV-0001"}
	ErrScopeUnderflow = &ScopeError{Code: "NAV-0002"}
	ErrNoValueSource  = &ScopeError{Code: "CONF-0001"}
	ErrUnknownCast    = &ScopeError{Code: "CONF-0002"}
	ErrRegistryFrozen = &ScopeError{Code: "CONF-0003"}
	ErrDuplicateName  = &ScopeError{Code: "CONF-0005"}
	ErrNotFound       = &ScopeError{Code: "UNDEF-0001"}
	ErrUnknownMethod  = &ScopeError{Code: "UNDEF-0002"}
)

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass
	Template string
	Hints    []string
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// Navigation
	"NAV-0001": {
		Class:    ClassNavigation,
		Template: "Up called when we're already at the top of the scope",
		Hints:    []string{"remove one $Up from the lookup chain"},
	},
	"NAV-0002": {
		Class:    ClassNavigation,
		Template: "popScope called without a matching pushScope",
	},

	// Configuration
	"CONF-0001": {
		Class:    ClassConfig,
		Template: "injected property {{.Property}} doesn't have a value or callable value source provided",
	},
	"CONF-0002": {
		Class:    ClassConfig,
		Template: "unknown cast type '{{.Cast}}' for property '{{.Property}}'",
	},
	"CONF-0003": {
		Class:    ClassConfig,
		Template: "provider registry already built; cannot register {{.Provider}}",
	},
	"CONF-0004": {
		Class:    ClassConfig,
		Template: "provider {{.Provider}} exposes a variable with no name or method",
	},
	"CONF-0005": {
		Class:    ClassConfig,
		Template: "{{.Kind}} property '{{.Property}}' is exposed by both {{.First}} and {{.Second}}",
	},

	// Undefined
	"UNDEF-0001": {
		Class:    ClassUndefined,
		Template: "property not found: {{.Property}} on {{.Type}}",
	},
	"UNDEF-0002": {
		Class:    ClassUndefined,
		Template: "unknown template method '{{.Method}}' on {{.Type}}",
	},
	"UNDEF-0003": {
		Class:    ClassUndefined,
		Template: "unknown module: {{.Module}}",
	},

	// Type
	"TYPE-0001": {
		Class:    ClassType,
		Template: "cannot iterate over {{.Type}}",
	},
	"TYPE-0002": {
		Class:    ClassType,
		Template: "argument {{.Index}} to `{{.Function}}` must be {{.Expected}}, got {{.Got}}",
	},
	"TYPE-0003": {
		Class:    ClassType,
		Template: "cannot render {{.Type}} in a template",
	},

	// Arity
	"ARITY-0001": {
		Class:    ClassArity,
		Template: "wrong number of arguments to `{{.Function}}`. got={{.Got}}, want={{.Want}}",
	},

	// Parse
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "lookup {{.Input}}: {{.Reason}} at offset {{.Offset}}",
	},

	// I/O
	"IO-0001": {
		Class:    ClassIO,
		Template: "failed to {{.Operation}} '{{.Path}}': {{.GoError}}",
	},

	// Database
	"DB-0001": {
		Class:    ClassDatabase,
		Template: "{{.Driver}} {{.Operation}} failed: {{.GoError}}",
	},
	"DB-0002": {
		Class:    ClassDatabase,
		Template: "unsupported database driver: {{.Driver}}",
		Hints:    []string{"use sqlite, postgres or mysql"},
	},
}

// New creates a ScopeError from the catalog.
// If the code is not found, creates a generic error with the message.
func New(code string, data map[string]any) *ScopeError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &ScopeError{
			Class:   ClassType,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		if rendered := renderTemplate(hintTmpl, data); rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &ScopeError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewSimple creates an error without using the catalog.
func NewSimple(class ErrorClass, message string) *ScopeError {
	return &ScopeError{
		Class:   class,
		Message: message,
	}
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// NewNotFound creates a property-not-found error with an optional
// "Did you mean?" hint drawn from the item's known field names.
func NewNotFound(property, typeName string, available []string) *ScopeError {
	err := New("UNDEF-0001", map[string]any{
		"Property": property,
		"Type":     typeName,
	})
	if suggestion := FindClosestMatch(property, available); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}
	return err
}

// NewUnknownMethod creates an unknown template method error.
func NewUnknownMethod(method, typeName string, available []string) *ScopeError {
	err := New("UNDEF-0002", map[string]any{
		"Method": method,
		"Type":   typeName,
	})
	if suggestion := FindClosestMatch(method, available); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}
	return err
}

// NewArity creates an arity error for a template method.
func NewArity(function string, got int, want string) *ScopeError {
	return New("ARITY-0001", map[string]any{
		"Function": function,
		"Got":      got,
		"Want":     want,
	})
}

// NewArgType creates an argument type error.
func NewArgType(function string, index int, expected string, got any) *ScopeError {
	return New("TYPE-0002", map[string]any{
		"Function": function,
		"Index":    index + 1,
		"Expected": expected,
		"Got":      fmt.Sprintf("%T", got),
	})
}

// ============================================================================
// Fuzzy Matching - "Did you mean?" suggestions
// ============================================================================

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(a)][len(b)]
}

// matchThreshold is the largest edit distance worth suggesting for input.
func matchThreshold(input string) int {
	switch {
	case len(input) >= 7:
		return 3
	case len(input) >= 4:
		return 2
	default:
		return 1
	}
}

// FindClosestMatch finds the closest match to input among candidates,
// ignoring case. Returns "" if nothing is close enough.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	inputLower := strings.ToLower(input)
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	var bestMatch string
	bestDistance := -1
	for _, candidate := range sorted {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	if bestDistance <= 0 || bestDistance > matchThreshold(input) {
		return ""
	}
	return bestMatch
}
