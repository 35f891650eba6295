package provider

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sambeau/viewscope/pkg/viewscope/errors"
)

// MethodFunc implements one template method.
type MethodFunc func(args []any) (any, error)

// MethodEntry defines a single method with its implementation and metadata.
type MethodEntry struct {
	Fn          MethodFunc
	Arity       string // "0", "1", "0-1", "1+", "2", etc.
	Description string
}

// MethodTable maps method names to their entries. Providers use it to
// implement Invoker without reflection.
type MethodTable map[string]MethodEntry

// Names returns a sorted list of method names in this table.
func (t MethodTable) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call checks arity and invokes the named method.
func (t MethodTable) Call(owner, method string, args []any) (any, error) {
	entry, ok := t[method]
	if !ok {
		return nil, errors.NewUnknownMethod(method, owner, t.Names())
	}
	if !CheckArity(entry.Arity, len(args)) {
		return nil, errors.NewArity(method, len(args), entry.Arity)
	}
	return entry.Fn(args)
}

// CheckArity validates that the argument count matches the arity specification.
// Arity specs: "0", "1", "2", "0-1", "1-2", "0-2", "1+", "0+", "2+", etc.
func CheckArity(spec string, got int) bool {
	spec = strings.TrimSpace(spec)

	if exact, err := strconv.Atoi(spec); err == nil {
		return got == exact
	}

	if lo, hi, found := strings.Cut(spec, "-"); found {
		minVal, errMin := strconv.Atoi(lo)
		maxVal, errMax := strconv.Atoi(hi)
		if errMin == nil && errMax == nil {
			return got >= minVal && got <= maxVal
		}
	}

	if suffix, found := strings.CutSuffix(spec, "+"); found {
		if minVal, err := strconv.Atoi(suffix); err == nil {
			return got >= minVal
		}
	}

	// Unknown spec - be permissive
	return true
}
