package builtins

import (
	"sort"
	"strings"

	"github.com/sambeau/viewscope/pkg/viewscope/logging"
	"github.com/sambeau/viewscope/pkg/viewscope/provider"
)

// Literals exposes fixed values as globals. A key written "Name:Cast"
// gives the value a cast type, e.g. "Footer:HTMLText".
type Literals struct {
	values map[string]any
}

// NewLiterals creates a literal globals provider.
func NewLiterals(values map[string]any) *Literals {
	return &Literals{values: values}
}

// TemplateGlobalVariables implements provider.GlobalProvider.
func (l *Literals) TemplateGlobalVariables() []provider.Variable {
	keys := make([]string, 0, len(l.values))
	for k := range l.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vars := make([]provider.Variable, 0, len(keys))
	for _, k := range keys {
		name, casting, _ := strings.Cut(k, ":")
		vars = append(vars, provider.Value(strings.TrimSpace(name), l.values[k], strings.TrimSpace(casting)))
	}
	return vars
}

// Register adds the standard providers to reg: the loop helpers, the site
// globals and, when there are any, the literal globals.
func Register(reg *provider.Registry, site *Site, globals map[string]any, log *logging.Logger) error {
	if err := reg.AddIterator(NewBasicIterator); err != nil {
		return err
	}
	if site != nil {
		if err := reg.AddGlobal(site); err != nil {
			return err
		}
	}
	if len(globals) > 0 {
		if err := reg.AddGlobal(NewLiterals(globals)); err != nil {
			return err
		}
	}
	log.Debug("builtin providers registered", "globals", len(globals))
	return nil
}
