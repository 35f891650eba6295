package source

import (
	"context"

	"github.com/sambeau/viewscope/pkg/viewscope/item"
	"github.com/sambeau/viewscope/pkg/viewscope/logging"
)

// Options says where the root item's data comes from.
type Options struct {
	File   string            // YAML file; optional
	Driver string            // sqlite, postgres or mysql
	DSN    string            // empty means no database
	Lists  map[string]string // field name -> query
}

// Load builds the root item: the YAML file's fields, then one list field
// per configured query.
func Load(ctx context.Context, opts Options, log *logging.Logger) (*item.Map, error) {
	root := item.NewMap()
	if opts.File != "" {
		m, err := LoadYAMLFile(opts.File)
		if err != nil {
			return nil, err
		}
		root = m
		log.Debug("loaded data file", "path", opts.File, "fields", root.Len())
	}

	if opts.DSN == "" || len(opts.Lists) == 0 {
		return root, nil
	}
	db, err := OpenSQL(ctx, opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := LoadLists(ctx, db, opts.Lists, root); err != nil {
		return nil, err
	}
	log.Debug("loaded query lists", "driver", opts.Driver, "lists", len(opts.Lists))
	return root, nil
}
