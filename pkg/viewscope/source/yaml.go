// Package source loads template data: YAML documents, SQL query results
// and a watcher that reports when a data file changes.
package source

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sambeau/viewscope/pkg/viewscope/errors"
	"github.com/sambeau/viewscope/pkg/viewscope/item"
)

// CastingKey is the mapping key that holds cast hints for its siblings:
//
//	Title: Hello
//	Created: 2024-03-05
//	_casting:
//	  Created: Date
const CastingKey = "_casting"

// ParseYAML decodes a YAML document into a Map, keeping key order.
func ParseYAML(data []byte) (*item.Map, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.New("IO-0001", map[string]any{
			"Operation": "parse",
			"Path":      "YAML",
			"GoError":   err.Error(),
		})
	}
	if len(doc.Content) == 0 {
		return item.NewMap(), nil
	}
	v, err := nodeValue(doc.Content[0])
	if err != nil {
		return nil, err
	}
	m, ok := v.(*item.Map)
	if !ok {
		return nil, errors.New("TYPE-0002", map[string]any{
			"Function": "ParseYAML",
			"Index":    1,
			"Expected": "a mapping",
			"Got":      item.TypeName(v),
		})
	}
	return m, nil
}

// LoadYAMLFile reads and decodes a YAML file.
func LoadYAMLFile(path string) (*item.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("IO-0001", map[string]any{
			"Operation": "read",
			"Path":      path,
			"GoError":   err.Error(),
		})
	}
	return ParseYAML(data)
}

func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])

	case yaml.AliasNode:
		return nodeValue(n.Alias)

	case yaml.MappingNode:
		m := item.NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if key.Value == CastingKey {
				if err := applyCasting(m, val); err != nil {
					return nil, err
				}
				continue
			}
			v, err := nodeValue(val)
			if err != nil {
				return nil, err
			}
			m.Set(key.Value, v)
		}
		return m, nil

	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return item.NewList(items...), nil

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

func applyCasting(m *item.Map, n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: %s must be a mapping of field to cast type", n.Line, CastingKey)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		m.SetCasting(n.Content[i].Value, n.Content[i+1].Value)
	}
	return nil
}
