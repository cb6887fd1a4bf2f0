package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alanyoungcy/predarb/internal/category"
)

//go:embed categories.yaml
var defaultCategories []byte

// LoadCategories reads the category keyword table from a YAML file. An empty
// path returns the built-in table.
func LoadCategories(path string) (category.Table, error) {
	data := defaultCategories
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read categories: %w", err)
		}
		data = b
	}

	var table category.Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("config: parse categories: %w", err)
	}
	for i, e := range table {
		if e.Name == "" {
			return nil, fmt.Errorf("config: categories: entry %d has no name", i)
		}
	}
	return table, nil
}
