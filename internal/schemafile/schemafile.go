// Package schemafile loads a target field list from a YAML file, for use
// when the remote table's schema is not fetched over the network.
//
// Format:
//
//	fields:
//	  - id: name
//	    name: 姓名
//	  - id: age
//	    name: 年龄
package schemafile

import (
	"context"
	"fmt"
	"os"

	"github.com/nconklindev/sheetsync/internal/types"

	"gopkg.in/yaml.v3"
)

// File is a parsed field list.
type File struct {
	Fields []types.TargetField `yaml:"fields"`
}

// LoadFile reads and parses the YAML field list at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read field file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a File. Every field needs an id; a missing
// name defaults to the id. Ids must be unique.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse field YAML: %w", err)
	}

	seen := make(map[string]bool, len(f.Fields))
	for i := range f.Fields {
		fld := &f.Fields[i]
		if fld.ID == "" {
			return nil, fmt.Errorf("field %d: id is required", i+1)
		}
		if seen[fld.ID] {
			return nil, fmt.Errorf("field %d: duplicate id %q", i+1, fld.ID)
		}
		seen[fld.ID] = true
		if fld.Name == "" {
			fld.Name = fld.ID
		}
	}

	return &f, nil
}

// ListFields returns the fields in file order.
func (f *File) ListFields(context.Context) ([]types.TargetField, error) {
	return f.Fields, nil
}
