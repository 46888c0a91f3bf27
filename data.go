package arbor

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Data is the input literal a tree is built from. It mirrors the usual
// mind-map JSON shape: { "name": "...", "children": [ ... ] }. Ids are never
// part of the input; Build assigns them.
type Data struct {
	Name     string  `yaml:"name" json:"name"`
	Children []*Data `yaml:"children,omitempty" json:"children,omitempty"`
}

var (
	// ErrMissingName is returned when an input node has no name field.
	ErrMissingName = errors.New("missing name")
	// ErrNilChild is returned when an input children list holds a null entry.
	ErrNilChild = errors.New("null child")
)

// rawData distinguishes an absent name from an empty one.
type rawData struct {
	Name     *string    `yaml:"name"`
	Children []*rawData `yaml:"children"`
}

// ParseData decodes a YAML or JSON tree literal. JSON is accepted because it
// is a subset of YAML. The whole input is validated before anything is
// returned; a malformed node anywhere fails the parse.
func ParseData(src []byte) (*Data, error) {
	var raw rawData
	if err := yaml.Unmarshal(src, &raw); err != nil {
		return nil, fmt.Errorf("arbor: parse tree: %w", err)
	}
	d, err := raw.convert("$")
	if err != nil {
		return nil, fmt.Errorf("arbor: parse tree: %w", err)
	}
	return d, nil
}

// ReadDataFile reads and parses a tree file.
func ReadDataFile(path string) (*Data, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("arbor: read tree %s: %w", path, err)
	}
	d, err := ParseData(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func (r *rawData) convert(path string) (*Data, error) {
	if r.Name == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingName)
	}
	d := &Data{Name: *r.Name}
	if len(r.Children) == 0 {
		return d, nil
	}
	d.Children = make([]*Data, len(r.Children))
	for i, c := range r.Children {
		childPath := fmt.Sprintf("%s.children[%d]", path, i)
		if c == nil {
			return nil, fmt.Errorf("%s: %w", childPath, ErrNilChild)
		}
		child, err := c.convert(childPath)
		if err != nil {
			return nil, err
		}
		d.Children[i] = child
	}
	return d, nil
}

// Count returns the number of nodes in the literal, including d itself.
// Shared or cyclic literals are not detected here; Build rejects them.
func (d *Data) Count() int {
	if d == nil {
		return 0
	}
	n := 1
	for _, c := range d.Children {
		n += c.Count()
	}
	return n
}
