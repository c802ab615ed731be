package classify

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pable/go-cm-stats/internal/model"
	"github.com/pable/go-cm-stats/internal/normalize"
)

//go:embed debuff_types.yaml
var defaultTableYAML []byte

// Table maps a canonical roster-member identifier to its debuff type.
// It is read-only once built; classifier functions take it as an argument.
type Table struct {
	tags map[string]model.Tag
}

// NewTable builds a Table from raw identifier -> tag pairs, normalizing keys.
// Two raw keys that normalize to the same identifier must agree on the tag.
func NewTable(entries map[string]model.Tag) (*Table, error) {
	t := &Table{tags: make(map[string]model.Tag, len(entries))}
	for raw, v := range entries {
		tag, err := model.ParseTag(string(v))
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", raw, err)
		}
		id, ok := normalize.Identifier(raw, true)
		if !ok {
			return nil, fmt.Errorf("blank identifier in classification table")
		}
		if prev, dup := t.tags[id]; dup && prev != tag {
			return nil, fmt.Errorf("identifier %q listed as both %s and %s", id, prev, tag)
		}
		t.tags[id] = tag
	}
	return t, nil
}

// ParseTable decodes a YAML mapping of identifier -> tag.
func ParseTable(r io.Reader) (*Table, error) {
	var raw map[string]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode classification table: %w", err)
	}
	entries := make(map[string]model.Tag, len(raw))
	for k, v := range raw {
		tag, err := model.ParseTag(v)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", k, err)
		}
		entries[k] = tag
	}
	return NewTable(entries)
}

// LoadTable reads a classification table from a YAML file.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open classification table: %w", err)
	}
	defer f.Close()
	return ParseTable(f)
}

// DefaultTable returns the table embedded in the binary.
func DefaultTable() *Table {
	t, err := ParseTable(bytes.NewReader(defaultTableYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded classification table: %v", err))
	}
	return t
}

// Lookup returns the tag for an already-normalized identifier.
func (t *Table) Lookup(id string) (model.Tag, bool) {
	if t == nil {
		return "", false
	}
	tag, ok := t.tags[id]
	return tag, ok
}

// Len returns the number of identifiers in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.tags)
}

// Identifiers returns the table's identifiers in sorted order.
func (t *Table) Identifiers() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.tags))
	for id := range t.tags {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
