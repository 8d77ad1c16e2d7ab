// Package validation checks ledger entry metadata against per-source JSON
// schemas.
package validation

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kaizencycle/mobius-browser-shell/internal/models"
)

//go:embed schemas/*.json
var embedded embed.FS

// fallbackName is the schema applied to sources without their own file.
const fallbackName = "default"

type Validator struct {
	schemas  map[string]*jsonschema.Schema
	fallback *jsonschema.Schema
}

// New compiles the built-in schemas.
func New() (*Validator, error) {
	return NewFromFS(embedded, "schemas")
}

// NewFromFS compiles every <source>.json in dir. A default.json is required
// and applies to any source without a dedicated schema.
func NewFromFS(fsys fs.FS, dir string) (*Validator, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir %q: %w", dir, err)
	}
	v := &Validator{schemas: make(map[string]*jsonschema.Schema)}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		source := strings.TrimSuffix(e.Name(), ".json")
		p := path.Join(dir, e.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", p, err)
		}
		schema, err := jsonschema.CompileString("https://mobius.systems/schemas/meta/"+source+".json", string(data))
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", source, err)
		}
		if source == fallbackName {
			v.fallback = schema
			continue
		}
		v.schemas[source] = schema
	}
	if v.fallback == nil {
		return nil, fmt.Errorf("%s: missing %s.json", dir, fallbackName)
	}
	return v, nil
}

// ValidateMeta rejects meta that does not satisfy the schema for source.
func (v *Validator) ValidateMeta(source string, meta map[string]any) error {
	schema, ok := v.schemas[source]
	if !ok {
		schema = v.fallback
	}
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("%w: meta is not JSON-encodable: %v", models.ErrInvalidInput, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: meta: %v", models.ErrInvalidInput, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: meta for %s: %v", models.ErrInvalidInput, source, err)
	}
	return nil
}

// HasSchema reports whether source has a dedicated schema.
func (v *Validator) HasSchema(source string) bool {
	_, ok := v.schemas[source]
	return ok
}
