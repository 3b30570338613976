package catalogs

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	//go:embed schemas/terrain.schema.json
	terrainSchema string
	//go:embed schemas/items.schema.json
	itemsSchema string
	//go:embed schemas/templates.schema.json
	templatesSchema string
)

var (
	schemaMu    sync.Mutex
	schemaCache = map[string]*jsonschema.Schema{}
)

func compiled(name, src string) (*jsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()
	if s, ok := schemaCache[name]; ok {
		return s, nil
	}
	s, err := jsonschema.CompileString(name+".schema.json", src)
	if err != nil {
		return nil, fmt.Errorf("%s schema: %w", name, err)
	}
	schemaCache[name] = s
	return s, nil
}

// validateDoc checks a raw catalog document against its schema before it is
// decoded into typed defs.
func validateDoc(name, schemaSrc string, raw []byte) error {
	s, err := compiled(name, schemaSrc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
