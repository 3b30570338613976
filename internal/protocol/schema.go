package protocol

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	schemaMu    sync.Mutex
	schemaCache = map[string]*jsonschema.Schema{}
)

// Schema returns the compiled schema for a message type, e.g. "ACT".
func Schema(msgType string) (*jsonschema.Schema, error) {
	name := strings.ToLower(msgType) + ".schema.json"

	schemaMu.Lock()
	defer schemaMu.Unlock()
	if s, ok := schemaCache[name]; ok {
		return s, nil
	}
	src, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("no schema for %s", msgType)
	}
	s, err := jsonschema.CompileString(name, string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	schemaCache[name] = s
	return s, nil
}

// Validate checks a raw message against the schema of its type.
func Validate(msgType string, raw []byte) error {
	s, err := Schema(msgType)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
