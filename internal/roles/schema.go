package roles

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaCache memoizes compiled parsing-tool schemas, grounded on
// pkg/pluginsdk/validation.go's compileSchema (same cache-by-source-bytes
// shape, swapped from plugin config schemas to parsingTools schemas).
var schemaCache sync.Map

func compileToolSchema(tool ParsingTool) (*jsonschema.Schema, error) {
	if tool.Schema == nil {
		return nil, nil
	}
	raw, err := json.Marshal(tool.Schema)
	if err != nil {
		return nil, fmt.Errorf("encode schema for parsing tool %q: %w", tool.Name, err)
	}
	key := tool.Name + "\x00" + string(raw)
	if cached, ok := schemaCache.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}
	compiled, err := jsonschema.CompileString(tool.Name+".schema.json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema for parsing tool %q: %w", tool.Name, err)
	}
	schemaCache.Store(key, compiled)
	return compiled, nil
}

// ValidateParsingToolSchemas compiles every parsing tool schema a role
// declares, so a malformed JSON-schema payload fails at load time (spec §4.1
// "parsingTools (tool schemas executed in-process)") instead of at first
// dispatch.
func ValidateParsingToolSchemas(role *Role) error {
	for _, pt := range role.ParsingTools {
		if _, err := compileToolSchema(pt); err != nil {
			return err
		}
	}
	return nil
}

// ValidateArguments checks a parsing tool call's raw JSON arguments against
// its declared schema (spec §4.3 step 5's dispatch of parsing calls). A tool
// with no schema accepts any well-formed JSON object.
func ValidateArguments(tool ParsingTool, input []byte) error {
	schema, err := compileToolSchema(tool)
	if err != nil {
		return err
	}
	if schema == nil {
		return nil
	}
	var decoded any
	if len(input) == 0 {
		decoded = map[string]any{}
	} else if err := json.Unmarshal(input, &decoded); err != nil {
		return fmt.Errorf("decode arguments for parsing tool %q: %w", tool.Name, err)
	}
	if err := schema.Validate(decoded); err != nil {
		return fmt.Errorf("arguments for parsing tool %q: %w", tool.Name, err)
	}
	return nil
}
