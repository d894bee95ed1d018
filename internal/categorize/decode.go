package categorize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Model responses must match these shapes before they are trusted.
const categorizedItemsSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"quantity": {"type": ["string", "null"]},
			"price": {"type": ["number", "null"]},
			"category": {"type": ["string", "null"]}
		},
		"required": ["name"]
	}
}`

const suggestedItemsSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"category": {"type": "string"},
			"estimated_price": {"type": "number"},
			"quantity": {"type": "string"}
		},
		"required": ["name", "category", "estimated_price", "quantity"]
	}
}`

var (
	categorizedSchema = jsonschema.MustCompileString("categorized.json", categorizedItemsSchema)
	suggestedSchema   = jsonschema.MustCompileString("suggested.json", suggestedItemsSchema)
)

// decodeCategorizedItems parses a model response into categorized items.
// The response may arrive wrapped in markdown fences or prose; only the
// outermost JSON array is read.
func decodeCategorizedItems(text string) ([]CategorizedItem, error) {
	payload, err := extractJSONArray(text)
	if err != nil {
		return nil, err
	}
	if err := validateSchema(categorizedSchema, payload); err != nil {
		return nil, err
	}

	var decoded []CategorizedItem
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}
	for i := range decoded {
		decoded[i].Name = strings.TrimSpace(decoded[i].Name)
		if decoded[i].Name == "" {
			decoded[i].Name = "Unknown"
		}
		decoded[i].Category = canonicalCategory(decoded[i].Category)
	}
	return decoded, nil
}

// decodeSuggestedItems parses a model response into shopping list entries.
func decodeSuggestedItems(text string) ([]SuggestedItem, error) {
	payload, err := extractJSONArray(text)
	if err != nil {
		return nil, err
	}
	if err := validateSchema(suggestedSchema, payload); err != nil {
		return nil, err
	}

	var decoded []SuggestedItem
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}
	for i := range decoded {
		decoded[i].Name = strings.TrimSpace(decoded[i].Name)
		decoded[i].Category = canonicalCategory(decoded[i].Category)
	}
	return decoded, nil
}

// extractJSONArray strips markdown fences and surrounding prose, keeping
// the outermost JSON array in the text.
func extractJSONArray(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "[")
	if start == -1 {
		return nil, fmt.Errorf("no JSON array found in response")
	}
	end := strings.LastIndex(text, "]")
	if end == -1 || end < start {
		return nil, fmt.Errorf("invalid JSON array in response")
	}
	return []byte(text[start : end+1]), nil
}

func validateSchema(schema *jsonschema.Schema, payload []byte) error {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return fmt.Errorf("unmarshaling json: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}
