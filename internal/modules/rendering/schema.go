// README: JSON schema for rendered turns and schema-level parsing with clarifier drop.
package rendering

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const renderedTurnSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["stage", "lead"],
  "properties": {
    "stage": {"type": "string"},
    "lead": {"type": "string"},
    "recommendations": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["productId"],
        "properties": {
          "productId": {"type": "string", "minLength": 1},
          "title": {"type": "string"},
          "reason": {"type": "string"}
        }
      }
    },
    "clarifier": {
      "type": ["object", "null"],
      "required": ["question", "options"],
      "properties": {
        "facet": {"type": "string"},
        "question": {"type": "string"},
        "options": {"type": "array", "items": {"type": "string"}}
      }
    }
  }
}`

// SchemaJSON is handed to the generation collaborator as the response contract.
func SchemaJSON() string { return renderedTurnSchema }

var schema = jsonschema.MustCompileString("rendered_turn.json", renderedTurnSchema)

// Parse decodes raw generation output and checks it against the schema. When every schema error
// sits under the clarifier, the clarifier is dropped once and the document re-checked.
// dropped reports whether that happened.
func Parse(raw []byte) (turn RenderedTurn, dropped bool, err error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return RenderedTurn{}, false, &RepairError{Violations: []Violation{{Field: "$", Reason: "malformed json: " + err.Error()}}}
	}

	if verr := schema.Validate(doc); verr != nil {
		locs := errorLocations(verr)
		obj, isObj := doc.(map[string]any)
		if !isObj || !allUnder(locs, "/clarifier") {
			return RenderedTurn{}, false, schemaRepairError(locs, verr)
		}
		delete(obj, "clarifier")
		dropped = true
		if verr := schema.Validate(obj); verr != nil {
			return RenderedTurn{}, true, schemaRepairError(errorLocations(verr), verr)
		}
	}

	fixed, err := json.Marshal(doc)
	if err != nil {
		return RenderedTurn{}, dropped, &RepairError{Violations: []Violation{{Field: "$", Reason: err.Error()}}}
	}
	if err := json.Unmarshal(fixed, &turn); err != nil {
		return RenderedTurn{}, dropped, &RepairError{Violations: []Violation{{Field: "$", Reason: err.Error()}}}
	}
	return turn, dropped, nil
}

// errorLocations returns the instance locations of the leaf validation errors.
func errorLocations(err error) []string {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{""}
	}
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, e.InstanceLocation)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	return out
}

func allUnder(locs []string, prefix string) bool {
	if len(locs) == 0 {
		return false
	}
	for _, l := range locs {
		if l != prefix && !strings.HasPrefix(l, prefix+"/") {
			return false
		}
	}
	return true
}

func schemaRepairError(locs []string, err error) *RepairError {
	field := "$"
	if len(locs) > 0 && locs[0] != "" {
		field = locs[0]
	}
	return &RepairError{Violations: []Violation{{Field: field, Reason: "schema: " + err.Error()}}}
}
