package models

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Guardrails constrains what a deployed agent is allowed to do. Rules is a
// free-form object validated against guardrailsSchema rather than a fixed
// struct, so new rule kinds can ship without a model change.
type Guardrails struct {
	BlockedTopics []string       `json:"blocked_topics,omitempty"`
	MaxTurns      int            `json:"max_turns,omitempty" validate:"omitempty,min=1"`
	Rules         map[string]any `json:"rules,omitempty"`
}

const guardrailsSchema = `{
	"type": "object",
	"properties": {
		"tone": {"type": "string", "enum": ["strict", "balanced", "permissive"]},
		"pii_redaction": {"type": "boolean"},
		"escalation_contact": {"type": "string"},
		"max_tool_calls": {"type": "integer", "minimum": 0},
		"allowed_domains": {"type": "array", "items": {"type": "string"}}
	},
	"additionalProperties": false
}`

// Validate checks the free-form rules object against the guardrails schema.
func (g *Guardrails) Validate() error {
	if g == nil || len(g.Rules) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewStringLoader(guardrailsSchema)
	dataLoader := gojsonschema.NewGoLoader(g.Rules)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var descs []string
		for _, desc := range result.Errors() {
			descs = append(descs, desc.String())
		}

		return fmt.Errorf("invalid guardrail rules: %s", strings.Join(descs, "; "))
	}

	return nil
}
