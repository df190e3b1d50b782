package models

// Task is a unit of work a process agent carries out. Instructions are
// ordered; execution follows the slice order.
type Task struct {
	ID           string   `json:"id"`
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description"`
	Instructions []string `json:"instructions,omitempty"`
	Position     int      `json:"position"`
}

// ToolRef points at an external tool the agent may invoke.
type ToolRef struct {
	ID            string         `json:"id"`
	Name          string         `json:"name" validate:"required"`
	Provider      string         `json:"provider"`
	Configuration map[string]any `json:"configuration,omitempty"`
}

// KnowledgeRef points at a knowledge source attached to the agent.
type KnowledgeRef struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"required"`
	URI  string `json:"uri"  validate:"required"`
}
