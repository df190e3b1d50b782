// Package models defines the core domain models for agent configuration.
package models

import "time"

// AgentKind distinguishes the two kinds of agents the studio can build.
// The kind is fixed once chosen; changing it means starting a new draft.
type AgentKind string

const (
	AgentKindConversational AgentKind = "conversational"
	AgentKindProcess        AgentKind = "process"
)

// AgentStatus represents the lifecycle state of an agent configuration.
type AgentStatus string

const (
	AgentStatusDraft     AgentStatus = "draft"     // Editable, not deployed
	AgentStatusPublished AgentStatus = "published" // Live, executable
)

// Agent is the full configuration of an automated agent, built up
// incrementally across wizard steps. Goal is the minimal field required
// before the draft may be persisted at all.
type Agent struct {
	ID            string          `json:"id"`
	Kind          AgentKind       `json:"kind"           validate:"required,oneof=conversational process"`
	Name          string          `json:"name"           validate:"required"`
	Goal          string          `json:"goal"           validate:"required"`
	Description   string          `json:"description"`
	Personality   *Personality    `json:"personality,omitempty"`
	Tasks         []*Task         `json:"tasks,omitempty"`
	Tools         []*ToolRef      `json:"tools,omitempty"`
	Knowledge     []*KnowledgeRef `json:"knowledge,omitempty"`
	Access        *AccessControl  `json:"access,omitempty"`
	Guardrails    *Guardrails     `json:"guardrails,omitempty"`
	Model         *ModelSelection `json:"model,omitempty"`
	Status        AgentStatus     `json:"status"`
	OwnerID       string          `json:"owner_id"`
	CreatedBy     string          `json:"created_by"`
	OwnerAssumed  bool            `json:"owner_assumed,omitempty"` // Ownership came from a client-side fallback, not the backend
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	PublishedAt   *time.Time      `json:"published_at,omitempty"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty"`
}

// ModelSelection records which model backs the agent and why.
type ModelSelection struct {
	Provider      string `json:"provider" validate:"required"`
	Model         string `json:"model"    validate:"required"`
	Justification string `json:"justification"`
}

// AccessControl limits who can see and use a published agent.
type AccessControl struct {
	Visibility   string   `json:"visibility" validate:"required,oneof=private team public"`
	AllowedUsers []string `json:"allowed_users,omitempty"`
	AllowedTeams []string `json:"allowed_teams,omitempty"`
}
