package models

// Capability is a single named permission grant a delegated editor may hold
// on an agent. The owner and holders of CapabilityFullAdmin bypass
// per-capability checks entirely.
type Capability string

const (
	CapabilityEditBasicInfo         Capability = "edit-basic-info"
	CapabilityEditPersonality       Capability = "edit-personality"
	CapabilityEditModel             Capability = "edit-model"
	CapabilityEditGuardrails        Capability = "edit-guardrails"
	CapabilityManageTasks           Capability = "manage-tasks"
	CapabilityManageTools           Capability = "manage-tools"
	CapabilityManageKnowledge       Capability = "manage-knowledge"
	CapabilityManageAccess          Capability = "manage-access"
	CapabilityManageTaskPermissions Capability = "manage-task-permissions"
	CapabilityPublish               Capability = "publish"
	CapabilityDelete                Capability = "delete"
	CapabilityFullAdmin             Capability = "full-admin"
)

// PermissionSnapshot is the caller's view of what they may do to one agent,
// fetched once per edit session. When the snapshot cannot be fetched at all
// the caller must substitute RestrictedSnapshot, never assume full access.
type PermissionSnapshot struct {
	IsOwner      bool         `json:"is_owner"`
	IsAdmin      bool         `json:"is_admin"`
	Capabilities []Capability `json:"capabilities"`
}

// Has reports whether the snapshot carries the given capability.
func (s PermissionSnapshot) Has(c Capability) bool {
	for _, have := range s.Capabilities {
		if have == c {
			return true
		}
	}

	return false
}

// FullAccess reports whether per-capability checks are short-circuited.
func (s PermissionSnapshot) FullAccess() bool {
	return s.IsOwner || s.Has(CapabilityFullAdmin)
}

// RestrictedSnapshot is the maximally restrictive snapshot: not owner, no
// capabilities. It is the mandatory fallback when authorization state is
// unobtainable.
func RestrictedSnapshot() PermissionSnapshot {
	return PermissionSnapshot{}
}
