// Package permissions maps a permission snapshot onto the set of agent
// configuration sections the caller may mutate. The mapping is pure policy:
// rendering layers consume the resulting mutability map and apply it as an
// idempotent, declarative disable.
package permissions

import "github.com/agentforge/agentforge/pkg/models"

// Section is one independently gated area of the agent configuration
// surface.
type Section string

const (
	SectionBasicInfo       Section = "basic-info"
	SectionPersonality     Section = "personality"
	SectionTasks           Section = "tasks"
	SectionTools           Section = "tools"
	SectionKnowledge       Section = "knowledge"
	SectionModel           Section = "model"
	SectionGuardrails      Section = "guardrails"
	SectionAccessControl   Section = "access-control"
	SectionTaskPermissions Section = "task-permissions"
	SectionDelegation      Section = "delegation"
	SectionPublishAction   Section = "publish-action"
	SectionDeleteAction    Section = "delete-action"
	SectionTestStep        Section = "test-step"
)

// Mutability is the outcome of an authorization check for one section.
type Mutability string

const (
	Mutable  Mutability = "mutable"
	ReadOnly Mutability = "read-only"
)

// sectionCapabilities maps every plainly gated section to the single
// capability that unlocks it. Delegation and the test step are not in this
// table: delegation is owner-only and the test step is a derived rule.
var sectionCapabilities = map[Section]models.Capability{
	SectionBasicInfo:       models.CapabilityEditBasicInfo,
	SectionPersonality:     models.CapabilityEditPersonality,
	SectionTasks:           models.CapabilityManageTasks,
	SectionTools:           models.CapabilityManageTools,
	SectionKnowledge:       models.CapabilityManageKnowledge,
	SectionModel:           models.CapabilityEditModel,
	SectionGuardrails:      models.CapabilityEditGuardrails,
	SectionAccessControl:   models.CapabilityManageAccess,
	SectionTaskPermissions: models.CapabilityManageTaskPermissions,
	SectionPublishAction:   models.CapabilityPublish,
	SectionDeleteAction:    models.CapabilityDelete,
}

// editCapabilities are the grants that make testing an agent meaningful.
// Holding any one of them unlocks the test step.
var editCapabilities = []models.Capability{
	models.CapabilityEditBasicInfo,
	models.CapabilityEditPersonality,
	models.CapabilityEditModel,
	models.CapabilityEditGuardrails,
	models.CapabilityManageTasks,
	models.CapabilityManageTools,
}

// Sections lists every gated section in stable order.
func Sections() []Section {
	return []Section{
		SectionBasicInfo,
		SectionPersonality,
		SectionTasks,
		SectionTools,
		SectionKnowledge,
		SectionModel,
		SectionGuardrails,
		SectionAccessControl,
		SectionTaskPermissions,
		SectionDelegation,
		SectionPublishAction,
		SectionDeleteAction,
		SectionTestStep,
	}
}

// CanEdit reports whether the snapshot holds any editing grant at all:
// ownership, full admin, or at least one per-section edit capability.
func CanEdit(snapshot models.PermissionSnapshot) bool {
	if snapshot.FullAccess() {
		return true
	}

	for _, c := range editCapabilities {
		if snapshot.Has(c) {
			return true
		}
	}

	return false
}

// Authorize decides whether the holder of the snapshot may mutate the given
// section. Ownership or a full-admin grant unlocks everything, with one
// exception: delegation stays owner-only no matter which capabilities are
// held.
func Authorize(snapshot models.PermissionSnapshot, section Section) Mutability {
	if section == SectionDelegation {
		if snapshot.IsOwner {
			return Mutable
		}

		return ReadOnly
	}

	if snapshot.FullAccess() {
		return Mutable
	}

	if section == SectionTestStep {
		if CanEdit(snapshot) {
			return Mutable
		}

		return ReadOnly
	}

	required, ok := sectionCapabilities[section]
	if !ok {
		return ReadOnly
	}

	if snapshot.Has(required) {
		return Mutable
	}

	return ReadOnly
}

// MutabilityMap computes the outcome for every section at once. Calling it
// repeatedly with the same snapshot always yields an identical map, so
// renderers can re-apply it after every content rebuild without drift.
func MutabilityMap(snapshot models.PermissionSnapshot) map[Section]Mutability {
	result := make(map[Section]Mutability, len(Sections()))
	for _, section := range Sections() {
		result[section] = Authorize(snapshot, section)
	}

	return result
}
