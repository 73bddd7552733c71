package domain

import "strings"

// Role is the category a user account belongs to. It is fixed at account
// creation and only an administrator may change it.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleBioanalyst   Role = "BIOANALYST"
	RoleLabAssistant Role = "LAB_ASSISTANT"
)

// Resource names a protected class of domain objects.
type Resource string

const (
	ResourceUsers     Resource = "users"
	ResourceSamples   Resource = "samples"
	ResourceTests     Resource = "tests"
	ResourceResults   Resource = "results"
	ResourceReagents  Resource = "reagents"
	ResourceEquipment Resource = "equipment"
	ResourceAudit     Resource = "audit"
	ResourceSettings  Resource = "settings"
	ResourceReports   Resource = "reports"
)

// Action names an operation category checked against a resource.
type Action string

const (
	ActionCreate   Action = "create"
	ActionRead     Action = "read"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionValidate Action = "validate"
	ActionExport   Action = "export"
	ActionManage   Action = "manage"
)

var (
	roles     = []Role{RoleAdmin, RoleBioanalyst, RoleLabAssistant}
	resources = []Resource{
		ResourceUsers, ResourceSamples, ResourceTests, ResourceResults, ResourceReagents,
		ResourceEquipment, ResourceAudit, ResourceSettings, ResourceReports,
	}
	actions = []Action{
		ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionValidate, ActionExport, ActionManage,
	}
)

// Roles returns every known role in declaration order.
func Roles() []Role { return append([]Role(nil), roles...) }

// Resources returns every known resource in declaration order.
func Resources() []Resource { return append([]Resource(nil), resources...) }

// Actions returns every known action in declaration order.
func Actions() []Action { return append([]Action(nil), actions...) }

func (r Role) Valid() bool {
	for _, known := range roles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Resource) Valid() bool {
	for _, known := range resources {
		if r == known {
			return true
		}
	}
	return false
}

func (a Action) Valid() bool {
	for _, known := range actions {
		if a == known {
			return true
		}
	}
	return false
}

// ParseRole accepts the canonical upper-case form as well as lower-case input
// (e.g. "lab_assistant").
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// ParseResource returns ErrInvalidResource for names outside the closed set.
func ParseResource(s string) (Resource, error) {
	r := Resource(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidResource
	}
	return r, nil
}

// ParseAction returns ErrInvalidAction for names outside the closed set.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", ErrInvalidAction
	}
	return a, nil
}
