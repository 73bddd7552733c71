// Package permission holds the static role → resource → action capability
// table of the LIMS and the queries built on it.
//
// Every role is enumerated on its own. There is no inheritance between roles,
// so a cell grants exactly the actions listed and nothing else.
package permission

import (
	"fmt"
	"slices"

	"github.com/bactolab/lims/internal/core/domain"
)

// Rules is the literal shape of a matrix: role → resource → allowed actions.
type Rules map[domain.Role]map[domain.Resource][]domain.Action

var (
	crud     = []domain.Action{domain.ActionCreate, domain.ActionRead, domain.ActionUpdate, domain.ActionDelete}
	readOnly = []domain.Action{domain.ActionRead}
	none     = []domain.Action{}
)

func with(base []domain.Action, extra ...domain.Action) []domain.Action {
	return append(slices.Clone(base), extra...)
}

// DefaultRules is the LIMS access policy.
func DefaultRules() Rules {
	return Rules{
		domain.RoleAdmin: {
			domain.ResourceUsers:     crud,
			domain.ResourceSamples:   with(crud, domain.ActionExport),
			domain.ResourceTests:     with(crud, domain.ActionManage),
			domain.ResourceResults:   with(crud, domain.ActionValidate, domain.ActionExport),
			domain.ResourceReagents:  crud,
			domain.ResourceEquipment: crud,
			domain.ResourceAudit:     {domain.ActionRead, domain.ActionExport},
			domain.ResourceSettings:  {domain.ActionRead, domain.ActionUpdate, domain.ActionManage},
			domain.ResourceReports:   {domain.ActionCreate, domain.ActionRead, domain.ActionExport},
		},
		domain.RoleBioanalyst: {
			domain.ResourceUsers:     readOnly,
			domain.ResourceSamples:   {domain.ActionCreate, domain.ActionRead, domain.ActionUpdate},
			domain.ResourceTests:     readOnly,
			domain.ResourceResults:   {domain.ActionCreate, domain.ActionRead, domain.ActionUpdate, domain.ActionValidate, domain.ActionExport},
			domain.ResourceReagents:  {domain.ActionRead, domain.ActionUpdate},
			domain.ResourceEquipment: {domain.ActionRead, domain.ActionUpdate},
			domain.ResourceAudit:     readOnly,
			domain.ResourceSettings:  readOnly,
			domain.ResourceReports:   {domain.ActionCreate, domain.ActionRead, domain.ActionExport},
		},
		domain.RoleLabAssistant: {
			domain.ResourceUsers:     none,
			domain.ResourceSamples:   {domain.ActionCreate, domain.ActionRead},
			domain.ResourceTests:     readOnly,
			domain.ResourceResults:   readOnly,
			domain.ResourceReagents:  readOnly,
			domain.ResourceEquipment: readOnly,
			domain.ResourceAudit:     none,
			domain.ResourceSettings:  none,
			domain.ResourceReports:   readOnly,
		},
	}
}

// Matrix is an immutable permission table. The zero value denies everything.
type Matrix struct {
	rules Rules
}

// New copies rules into a Matrix. Later changes to rules do not affect it.
func New(rules Rules) *Matrix {
	return &Matrix{rules: cloneRules(rules)}
}

var defaultMatrix = New(DefaultRules())

// Default returns the process-wide LIMS matrix.
func Default() *Matrix { return defaultMatrix }

// HasPermission reports whether role may perform action on resource.
// Unknown roles, resources or actions are denied.
func (m *Matrix) HasPermission(role domain.Role, resource domain.Resource, action domain.Action) bool {
	if m == nil {
		return false
	}
	byResource, ok := m.rules[role]
	if !ok {
		return false
	}
	return slices.Contains(byResource[resource], action)
}

// RolePermissions returns a copy of everything role may do, for clients that
// enable or disable controls up front. Unknown roles get an empty map.
func (m *Matrix) RolePermissions(role domain.Role) map[domain.Resource][]domain.Action {
	out := make(map[domain.Resource][]domain.Action)
	if m == nil {
		return out
	}
	for res, acts := range m.rules[role] {
		out[res] = slices.Clone(acts)
	}
	return out
}

// Validate checks that every known (role, resource) pair has a cell and that
// no cell names an unknown action.
func (m *Matrix) Validate() error {
	for _, role := range domain.Roles() {
		byResource, ok := m.rules[role]
		if !ok {
			return fmt.Errorf("permission matrix: role %s has no entry", role)
		}
		for _, res := range domain.Resources() {
			acts, ok := byResource[res]
			if !ok {
				return fmt.Errorf("permission matrix: %s/%s has no entry", role, res)
			}
			for _, a := range acts {
				if !a.Valid() {
					return fmt.Errorf("permission matrix: %s/%s lists unknown action %q", role, res, a)
				}
			}
		}
	}
	return nil
}

// HasPermission queries the default matrix.
func HasPermission(role domain.Role, resource domain.Resource, action domain.Action) bool {
	return defaultMatrix.HasPermission(role, resource, action)
}

// RolePermissions queries the default matrix.
func RolePermissions(role domain.Role) map[domain.Resource][]domain.Action {
	return defaultMatrix.RolePermissions(role)
}

func cloneRules(rules Rules) Rules {
	out := make(Rules, len(rules))
	for role, byResource := range rules {
		cp := make(map[domain.Resource][]domain.Action, len(byResource))
		for res, acts := range byResource {
			cp[res] = slices.Clone(acts)
			if cp[res] == nil {
				cp[res] = []domain.Action{}
			}
		}
		out[role] = cp
	}
	return out
}
