package permission

import "github.com/bactolab/lims/internal/core/domain"

// CanAccessUserData allows administrators, and any caller reading their own
// account.
func CanAccessUserData(callerRole domain.Role, callerID, targetID string) bool {
	if callerRole == domain.RoleAdmin {
		return true
	}
	return callerID != "" && callerID == targetID
}

// CanValidateResults is domain policy above the matrix: a lab assistant never
// validates clinical results.
func CanValidateResults(role domain.Role) bool {
	return role == domain.RoleAdmin || role == domain.RoleBioanalyst
}

// CanModifySettings reserves system settings for administrators.
func CanModifySettings(role domain.Role) bool {
	return role == domain.RoleAdmin
}
