package permissions

import (
	"strings"
)

// CompanyRole is the closed set of roles a member can hold inside a
// company. It is scoped to one company and distinct from the user's
// global role.
type CompanyRole string

const (
	RoleDono          CompanyRole = "dono"
	RoleAdministrador CompanyRole = "administrador"
	RoleModerador     CompanyRole = "moderador"
	RoleMembro        CompanyRole = "membro"
	RoleVisitante     CompanyRole = "visitante"
)

// Normalize maps free-form input onto the canonical role spelling.
func Normalize(role string) CompanyRole {
	return CompanyRole(strings.ToLower(strings.TrimSpace(role)))
}

// IsValidRole reports whether the input names one of the known company
// roles.
func IsValidRole(role string) bool {
	switch Normalize(role) {
	case RoleDono, RoleAdministrador, RoleModerador, RoleMembro, RoleVisitante:
		return true
	}
	return false
}

// IsPrivileged is the single place that decides which company roles may
// perform elevated actions (managing projects and memberships, editing
// or deleting the company).
func IsPrivileged(role string) bool {
	switch Normalize(role) {
	case RoleDono, RoleAdministrador:
		return true
	}
	return false
}
