package authroles

import (
	domainauth "github.com/msccenter/hrm-ui/internal/domain/auth"
)

// StaticRoleMapper maps IdP groups to roles by simple string membership.
// Users outside both groups get the least privileged role.
type StaticRoleMapper struct {
	AdminGroup   string
	ManagerGroup string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	for _, g := range groups {
		if m.ManagerGroup != "" && g == m.ManagerGroup {
			return domainauth.RoleManager
		}
	}
	return domainauth.DefaultRole
}
