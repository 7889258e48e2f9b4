package auth

type PermissionChecker interface {
	CanManagePayments(userPermissions []string) bool
	CanRefundPayments(userPermissions []string) bool
	CanViewReports(userPermissions []string) bool
	HasAnyPermission(userPermissions []string, requiredPermissions []string) bool
	IsAdmin(userPermissions []string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() *DefaultPermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) CanManagePayments(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermissionManagePayments})
}

func (c *DefaultPermissionChecker) CanRefundPayments(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermissionRefundPayments})
}

func (c *DefaultPermissionChecker) CanViewReports(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermissionViewReports})
}

// HasAnyPermission treats admin as holding every permission.
func (c *DefaultPermissionChecker) HasAnyPermission(userPermissions []string, requiredPermissions []string) bool {
	u := User{Permissions: userPermissions}
	return u.HasAnyPermission(requiredPermissions)
}

func (c *DefaultPermissionChecker) IsAdmin(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermissionAdmin})
}
