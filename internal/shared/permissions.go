package shared

// Permission names used across the dashboard. Names follow the
// "<category>.<action>" convention; the category is also stored as an
// explicit column on the permissions table.
const (
	PermAdminPanel       = "admin.access_panel"
	PermAdminPermissions = "admin.manage_permissions"

	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermCustomersView = "customers.view"
	PermCustomersEdit = "customers.edit"

	PermOrdersView   = "orders.view"
	PermOrdersEdit   = "orders.edit"
	PermOrdersDelete = "orders.delete"

	PermNotesView = "notes.view"
	PermNotesEdit = "notes.edit"

	PermLicenseManage = "license.manage"
)

// RegisteredPermissions lists every permission name the authorization gates
// reference, whether wired as route middleware or checked inside a service.
// The set is checked against the permissions table at startup so a missing
// seed surfaces before traffic is served.
func RegisteredPermissions() []string {
	return []string{
		PermAdminPanel,
		PermAdminPermissions,
		PermUsersView,
		PermUsersEdit,
		PermCustomersView,
		PermCustomersEdit,
		PermOrdersView,
		PermOrdersEdit,
		PermOrdersDelete,
		PermNotesView,
		PermNotesEdit,
		PermLicenseManage,
	}
}
