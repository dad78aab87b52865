package access

import "context"

const (
	RoleAdmin       = "admin"
	RoleSchemaAdmin = "schema_admin"
)

// ElevatedRoles 可以查看未脱敏模式的角色
var ElevatedRoles = []string{RoleAdmin, RoleSchemaAdmin}

type Repo interface {
	HasRole(ctx context.Context, userID string, roles ...string) (bool, error)
	HasSourceGrant(ctx context.Context, userID, sourceID string) (bool, error)
	GrantRole(ctx context.Context, userID, role string) error
	GrantSource(ctx context.Context, userID, sourceID string) error
}
