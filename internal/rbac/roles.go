package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleAdmin  = "admin"
	RoleAgent  = "agent"
	RoleViewer = "viewer"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// CanCommunicate reports whether a role may place calls and send messages.
// Viewers get read-only access to everything else.
func CanCommunicate(role string) bool {
	return role == RoleAdmin || role == RoleAgent
}
