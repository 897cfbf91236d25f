package models

// Role gates what an account may do.
type Role string

const (
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// Can reports whether r satisfies the required role. Admins can do everything editors can.
func (r Role) Can(required Role) bool {
	switch required {
	case RoleEditor:
		return r == RoleEditor || r == RoleAdmin
	case RoleAdmin:
		return r == RoleAdmin
	}
	return false
}

// User is an account stored in the users collection.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"passwordHash"`
}

// Principal is the authenticated caller, without credentials.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (u User) Principal() Principal {
	return Principal{ID: u.ID, Username: u.Username, Role: u.Role}
}
