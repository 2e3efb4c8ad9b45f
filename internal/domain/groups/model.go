package groups

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Group es el contenedor de membresía; los eventos referencian un grupo
// pero la membresía no es invariante del core de eventos.
type Group struct {
	ID        string
	Name      string
	CreatedBy string
	CreatedAt time.Time
}

type Member struct {
	GroupID  string
	UserID   string
	Role     Role
	JoinedAt time.Time
}
