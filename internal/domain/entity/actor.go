package entity

const (
	RoleMiddleman = "middleman"
	RoleAdmin     = "admin"
)

// Actor is the already-authenticated caller of a usecase.
type Actor struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}

// IsMediator reports whether the actor may act as a middleman (admins always can).
func (a Actor) IsMediator() bool {
	return a.HasRole(RoleMiddleman) || a.HasRole(RoleAdmin)
}
