package auth

// Claims es la identidad extraída del token. UserID es el mismo ID que
// usa el módulo de users; el resto es informativo.
type Claims struct {
	UserID      string
	Email       string
	DisplayName string
}
