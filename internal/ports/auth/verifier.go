package auth

import "context"

// AuthVerifier valida un bearer token contra el IdP y devuelve sus
// claims. nil equivale a modo dev (ver middleware.AuthContext).
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
