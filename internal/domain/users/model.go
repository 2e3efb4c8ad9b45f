package users

import "time"

// User es el perfil de un colaborador: display name, timezone IANA y
// ventana DND local opcional (consumida por el módulo de eventos, acá
// solo se administra).
type User struct {
	ID          string
	DisplayName string

	// Timezone IANA, ej "America/Santiago". Default "UTC".
	Timezone string

	// Ventana DND local "HH:MM"; ambas vacías = sin ventana.
	// start > end denota ventana overnight (ej 22:00-07:00).
	DNDWindowStart string
	DNDWindowEnd   string

	Aliases []string

	CreatedAt time.Time
	UpdatedAt time.Time
}
