package events

import "context"

// Participant es el perfil mínimo de un usuario que este módulo necesita
// para evaluar constraints: timezone IANA y ventana DND local opcional.
type Participant struct {
	UserID      string
	DisplayName string
	Timezone    string // IANA, ej "America/Santiago"

	// Ventana DND local en formato "HH:MM"; vacías = sin ventana.
	// Puede cruzar medianoche (start > end).
	DNDStart string
	DNDEnd   string
}

// ParticipantDirectory lo implementa el módulo de usuarios.
// Se define acá para evitar ciclos de imports entre módulos
// (mismo truco que exponer solo lo que el consumidor necesita).
type ParticipantDirectory interface {
	// Participant devuelve ok=false si el usuario no existe;
	// los checks lo saltan en vez de fallar.
	Participant(ctx context.Context, userID string) (Participant, bool, error)
}
