package users

import (
	"context"
	"errors"
	"testing"
)

type testRepo struct {
	byID map[string]User
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]User{}}
}

func (r *testRepo) Create(ctx context.Context, u User) error {
	if _, ok := r.byID[u.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) Update(ctx context.Context, u User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return ErrNotFound
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *testRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out, nil
}

func TestCreate_DefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestRepo())

	u, err := svc.Create(ctx, CreateInput{DisplayName: "Carla"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Timezone != "UTC" {
		t.Errorf("timezone default: got %q want UTC", u.Timezone)
	}
	if u.ID == "" {
		t.Errorf("missing id")
	}

	// Timezone IANA inválida.
	if _, err := svc.Create(ctx, CreateInput{DisplayName: "X", Timezone: "Mars/Olympus"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad tz: got %v want ErrInvalidInput", err)
	}

	// Ventana DND a medias.
	if _, err := svc.Create(ctx, CreateInput{DisplayName: "X", DNDWindowStart: "22:00"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("half window: got %v want ErrInvalidInput", err)
	}
	if _, err := svc.Create(ctx, CreateInput{DisplayName: "X", DNDWindowStart: "25:00", DNDWindowEnd: "07:00"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad clock: got %v want ErrInvalidInput", err)
	}

	// Ventana overnight válida (start > end).
	if _, err := svc.Create(ctx, CreateInput{
		DisplayName:    "Night owl",
		Timezone:       "America/Lima",
		DNDWindowStart: "22:00",
		DNDWindowEnd:   "07:00",
	}); err != nil {
		t.Errorf("overnight window: %v", err)
	}

	if _, err := svc.Create(ctx, CreateInput{DisplayName: "  "}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank name: got %v want ErrInvalidInput", err)
	}
}

func TestUpdate_PartialPatch(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestRepo())

	u, _ := svc.Create(ctx, CreateInput{DisplayName: "Carla", Timezone: "America/Lima"})

	name := "Carla M."
	got, err := svc.Update(ctx, u.ID, UpdateInput{DisplayName: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.DisplayName != "Carla M." || got.Timezone != "America/Lima" {
		t.Errorf("patch result: %+v", got)
	}

	// Setear solo la mitad de la ventana falla contra el estado resultante.
	start := "22:00"
	if _, err := svc.Update(ctx, u.ID, UpdateInput{DNDWindowStart: &start}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("half window patch: got %v want ErrInvalidInput", err)
	}

	// Completa, pasa.
	end := "07:00"
	if _, err := svc.Update(ctx, u.ID, UpdateInput{DNDWindowStart: &start, DNDWindowEnd: &end}); err != nil {
		t.Errorf("full window patch: %v", err)
	}

	if _, err := svc.Update(ctx, "nope", UpdateInput{DisplayName: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user: got %v want ErrNotFound", err)
	}
}

func TestParticipant_Directory(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestRepo())

	u, _ := svc.Create(ctx, CreateInput{
		DisplayName:    "Carla",
		Timezone:       "America/Lima",
		DNDWindowStart: "22:00",
		DNDWindowEnd:   "07:00",
	})

	p, ok, err := svc.Participant(ctx, u.ID)
	if err != nil || !ok {
		t.Fatalf("participant: ok=%v err=%v", ok, err)
	}
	if p.Timezone != "America/Lima" || p.DNDStart != "22:00" || p.DNDEnd != "07:00" {
		t.Errorf("participant mapping: %+v", p)
	}

	// Usuario desconocido: ok=false sin error, el caller lo salta.
	if _, ok, err := svc.Participant(ctx, "ghost"); ok || err != nil {
		t.Errorf("unknown user: ok=%v err=%v", ok, err)
	}
}
