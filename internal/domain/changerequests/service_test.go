package changerequests_test

import (
	"context"
	"errors"
	"testing"
	"time"

	mem "group-calendar/internal/adapters/storage/memory"
	"group-calendar/internal/domain/changerequests"
	"group-calendar/internal/domain/events"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]changerequests.ChangeRequest
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]changerequests.ChangeRequest{}}
}

func (r *testRepo) Create(ctx context.Context, cr changerequests.ChangeRequest) error {
	if _, ok := r.byID[cr.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[cr.ID] = cr
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (changerequests.ChangeRequest, error) {
	cr, ok := r.byID[id]
	if !ok {
		return changerequests.ChangeRequest{}, changerequests.ErrNotFound
	}
	return cr, nil
}

func (r *testRepo) Update(ctx context.Context, cr changerequests.ChangeRequest) error {
	if _, ok := r.byID[cr.ID]; !ok {
		return changerequests.ErrNotFound
	}
	r.byID[cr.ID] = cr
	return nil
}

func (r *testRepo) List(ctx context.Context, filter changerequests.ListFilter) ([]changerequests.ChangeRequest, error) {
	out := make([]changerequests.ChangeRequest, 0)
	for _, cr := range r.byID {
		if filter.EventID != "" && cr.EventID != filter.EventID {
			continue
		}
		if filter.Status != "" && cr.Status != filter.Status {
			continue
		}
		out = append(out, cr)
	}
	return out, nil
}

// -------------------------
// Fixtures
// -------------------------

type staticDirectory struct{}

func (staticDirectory) Participant(ctx context.Context, userID string) (events.Participant, bool, error) {
	return events.Participant{UserID: userID, Timezone: "UTC"}, true, nil
}

// newFixture arma el workflow completo contra un servicio de eventos
// real (storage in-memory) para que approve ejercite los invariantes de
// verdad, no un mock.
func newFixture(t *testing.T) (*changerequests.Service, *events.Service, events.Event) {
	t.Helper()

	eventsSvc := events.NewService(mem.NewEventsRepo(), staticDirectory{})
	svc := changerequests.NewService(newTestRepo(), eventsSvc)

	ev, err := eventsSvc.Create(context.Background(), events.CreateInput{
		GroupID:     "g1",
		Title:       "Quarterly review",
		StartUTC:    time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
		EndUTC:      time.Date(2026, 3, 5, 11, 0, 0, 0, time.UTC),
		OrganizerID: "organizer",
		AttendeeIDs: []string{"requester"},
	})
	if err != nil {
		t.Fatalf("fixture event: %v", err)
	}
	return svc, eventsSvc, ev
}

// -------------------------
// Submit
// -------------------------

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	svc, _, ev := newFixture(t)

	cr, err := svc.Submit(ctx, ev.ID, "requester", changerequests.TypeTimeChange, map[string]any{
		"start_time_utc": "2026-03-05T12:00:00Z",
		"end_time_utc":   "2026-03-05T13:00:00Z",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if cr.Status != changerequests.StatusPending {
		t.Errorf("status: got %s want pending", cr.Status)
	}
	if cr.Payload["start_time_utc"] != "2026-03-05T12:00:00Z" {
		t.Errorf("payload not stored verbatim: %+v", cr.Payload)
	}

	// Evento inexistente.
	if _, err := svc.Submit(ctx, "nope", "requester", changerequests.TypeCancel, nil); !errors.Is(err, changerequests.ErrEventNotFound) {
		t.Errorf("missing event: got %v want ErrEventNotFound", err)
	}

	// Tipo desconocido.
	if _, err := svc.Submit(ctx, ev.ID, "requester", "resize", nil); !errors.Is(err, changerequests.ErrInvalidInput) {
		t.Errorf("bad type: got %v want ErrInvalidInput", err)
	}
}

// -------------------------
// Approve
// -------------------------

func TestApprove_TimeChange(t *testing.T) {
	ctx := context.Background()
	svc, eventsSvc, ev := newFixture(t)

	cr, _ := svc.Submit(ctx, ev.ID, "requester", changerequests.TypeTimeChange, map[string]any{
		"start_time_utc": "2026-03-05T12:00:00Z",
		"end_time_utc":   "2026-03-05T13:00:00Z",
	})

	decided, err := svc.Approve(ctx, cr.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if decided.Status != changerequests.StatusApproved {
		t.Errorf("status: got %s", decided.Status)
	}

	// La mutación se aplicó como organizer y subió la versión.
	got, _ := eventsSvc.GetByID(ctx, ev.ID)
	if got.Version != 2 {
		t.Errorf("event version: got %d want 2", got.Version)
	}
	if !got.StartUTC.Equal(time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("start not applied: %v", got.StartUTC)
	}

	muts, _ := eventsSvc.Mutations(ctx, ev.ID)
	if len(muts) != 2 || muts[1].ActorID != "organizer" {
		t.Errorf("ledger: %d entries, actor=%s", len(muts), muts[len(muts)-1].ActorID)
	}
}

func TestApprove_Cancel(t *testing.T) {
	ctx := context.Background()
	svc, eventsSvc, ev := newFixture(t)

	cr, _ := svc.Submit(ctx, ev.ID, "requester", changerequests.TypeCancel, map[string]any{
		"reason": "venue unavailable",
	})

	if _, err := svc.Approve(ctx, cr.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	got, _ := eventsSvc.GetByID(ctx, ev.ID)
	if got.Status != events.StatusCancelled {
		t.Errorf("event status: %s", got.Status)
	}
	if got.CancelReason != "venue unavailable" {
		t.Errorf("reason: %q", got.CancelReason)
	}
	if got.CancelledBy != "organizer" {
		t.Errorf("cancelled by: %q (la aprobación actúa como organizer)", got.CancelledBy)
	}
}

func TestApprove_FailedMutationLeavesPending(t *testing.T) {
	ctx := context.Background()
	svc, _, ev := newFixture(t)

	// Payload que deja end <= start: la mutación subyacente falla.
	cr, _ := svc.Submit(ctx, ev.ID, "requester", changerequests.TypeTimeChange, map[string]any{
		"end_time_utc": "2026-03-05T09:00:00Z",
	})

	if _, err := svc.Approve(ctx, cr.ID); !errors.Is(err, events.ErrInvalidInput) {
		t.Fatalf("approve: got %v want events.ErrInvalidInput", err)
	}

	// Sigue pending: se puede reintentar o rechazar.
	got, _ := svc.GetByID(ctx, cr.ID)
	if got.Status != changerequests.StatusPending {
		t.Errorf("status after failed approve: %s", got.Status)
	}
	if _, err := svc.Reject(ctx, cr.ID); err != nil {
		t.Errorf("reject after failed approve: %v", err)
	}
}

func TestDecisionsAreTerminal(t *testing.T) {
	ctx := context.Background()
	svc, eventsSvc, ev := newFixture(t)

	cr, _ := svc.Submit(ctx, ev.ID, "requester", changerequests.TypeUpdateDetails, map[string]any{
		"title": "Renamed",
	})

	if _, err := svc.Reject(ctx, cr.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// El evento quedó intacto.
	got, _ := eventsSvc.GetByID(ctx, ev.ID)
	if got.Title != "Quarterly review" || got.Version != 1 {
		t.Errorf("event touched by reject: title=%q version=%d", got.Title, got.Version)
	}

	// Redecidir en cualquier dirección falla.
	if _, err := svc.Approve(ctx, cr.ID); !errors.Is(err, changerequests.ErrInvalidState) {
		t.Errorf("approve after reject: got %v want ErrInvalidState", err)
	}
	if _, err := svc.Reject(ctx, cr.ID); !errors.Is(err, changerequests.ErrInvalidState) {
		t.Errorf("double reject: got %v want ErrInvalidState", err)
	}
}

func TestList_Filters(t *testing.T) {
	ctx := context.Background()
	svc, _, ev := newFixture(t)

	a, _ := svc.Submit(ctx, ev.ID, "requester", changerequests.TypeCancel, nil)
	b, _ := svc.Submit(ctx, ev.ID, "requester", changerequests.TypeUpdateDetails, map[string]any{"title": "X"})
	if _, err := svc.Reject(ctx, b.ID); err != nil {
		t.Fatalf("setup reject: %v", err)
	}

	pending, err := svc.List(ctx, changerequests.ListFilter{EventID: ev.ID, Status: changerequests.StatusPending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != a.ID {
		t.Errorf("pending filter: %+v", pending)
	}

	all, _ := svc.List(ctx, changerequests.ListFilter{EventID: ev.ID})
	if len(all) != 2 {
		t.Errorf("all for event: got %d want 2", len(all))
	}
}
