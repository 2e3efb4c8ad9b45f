package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"group-calendar/internal/router"
)

func TestHTTP_EndToEnd_EventLifecycle(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	// 1) Usuarios: organizer y un attendee con DND overnight en Lima.
	organizerID := createUser(t, ts.URL, map[string]any{
		"display_name": "Alice",
	})
	carlaID := createUser(t, ts.URL, map[string]any{
		"display_name":           "Carla",
		"default_timezone":       "America/Lima",
		"dnd_window_start_local": "22:00",
		"dnd_window_end_local":   "07:00",
	})

	// 2) Grupo
	groupID := createGroup(t, ts.URL, organizerID, "Platform team")

	// 3) Organizer crea evento Soft con carla invitada
	st, body := doReq(t, ts.URL, "POST", "/events", organizerID, map[string]any{
		"group_id":       groupID,
		"title":          "Sprint planning",
		"start_time_utc": "2026-03-02T10:00:00Z",
		"end_time_utc":   "2026-03-02T11:00:00Z",
		"attendee_ids":   []string{carlaID},
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create event, got %d body=%s", st, string(body))
	}
	var created struct {
		ID      string `json:"id"`
		Version int    `json:"version"`
		Status  string `json:"status"`
	}
	_ = json.Unmarshal(body, &created)
	if created.ID == "" || created.Version != 1 || created.Status != "Proposed" {
		t.Fatalf("created event: %s", string(body))
	}
	eventID := created.ID

	// 4) Sin identidad no se puede crear
	{
		st, _ := doReq(t, ts.URL, "POST", "/events", "", map[string]any{
			"group_id":       groupID,
			"title":          "Anon",
			"start_time_utc": "2026-03-02T10:00:00Z",
			"end_time_utc":   "2026-03-02T11:00:00Z",
		})
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without identity, got %d", st)
		}
	}

	// 5) Hard dentro de la DND de carla => 409 con conflictos estructurados
	{
		st, body := doReq(t, ts.URL, "POST", "/events", organizerID, map[string]any{
			"group_id":         groupID,
			"title":            "Late night incident review",
			"start_time_utc":   "2026-03-03T04:00:00Z", // 23:00 en Lima
			"end_time_utc":     "2026-03-03T04:30:00Z",
			"attendee_ids":     []string{carlaID},
			"constraint_level": "Hard",
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 for DND hard conflict, got %d body=%s", st, string(body))
		}
		var resp struct {
			Conflicts []struct {
				Kind   string `json:"kind"`
				UserID string `json:"user_id"`
			} `json:"conflicts"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp.Conflicts) == 0 || resp.Conflicts[0].Kind != "dnd_window" {
			t.Fatalf("conflict body: %s", string(body))
		}
	}

	// 6) Attendee no organizer no puede editar => 403
	{
		st, _ := doReq(t, ts.URL, "PUT", "/events/"+eventID, carlaID, map[string]any{
			"version": 1,
			"updates": map[string]any{"title": "Hijacked"},
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for non-organizer update, got %d", st)
		}
	}

	// 7) Organizer edita con la versión correcta
	{
		st, body := doReq(t, ts.URL, "PUT", "/events/"+eventID, organizerID, map[string]any{
			"version": 1,
			"updates": map[string]any{"title": "Sprint planning (moved)", "status": "Confirmed"},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 update, got %d body=%s", st, string(body))
		}
		var resp struct {
			Version int    `json:"version"`
			Status  string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Version != 2 || resp.Status != "Confirmed" {
			t.Fatalf("updated event: %s", string(body))
		}
	}

	// 8) Reintento con la versión vieja => 409
	{
		st, _ := doReq(t, ts.URL, "PUT", "/events/"+eventID, organizerID, map[string]any{
			"version": 1,
			"updates": map[string]any{"title": "Stale write"},
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 for stale version, got %d", st)
		}
	}

	// 9) Carla responde RSVP
	{
		st, body := doReq(t, ts.URL, "POST", "/events/rsvp", carlaID, map[string]any{
			"event_id":    eventID,
			"rsvp_status": "going",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 rsvp, got %d body=%s", st, string(body))
		}
	}

	// 10) Carla propone un cambio de horario (no puede editar directo)
	requestID := submitChangeRequest(t, ts.URL, carlaID, map[string]any{
		"event_id":     eventID,
		"request_type": "time_change",
		"payload": map[string]any{
			"start_time_utc": "2026-03-02T14:00:00Z",
			"end_time_utc":   "2026-03-02T15:00:00Z",
		},
	})

	// 11) Carla no puede aprobar su propio request (no es organizer)
	{
		st, _ := doReq(t, ts.URL, "POST", "/change-requests/"+requestID+"/approve", carlaID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 approve by requester, got %d", st)
		}
	}

	// 12) El organizer aprueba; la mutación se aplica y sube la versión
	{
		st, body := doReq(t, ts.URL, "POST", "/change-requests/"+requestID+"/approve", organizerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 approve, got %d body=%s", st, string(body))
		}

		st, body = doReq(t, ts.URL, "GET", "/events/"+eventID, organizerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get event, got %d", st)
		}
		var resp struct {
			Version      int    `json:"version"`
			StartTimeUTC string `json:"start_time_utc"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Version != 3 || !strings.HasPrefix(resp.StartTimeUTC, "2026-03-02T14:00:00") {
			t.Fatalf("event after approve: %s", string(body))
		}
	}

	// 13) Redecidir el request aprobado => 400
	{
		st, _ := doReq(t, ts.URL, "POST", "/change-requests/"+requestID+"/reject", organizerID, nil)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 re-deciding request, got %d", st)
		}
	}

	// 14) El ledger tiene create + update + approve-update
	{
		st, body := doReq(t, ts.URL, "GET", "/events/"+eventID+"/mutations", organizerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 mutations, got %d", st)
		}
		var muts []struct {
			Action string `json:"action"`
		}
		_ = json.Unmarshal(body, &muts)
		if len(muts) != 3 {
			t.Fatalf("ledger entries: got %d want 3 body=%s", len(muts), string(body))
		}
	}

	// 15) Cancelación con versión vigente
	{
		st, body := doReq(t, ts.URL, "POST", "/events/"+eventID+"/cancel", organizerID, map[string]any{
			"version":       3,
			"cancel_reason": "moved offsite",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 cancel, got %d body=%s", st, string(body))
		}
	}

	// 16) Doble cancel => 400
	{
		st, _ := doReq(t, ts.URL, "POST", "/events/"+eventID+"/cancel", organizerID, map[string]any{
			"version": 4,
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 double cancel, got %d", st)
		}
	}

	// 17) El cancelado desaparece del listado default pero sigue legible
	{
		st, body := doReq(t, ts.URL, "GET", "/events?group_id="+groupID, organizerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list, got %d", st)
		}
		var items []struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &items)
		for _, it := range items {
			if it.ID == eventID {
				t.Fatalf("cancelled event still listed by default")
			}
		}

		st, _ = doReq(t, ts.URL, "GET", "/events/"+eventID, organizerID, nil)
		if st != http.StatusOK {
			t.Fatalf("cancelled event should stay readable, got %d", st)
		}
	}
}

func TestHTTP_Availability(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	aliceID := createUser(t, ts.URL, map[string]any{"display_name": "Alice"})
	groupID := createGroup(t, ts.URL, aliceID, "Ops")

	st, _ := doReq(t, ts.URL, "POST", "/events", aliceID, map[string]any{
		"group_id":       groupID,
		"title":          "Oncall handoff",
		"start_time_utc": "2026-03-02T10:00:00Z",
		"end_time_utc":   "2026-03-02T10:30:00Z",
	})
	if st != http.StatusCreated {
		t.Fatalf("setup event: %d", st)
	}

	st, body := doReq(t, ts.URL, "GET",
		"/availability?user_ids="+aliceID+"&start=2026-03-02T09:00:00Z&end=2026-03-02T12:00:00Z",
		aliceID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 availability, got %d body=%s", st, string(body))
	}
	var av struct {
		BusyBlocks []struct {
			Title string `json:"title"`
		} `json:"busy_blocks"`
	}
	_ = json.Unmarshal(body, &av)
	if len(av.BusyBlocks) != 1 || av.BusyBlocks[0].Title != "Oncall handoff" {
		t.Fatalf("availability body: %s", string(body))
	}

	// Rango inválido => 400
	st, _ = doReq(t, ts.URL, "GET",
		"/availability?user_ids="+aliceID+"&start=2026-03-02T12:00:00Z&end=2026-03-02T09:00:00Z",
		aliceID, nil)
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 inverted range, got %d", st)
	}
}

func TestHTTP_GroupCalendarExport(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	aliceID := createUser(t, ts.URL, map[string]any{"display_name": "Alice"})
	groupID := createGroup(t, ts.URL, aliceID, "Ops")

	st, _ := doReq(t, ts.URL, "POST", "/events", aliceID, map[string]any{
		"group_id":       groupID,
		"title":          "All hands",
		"start_time_utc": "2026-03-02T10:00:00Z",
		"end_time_utc":   "2026-03-02T11:00:00Z",
		"status":         "Confirmed",
	})
	if st != http.StatusCreated {
		t.Fatalf("setup event: %d", st)
	}

	resp, err := http.Get(ts.URL + "/groups/" + groupID + "/calendar.ics")
	if err != nil {
		t.Fatalf("ics request: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 ics, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type: %s", ct)
	}
	ics := string(raw)
	if !strings.Contains(ics, "BEGIN:VCALENDAR") || !strings.Contains(ics, "All hands") {
		t.Errorf("ics body: %s", ics)
	}
}

func TestHTTP_Health(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", resp.StatusCode)
	}
}

// -------------------------
// Helpers
// -------------------------

func createUser(t *testing.T, baseURL string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/users", "", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create user, got %d body=%s", st, string(body))
	}
	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create user: missing id body=%s", string(body))
	}
	return resp.ID
}

func createGroup(t *testing.T, baseURL, userID, name string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/groups", userID, map[string]any{
		"name": name,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create group, got %d body=%s", st, string(body))
	}
	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create group: missing id body=%s", string(body))
	}
	return resp.ID
}

func submitChangeRequest(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/change-requests", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 submit change request, got %d body=%s", st, string(body))
	}
	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("submit change request: missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, userID string, payload map[string]any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-Debug-User-ID", userID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw
}
