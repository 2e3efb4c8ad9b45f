package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"group-calendar/internal/domain/changerequests"
)

type changeRequestsRepo struct {
	mu   sync.RWMutex
	byID map[string]changerequests.ChangeRequest
}

func NewChangeRequestsRepo() changerequests.Repository {
	return &changeRequestsRepo{byID: make(map[string]changerequests.ChangeRequest)}
}

func (r *changeRequestsRepo) Create(ctx context.Context, cr changerequests.ChangeRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cr.ID == "" {
		return errors.New("change request id required")
	}
	if _, exists := r.byID[cr.ID]; exists {
		return errors.New("change request already exists")
	}
	r.byID[cr.ID] = cr
	return nil
}

func (r *changeRequestsRepo) GetByID(ctx context.Context, id string) (changerequests.ChangeRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cr, ok := r.byID[id]
	if !ok {
		return changerequests.ChangeRequest{}, changerequests.ErrNotFound
	}
	return cr, nil
}

func (r *changeRequestsRepo) Update(ctx context.Context, cr changerequests.ChangeRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[cr.ID]; !ok {
		return changerequests.ErrNotFound
	}
	r.byID[cr.ID] = cr
	return nil
}

func (r *changeRequestsRepo) List(ctx context.Context, filter changerequests.ListFilter) ([]changerequests.ChangeRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

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

	// Más recientes primero
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
