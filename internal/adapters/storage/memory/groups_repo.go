package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"group-calendar/internal/domain/groups"
)

type groupsRepo struct {
	mu      sync.RWMutex
	byID    map[string]groups.Group
	members map[string][]groups.Member // groupID -> members
}

func NewGroupsRepo() groups.Repository {
	return &groupsRepo{
		byID:    make(map[string]groups.Group),
		members: make(map[string][]groups.Member),
	}
}

func (r *groupsRepo) Create(ctx context.Context, g groups.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		return errors.New("group id required")
	}
	if _, exists := r.byID[g.ID]; exists {
		return errors.New("group already exists")
	}
	r.byID[g.ID] = g
	return nil
}

func (r *groupsRepo) GetByID(ctx context.Context, id string) (groups.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	if !ok {
		return groups.Group{}, groups.ErrNotFound
	}
	return g, nil
}

func (r *groupsRepo) List(ctx context.Context) ([]groups.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]groups.Group, 0, len(r.byID))
	for _, g := range r.byID {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *groupsRepo) AddMember(ctx context.Context, m groups.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-agregar actualiza el rol (idempotente).
	for i, cur := range r.members[m.GroupID] {
		if cur.UserID == m.UserID {
			r.members[m.GroupID][i] = m
			return nil
		}
	}
	r.members[m.GroupID] = append(r.members[m.GroupID], m)
	return nil
}

func (r *groupsRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.members[groupID]
	out := cur[:0]
	for _, m := range cur {
		if m.UserID != userID {
			out = append(out, m)
		}
	}
	r.members[groupID] = out
	return nil
}

func (r *groupsRepo) ListMembers(ctx context.Context, groupID string) ([]groups.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]groups.Member(nil), r.members[groupID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}
