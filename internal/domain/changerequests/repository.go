package changerequests

import "context"

type Repository interface {
	Create(ctx context.Context, cr ChangeRequest) error
	GetByID(ctx context.Context, id string) (ChangeRequest, error)
	Update(ctx context.Context, cr ChangeRequest) error
	List(ctx context.Context, filter ListFilter) ([]ChangeRequest, error)
}

type ListFilter struct {
	EventID string
	Status  Status
}
