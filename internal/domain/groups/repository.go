package groups

import "context"

type Repository interface {
	Create(ctx context.Context, g Group) error
	GetByID(ctx context.Context, id string) (Group, error)
	List(ctx context.Context) ([]Group, error)

	AddMember(ctx context.Context, m Member) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListMembers(ctx context.Context, groupID string) ([]Member, error)
}
