package service

import (
	"context"

	"github.com/aidar/service-catalog/internal/domain"
	"github.com/aidar/service-catalog/internal/repository"
)

// AccessService decides read/write access to a specific service group based on
// ownership and team membership. It gates FindOne, Update and Remove; Create and
// FindAll are already scoped by identity at the query level.
type AccessService struct {
	db    repository.DBTX
	users repository.UserRepository
}

// NewAccessService creates a new AccessService
func NewAccessService(db repository.DBTX, users repository.UserRepository) *AccessService {
	return &AccessService{
		db:    db,
		users: users,
	}
}

// CanAccess returns true when the viewer owns the group, or when the group's owner
// belongs to the set of users sharing the viewer's team. A viewer without a team
// only passes the exact-owner check. A deny is reported to the caller, never
// silently filtered.
func (s *AccessService) CanAccess(ctx context.Context, viewer domain.Identity, ownerUserID string) (bool, error) {
	if viewer.UserID == ownerUserID {
		return true, nil
	}

	if viewer.TeamID == nil {
		return false, nil
	}

	members, err := s.users.ListByTeam(ctx, s.db, *viewer.TeamID)
	if err != nil {
		return false, err
	}

	for _, member := range members {
		if member.ID == ownerUserID {
			return true, nil
		}
	}

	return false, nil
}
