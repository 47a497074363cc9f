package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aidar/service-catalog/internal/domain"
	"github.com/aidar/service-catalog/internal/repository"
)

// CreateServiceGroupInput carries the fields accepted on group creation
type CreateServiceGroupInput struct {
	Name        string
	Description *string
	Tags        []string
}

// UpdateServiceGroupPatch carries the fields of a partial update.
// Nil pointers mean "field not present in the patch".
type UpdateServiceGroupPatch struct {
	Name        *string
	Description *string
	Tags        *[]string
}

// DeleteResult is returned by Remove
type DeleteResult struct {
	Deleted bool `json:"deleted"`
}

// ServiceGroupService owns the service group + version lifecycle
type ServiceGroupService struct {
	db     repository.DBTX
	tx     repository.TxManager
	groups repository.ServiceGroupRepository
	users  repository.UserRepository
}

// NewServiceGroupService creates a new ServiceGroupService
func NewServiceGroupService(
	db repository.DBTX,
	tx repository.TxManager,
	groups repository.ServiceGroupRepository,
	users repository.UserRepository,
) *ServiceGroupService {
	return &ServiceGroupService{
		db:     db,
		tx:     tx,
		groups: groups,
		users:  users,
	}
}

// Create inserts a new service group together with version #1 in one transaction.
// The actor becomes the owner and is recorded as the editor of the first changelog snapshot.
func (s *ServiceGroupService) Create(ctx context.Context, input CreateServiceGroupInput, actorID string) (*domain.ServiceGroup, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	now := time.Now().UTC()
	group := &domain.ServiceGroup{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		OwnerUserID: actorID,
		Tags:        input.Tags,
		State:       domain.StateActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if group.Tags == nil {
		group.Tags = []string{}
	}

	version := &domain.Version{
		ID:             uuid.NewString(),
		ServiceGroupID: group.ID,
		VersionNumber:  1,
		IsActive:       true,
		Changelog:      group.Snapshot(actorID),
		CreatedAt:      now,
	}

	err := s.tx.WithinTx(ctx, func(db repository.DBTX) error {
		if err := s.groups.Insert(ctx, db, group); err != nil {
			return err
		}
		return s.groups.InsertVersion(ctx, db, version)
	})
	if err != nil {
		return nil, err
	}

	return s.groups.GetByID(ctx, s.db, group.ID)
}

// Update applies a partial update and records it as a new version, all in one transaction:
// the single currently active version is deactivated, the next version number is computed
// as max(existing numbers)+1 so that imported histories with odd numbering stay valid, and
// a fresh changelog snapshot of the merged state is inserted as the new active version.
// An empty patch still produces a new version.
func (s *ServiceGroupService) Update(ctx context.Context, id string, patch UpdateServiceGroupPatch, actorID string) (*domain.ServiceGroup, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", domain.ErrValidation)
	}

	err := s.tx.WithinTx(ctx, func(db repository.DBTX) error {
		group, err := s.groups.GetByID(ctx, db, id)
		if err != nil {
			return err
		}

		// A pre-existing invariant violation (zero or several active versions) is a hard
		// conflict; we never guess which version to deactivate.
		active := group.ActiveVersions()
		if len(active) != 1 {
			return fmt.Errorf("%w: expected exactly one active version, found %d", domain.ErrConflict, len(active))
		}

		next := group.MaxVersionNumber() + 1
		applyPatch(group, patch)
		group.UpdatedAt = time.Now().UTC()

		if err := s.groups.UpdateScalars(ctx, db, group); err != nil {
			return err
		}
		if err := s.groups.DeactivateVersion(ctx, db, active[0].ID); err != nil {
			return err
		}

		version := &domain.Version{
			ID:             uuid.NewString(),
			ServiceGroupID: group.ID,
			VersionNumber:  next,
			IsActive:       true,
			Changelog:      group.Snapshot(actorID),
			CreatedAt:      group.UpdatedAt,
		}
		return s.groups.InsertVersion(ctx, db, version)
	})
	if err != nil {
		return nil, err
	}

	return s.groups.GetByID(ctx, s.db, id)
}

// FindOne retrieves a group with its full version list
func (s *ServiceGroupService) FindOne(ctx context.Context, id string) (*domain.ServiceGroup, error) {
	return s.groups.GetByID(ctx, s.db, id)
}

// Remove soft-deletes a group; the version history is kept for auditability
func (s *ServiceGroupService) Remove(ctx context.Context, id string) (*DeleteResult, error) {
	if err := s.groups.SoftDelete(ctx, s.db, id); err != nil {
		return nil, err
	}
	return &DeleteResult{Deleted: true}, nil
}

// FindAll returns a page of groups visible to the viewer and the total match count.
// A viewer with a team sees groups owned by members of that team; a viewer without
// a team gets no team restriction. A team that resolves to no members narrows the
// scope to the viewer's own groups instead of dropping the restriction entirely.
func (s *ServiceGroupService) FindAll(ctx context.Context, filter domain.ServiceGroupFilter, viewer domain.Identity) ([]*domain.ServiceGroupSummary, int, error) {
	var ownerIDs []string
	if viewer.TeamID != nil {
		members, err := s.users.ListByTeam(ctx, s.db, *viewer.TeamID)
		if err != nil {
			return nil, 0, err
		}
		for _, m := range members {
			ownerIDs = append(ownerIDs, m.ID)
		}
		// An empty member list must not turn into an unrestricted query
		if len(ownerIDs) == 0 {
			ownerIDs = []string{viewer.UserID}
		}
	}

	return s.groups.List(ctx, s.db, filter, ownerIDs)
}

// applyPatch merges only the fields present in the patch onto the group
func applyPatch(group *domain.ServiceGroup, patch UpdateServiceGroupPatch) {
	if patch.Name != nil {
		group.Name = *patch.Name
	}
	if patch.Description != nil {
		group.Description = patch.Description
	}
	if patch.Tags != nil {
		group.Tags = *patch.Tags
	}
}
