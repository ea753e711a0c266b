package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/traceleaf/dpp-backend/internal/apierr"
	"github.com/traceleaf/dpp-backend/internal/dpp"
	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/repos"
	"github.com/traceleaf/dpp-backend/internal/requestdata"
	"github.com/traceleaf/dpp-backend/internal/types"
)

type TeamService interface {
	ListMembers(ctx context.Context) ([]*types.User, error)
	// UpdateRole changes a member's role. Admin only; an admin cannot demote
	// themselves, so a team always retains at least one admin.
	UpdateRole(ctx context.Context, memberID uuid.UUID, role string) (*types.User, error)
}

type teamService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewTeamService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo) TeamService {
	return &teamService{
		db:       db,
		log:      baseLog.With("service", "TeamService"),
		userRepo: userRepo,
	}
}

func (ts *teamService) ListMembers(ctx context.Context) ([]*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	users, err := ts.userRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to list team members: %w", err)
	}
	return users, nil
}

func (ts *teamService) UpdateRole(ctx context.Context, memberID uuid.UUID, role string) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	if rd.Role != dpp.RoleAdmin {
		return nil, apierr.Forbidden("changing roles requires the admin role")
	}
	if !dpp.ValidRole(role) {
		return nil, apierr.Validation("unknown role %q", role)
	}
	if memberID == rd.UserID && role != dpp.RoleAdmin {
		return nil, apierr.Conflict("admins cannot demote themselves")
	}
	member, err := ts.userRepo.GetByID(ctx, nil, memberID)
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch team member: %w", err)
	}
	if member == nil {
		return nil, apierr.NotFound("team member %s not found", memberID)
	}
	if err := ts.userRepo.UpdateRole(ctx, nil, memberID, role); err != nil {
		return nil, fmt.Errorf("Failed to update member role: %w", err)
	}
	member.Role = role
	return member, nil
}
