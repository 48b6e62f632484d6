package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/onikinet/oniki-match/internal/app"
	"github.com/onikinet/oniki-match/internal/auth"
	"github.com/onikinet/oniki-match/internal/db"
	svcErr "github.com/onikinet/oniki-match/internal/errors"
	"github.com/onikinet/oniki-match/internal/matching"
	"github.com/onikinet/oniki-match/internal/repository"
)

// Profile is the client view of a user profile. Email is only shown to
// the owner.
type Profile struct {
	ID         string    `json:"id"`
	Email      string    `json:"email,omitempty"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Company    string    `json:"company,omitempty"`
	JobTitle   string    `json:"jobTitle,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Industries []string  `json:"industries"`
	Interests  []string  `json:"interests"`
	Goals      []string  `json:"goals"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toProfile(u *db.User, owner bool) Profile {
	p := Profile{
		ID:         u.ID,
		Name:       u.Name,
		Role:       u.Role,
		Company:    u.Company,
		JobTitle:   u.JobTitle,
		Bio:        u.Bio,
		Industries: matching.NormalizeTags(u.Industries),
		Interests:  matching.NormalizeTags(u.Interests),
		Goals:      matching.NormalizeTags(u.Goals),
		Active:     u.Active,
		CreatedAt:  u.CreatedAt,
	}
	if owner {
		p.Email = u.Email
	}
	return p
}

// Service manages profile reads and edits.
type Service struct {
	appCtx       *app.AppContext
	profiles     *repository.ProfileRepository
	participants *repository.ParticipantRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:       appCtx,
		profiles:     repository.NewProfileRepository(appCtx.DB),
		participants: repository.NewParticipantRepository(appCtx.DB),
	}
}

// GetProfile returns user id. Deactivated profiles are only visible to
// their owner.
func (s *Service) GetProfile(ctx context.Context, caller auth.Session, id string) (*Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, svcErr.InvalidInputf("profile id is required")
	}
	u, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	owner := caller.UserID == u.ID
	if !u.Active && !owner {
		return nil, fmt.Errorf("user %s: %w", id, svcErr.ErrNotFound)
	}
	p := toProfile(u, owner)
	return &p, nil
}

// UpdateProfile applies patch to the caller's own profile.
//
// Behavior:
//   - Only the owner may edit (ErrForbidden).
//   - Tag sets are normalized before they are stored.
//   - Recommendation caches of every event the user registered for are
//     dropped, since their scores against everyone else changed.
func (s *Service) UpdateProfile(ctx context.Context, caller auth.Session, id string, patch repository.ProfilePatch) (*Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, svcErr.InvalidInputf("profile id is required")
	}
	if caller.UserID != id {
		return nil, fmt.Errorf("update profile %s: %w", id, svcErr.ErrForbidden)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, svcErr.InvalidInputf("name cannot be empty")
		}
		patch.Name = &name
	}
	for _, tags := range []*[]string{patch.Industries, patch.Interests, patch.Goals} {
		if tags != nil {
			*tags = matching.NormalizeTags(*tags)
		}
	}

	u, err := s.profiles.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.appCtx.Logger.Info("profile updated", "user", id)
	s.invalidateEvents(ctx, id)

	p := toProfile(u, true)
	return &p, nil
}

// DeactivateProfile soft-deletes a profile. Owners may deactivate
// themselves; admins may deactivate anyone.
func (s *Service) DeactivateProfile(ctx context.Context, caller auth.Session, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return svcErr.InvalidInputf("profile id is required")
	}
	if caller.UserID != id && matching.Role(caller.Role) != matching.RoleAdmin {
		return fmt.Errorf("deactivate profile %s: %w", id, svcErr.ErrForbidden)
	}
	if err := s.profiles.Deactivate(ctx, id); err != nil {
		return err
	}
	s.appCtx.Logger.Info("profile deactivated", "user", id, "by", caller.UserID)
	s.invalidateEvents(ctx, id)
	return nil
}

func (s *Service) invalidateEvents(ctx context.Context, userID string) {
	events, err := s.participants.EventIDsForUser(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Warn("list events for cache invalidation failed", "user", userID, "err", err)
		return
	}
	for _, eventID := range events {
		if err := s.appCtx.RedisCache.InvalidateEvent(ctx, eventID); err != nil {
			s.appCtx.Logger.Warn("recommendation cache invalidation failed", "event", eventID, "err", err)
		}
	}
}
