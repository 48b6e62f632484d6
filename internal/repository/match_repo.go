package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onikinet/oniki-match/internal/db"
	svcErr "github.com/onikinet/oniki-match/internal/errors"
	"github.com/onikinet/oniki-match/internal/matching"
	"github.com/onikinet/oniki-match/internal/utils/pagination"
)

// MatchRepository provides data access methods for the Match model.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// Create inserts m as a pending match.
//
// Behavior:
//   - Assigns a UUID when m.ID is empty and fills the sorted pair columns.
//   - A second row for the same unordered pair at the same event violates
//     idx_match_event_pair and returns ErrDuplicateMatch. Concurrent callers
//     race on the index, so exactly one insert wins.
func (r *MatchRepository) Create(ctx context.Context, m *db.Match) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.ParticipantLow, m.ParticipantHigh = db.SortedPair(m.SubjectID, m.CandidateID)
	m.Status = string(matching.StatusPending)

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("match %s/%s at event %s: %w",
				m.ParticipantLow, m.ParticipantHigh, m.EventID, svcErr.ErrDuplicateMatch)
		}
		return err
	}
	return nil
}

// GetByID loads one match. Unknown IDs return ErrNotFound.
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*db.Match, error) {
	var m db.Match
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "match", id)
	}
	return &m, nil
}

// Resolve moves a pending match to a terminal status.
//
// Behavior:
//   - Compare-and-swap: UPDATE ... WHERE id = ? AND status = 'pending'.
//   - Returns false when no row changed (unknown id or already resolved);
//     the caller re-reads to tell the two apart.
func (r *MatchRepository) Resolve(
	ctx context.Context,
	id string,
	to matching.Status,
	responderID string,
	at time.Time,
) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ? AND status = ?", id, string(matching.StatusPending)).
		Updates(map[string]any{
			"status":       string(to),
			"responded_at": at,
			"responded_by": responderID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListFilter narrows ListByUser. Empty fields do not filter.
type ListFilter struct {
	EventID string
	Status  matching.Status
}

// ListByUser returns matches where userID is either participant.
//
// Behavior:
//   - Ordered by created_at DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.ListByUser(ctx, "u1", ListFilter{Status: matching.StatusPending}, nil, 20)
func (r *MatchRepository) ListByUser(
	ctx context.Context,
	userID string,
	filter ListFilter,
	paginationToken *string,
	limit int,
) ([]db.Match, *string, error) {
	var matches []db.Match

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("(subject_id = ? OR candidate_id = ?)", userID, userID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)
	if filter.EventID != "" {
		query = query.Where("event_id = ?", filter.EventID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&matches).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(matches) > limit {
		last := matches[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:          last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		matches = matches[:limit]
	}

	return matches, nextToken, nil
}

// CountPending returns how many pending matches involve userID.
// Used in conjunction with Redis cache (DB is fallback).
func (r *MatchRepository) CountPending(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("(subject_id = ? OR candidate_id = ?) AND status = ?", userID, userID, string(matching.StatusPending)).
		Count(&count).Error
	return count, err
}

// CounterpartsAtEvent lists users already paired with userID at eventID,
// in any status.
func (r *MatchRepository) CounterpartsAtEvent(ctx context.Context, eventID, userID string) (map[string]struct{}, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Select("subject_id", "candidate_id").
		Where("event_id = ? AND (subject_id = ? OR candidate_id = ?)", eventID, userID, userID).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(matches))
	for i := range matches {
		out[matches[i].Counterpart(userID)] = struct{}{}
	}
	return out, nil
}

// ResponseStats are per-user counters over matches the user was proposed in.
type ResponseStats struct {
	UserID    string
	Received  int
	Responded int
	Accepted  int
}

// ResponseStats aggregates, for each of userIDs, the matches where the user
// is the candidate: how many arrived, how many the user resolved and how
// many the user accepted. Matches the subject resolved count as received
// only.
func (r *MatchRepository) ResponseStats(ctx context.Context, userIDs []string) (map[string]ResponseStats, error) {
	out := make(map[string]ResponseStats, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []ResponseStats
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Select(`candidate_id AS user_id,
			COUNT(*) AS received,
			SUM(CASE WHEN status <> ? AND responded_by = candidate_id THEN 1 ELSE 0 END) AS responded,
			SUM(CASE WHEN status = ? AND responded_by = candidate_id THEN 1 ELSE 0 END) AS accepted`,
			string(matching.StatusPending), string(matching.StatusAccepted)).
		Where("candidate_id IN ?", userIDs).
		Group("candidate_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = row
	}
	return out, nil
}
