package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/onikinet/oniki-match/internal/db"
)

// ParticipantRepository answers event-participation questions.
// "Confirmed" always means status = approved.
type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(database *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: database}
}

// IsConfirmed reports whether userID is an approved participant of eventID.
func (r *ParticipantRepository) IsConfirmed(ctx context.Context, eventID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.EventParticipant{}).
		Where("event_id = ? AND user_id = ? AND status = ?", eventID, userID, db.ParticipantApproved).
		Count(&count).Error
	return count > 0, err
}

// ConfirmedUserIDs lists the approved, active participants of eventID
// ordered by user id.
func (r *ParticipantRepository) ConfirmedUserIDs(ctx context.Context, eventID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("event_participants p").
		Joins("JOIN users u ON u.id = p.user_id").
		Where("p.event_id = ? AND p.status = ? AND u.active = ?", eventID, db.ParticipantApproved, true).
		Order("p.user_id ASC").
		Pluck("p.user_id", &ids).Error
	return ids, err
}

// EventIDsForUser lists every event userID is registered for, any status.
func (r *ParticipantRepository) EventIDsForUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.EventParticipant{}).
		Where("user_id = ?", userID).
		Order("event_id ASC").
		Pluck("event_id", &ids).Error
	return ids, err
}

// SharedEventCount counts events where both users are approved participants.
func (r *ParticipantRepository) SharedEventCount(ctx context.Context, a, b string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("event_participants p1").
		Joins("JOIN event_participants p2 ON p2.event_id = p1.event_id").
		Where("p1.user_id = ? AND p2.user_id = ?", a, b).
		Where("p1.status = ? AND p2.status = ?", db.ParticipantApproved, db.ParticipantApproved).
		Count(&count).Error
	return int(count), err
}

// SharedEventCounts is SharedEventCount of userID against each of others in
// one query. Users sharing no event are absent from the result.
func (r *ParticipantRepository) SharedEventCounts(ctx context.Context, userID string, others []string) (map[string]int, error) {
	out := make(map[string]int, len(others))
	if len(others) == 0 {
		return out, nil
	}
	var rows []struct {
		UserID string
		Shared int
	}
	err := r.db.WithContext(ctx).
		Table("event_participants p1").
		Select("p2.user_id AS user_id, COUNT(*) AS shared").
		Joins("JOIN event_participants p2 ON p2.event_id = p1.event_id").
		Where("p1.user_id = ? AND p2.user_id IN ?", userID, others).
		Where("p1.status = ? AND p2.status = ?", db.ParticipantApproved, db.ParticipantApproved).
		Group("p2.user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = row.Shared
	}
	return out, nil
}

// Attendance is per-user approved registrations and check-ins.
type Attendance struct {
	UserID    string
	Joined    int
	CheckedIn int
}

// AttendanceStats aggregates approved registrations per user for userIDs.
// Users without registrations are absent from the result.
func (r *ParticipantRepository) AttendanceStats(ctx context.Context, userIDs []string) (map[string]Attendance, error) {
	out := make(map[string]Attendance, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []Attendance
	err := r.db.WithContext(ctx).
		Model(&db.EventParticipant{}).
		Select("user_id, COUNT(*) AS joined, SUM(CASE WHEN has_checked_in THEN 1 ELSE 0 END) AS checked_in").
		Where("user_id IN ? AND status = ?", userIDs, db.ParticipantApproved).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = row
	}
	return out, nil
}
