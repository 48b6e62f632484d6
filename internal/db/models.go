package db

import (
	"time"

	"github.com/onikinet/oniki-match/internal/matching"
)

// Participant status values for EventParticipant.Status.
const (
	ParticipantPending   = "pending"
	ParticipantApproved  = "approved"
	ParticipantRejected  = "rejected"
	ParticipantCancelled = "cancelled"
)

// User is an attendee profile. Rows are deactivated, never deleted.
//
// Tag sets (industries, interests, networking goals) are stored as JSON
// text columns and normalized on write.
type User struct {
	ID           string     `gorm:"primaryKey;size:36"`
	Email        string     `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string     `gorm:"size:255;not null"`
	Name         string     `gorm:"size:128"`
	Role         string     `gorm:"size:16;not null;default:participant"`
	Company      string     `gorm:"size:128"`
	JobTitle     string     `gorm:"size:128"`
	Bio          string     `gorm:"type:text"`
	Industries   []string   `gorm:"serializer:json;type:text"`
	Interests    []string   `gorm:"serializer:json;type:text"`
	Goals        []string   `gorm:"serializer:json;type:text"`
	Active       bool       `gorm:"not null;default:true"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Event is a networking event users register for.
type Event struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:255;not null"`
	Location  string    `gorm:"size:255"`
	StartsAt  time.Time `gorm:"index"`
	EndsAt    time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// EventParticipant is a user's registration for an event.
//
// Indexes:
//   - idx_event_user(event_id, user_id) UNIQUE
//     One registration per user per event.
//   - idx_user_status(user_id, status)
//     Shared-event counting and activity lookups by user.
type EventParticipant struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	EventID      string    `gorm:"size:36;not null;uniqueIndex:idx_event_user,priority:1"`
	UserID       string    `gorm:"size:36;not null;uniqueIndex:idx_event_user,priority:2;index:idx_user_status,priority:1"`
	Status       string    `gorm:"size:16;not null;default:pending;index:idx_user_status,priority:2"`
	HasCheckedIn bool      `gorm:"not null;default:false"`
	CheckedInAt  *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Match is a scored, persisted pairing of two participants at one event.
//
// ParticipantLow/ParticipantHigh hold the pair in sorted order so the
// unique index idx_match_event_pair(event_id, participant_low, participant_high)
// rejects (A,B) and (B,A) alike.
//
// Indexes:
//   - idx_match_subject_created(subject_id, created_at DESC)
//   - idx_match_candidate_created(candidate_id, created_at DESC)
//     Listing a user's matches newest first from either side.
type Match struct {
	ID              string             `gorm:"primaryKey;size:36"`
	EventID         string             `gorm:"size:36;not null;uniqueIndex:idx_match_event_pair,priority:1"`
	SubjectID       string             `gorm:"size:36;not null;index:idx_match_subject_created,priority:1"`
	CandidateID     string             `gorm:"size:36;not null;index:idx_match_candidate_created,priority:1"`
	ParticipantLow  string             `gorm:"size:36;not null;uniqueIndex:idx_match_event_pair,priority:2"`
	ParticipantHigh string             `gorm:"size:36;not null;uniqueIndex:idx_match_event_pair,priority:3"`
	Score           int                `gorm:"not null"`
	Breakdown       matching.Breakdown `gorm:"serializer:json;type:text"`
	Reasons         []string           `gorm:"serializer:json;type:text"`
	Confidence      string             `gorm:"size:8;not null"`
	Status          string             `gorm:"size:16;not null;default:pending;index"`
	RespondedAt     *time.Time
	RespondedBy     *string   `gorm:"size:36"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index:idx_match_subject_created,priority:2,sort:desc;index:idx_match_candidate_created,priority:2,sort:desc"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// Counterpart returns the other participant of m from userID's side.
func (m *Match) Counterpart(userID string) string {
	if m.SubjectID == userID {
		return m.CandidateID
	}
	return m.SubjectID
}

// Involves reports whether userID is one of the pair.
func (m *Match) Involves(userID string) bool {
	return m.SubjectID == userID || m.CandidateID == userID
}

// SortedPair orders two participant IDs for the pair unique index.
func SortedPair(a, b string) (low, high string) {
	if a < b {
		return a, b
	}
	return b, a
}

// Models lists every table AutoMigrate manages.
func Models() []any {
	return []any{&User{}, &Event{}, &EventParticipant{}, &Match{}}
}
