package match

import (
	"time"

	"github.com/onikinet/oniki-match/internal/db"
	"github.com/onikinet/oniki-match/internal/matching"
)

// Match is the client view of a persisted match.
type Match struct {
	ID          string             `json:"id"`
	EventID     string             `json:"eventId"`
	SubjectID   string             `json:"subjectId"`
	CandidateID string             `json:"candidateId"`
	Score       int                `json:"score"`
	Breakdown   matching.Breakdown `json:"breakdown"`
	Reasons     []string           `json:"reasons"`
	Confidence  string             `json:"confidence"`
	Status      string             `json:"status"`
	RespondedAt *time.Time         `json:"respondedAt,omitempty"`
	RespondedBy string             `json:"respondedBy,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func toMatch(m *db.Match) Match {
	out := Match{
		ID:          m.ID,
		EventID:     m.EventID,
		SubjectID:   m.SubjectID,
		CandidateID: m.CandidateID,
		Score:       m.Score,
		Breakdown:   m.Breakdown,
		Reasons:     m.Reasons,
		Confidence:  m.Confidence,
		Status:      m.Status,
		RespondedAt: m.RespondedAt,
		CreatedAt:   m.CreatedAt,
	}
	if out.Reasons == nil {
		out.Reasons = []string{}
	}
	if m.RespondedBy != nil {
		out.RespondedBy = *m.RespondedBy
	}
	return out
}

// Recommendation is one ranked candidate for a user at an event.
type Recommendation struct {
	CandidateID    string             `json:"candidateId"`
	Score          int                `json:"score"`
	Breakdown      matching.Breakdown `json:"breakdown"`
	Reasons        []string           `json:"reasons"`
	Confidence     string             `json:"confidence"`
	Recommendation string             `json:"recommendation"`
	MatchID        string             `json:"matchId,omitempty"`
}

// Explanation is an unpersisted score for one pair.
type Explanation struct {
	SubjectID      string             `json:"subjectId"`
	CandidateID    string             `json:"candidateId"`
	EventID        string             `json:"eventId"`
	Score          int                `json:"score"`
	Breakdown      matching.Breakdown `json:"breakdown"`
	Reasons        []string           `json:"reasons"`
	Confidence     string             `json:"confidence"`
	Recommendation string             `json:"recommendation"`
	SharedEvents   int                `json:"sharedEvents"`
}

// --- request / response messages (gRPC and HTTP bodies) ---

type CreateMatchRequest struct {
	// SubjectID defaults to the caller. Only organizers and admins may
	// create matches on behalf of someone else.
	SubjectID   string `json:"subjectId,omitempty"`
	CandidateID string `json:"candidateId"`
	EventID     string `json:"eventId"`
}

type RespondRequest struct {
	MatchID  string `json:"matchId,omitempty"`
	Decision string `json:"decision"`
}

type RecommendationsRequest struct {
	EventID string `json:"eventId"`
	Limit   int    `json:"limit,omitempty"`
	Persist bool   `json:"persist,omitempty"`
}

type RecommendationsResponse struct {
	EventID         string           `json:"eventId"`
	Recommendations []Recommendation `json:"recommendations"`
}

type ExplainRequest struct {
	CandidateID string `json:"candidateId"`
	EventID     string `json:"eventId"`
}

type GetMatchRequest struct {
	MatchID string `json:"matchId"`
}

type ListMatchesRequest struct {
	EventID         string  `json:"eventId,omitempty"`
	Status          string  `json:"status,omitempty"`
	PageSize        int     `json:"pageSize,omitempty"`
	PaginationToken *string `json:"paginationToken,omitempty"`
}

type ListMatchesResponse struct {
	Matches             []Match `json:"matches"`
	NextPaginationToken *string `json:"nextPaginationToken,omitempty"`
}

type CountPendingRequest struct{}

type CountPendingResponse struct {
	Count int64 `json:"count"`
}
