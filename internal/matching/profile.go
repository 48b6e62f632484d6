package matching

import (
	"fmt"
	"sort"
	"strings"

	svcErr "github.com/onikinet/oniki-match/internal/errors"
)

type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleSponsor     Role = "sponsor"
	RoleAdmin       Role = "admin"
)

// ParseRole accepts the role names case-insensitively. Empty means participant.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RoleParticipant, nil
	case RoleParticipant, RoleOrganizer, RoleSponsor, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q: %w", s, svcErr.ErrInvalidInput)
	}
}

// ActivitySignals are historical engagement counters for one user.
// All counters are optional; a zero denominator means "no history" for that rate.
type ActivitySignals struct {
	MatchesReceived  int `json:"matchesReceived"`
	MatchesResponded int `json:"matchesResponded"`
	MatchesAccepted  int `json:"matchesAccepted"`
	EventsJoined     int `json:"eventsJoined"`
	EventsCheckedIn  int `json:"eventsCheckedIn"`
}

// engagement is the mean of the rates that have a denominator, in [0,1].
func (a *ActivitySignals) engagement() (float64, bool) {
	if a == nil {
		return 0, false
	}
	var sum float64
	var n int
	if a.MatchesReceived > 0 {
		sum += ratio(a.MatchesResponded, a.MatchesReceived)
		n++
	}
	if a.MatchesResponded > 0 {
		sum += ratio(a.MatchesAccepted, a.MatchesResponded)
		n++
	}
	if a.EventsJoined > 0 {
		sum += ratio(a.EventsCheckedIn, a.EventsJoined)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Profile is the normalized, networking-relevant view of a user.
type Profile struct {
	ID         string
	Industries []string
	Interests  []string
	Goals      []string
	Bio        string
	Role       Role
	Activity   *ActivitySignals
}

// Normalized returns a copy whose tag sets are trimmed, lower-cased,
// deduplicated and sorted.
func (p Profile) Normalized() Profile {
	p.ID = strings.TrimSpace(p.ID)
	p.Industries = NormalizeTags(p.Industries)
	p.Interests = NormalizeTags(p.Interests)
	p.Goals = NormalizeTags(p.Goals)
	p.Bio = strings.TrimSpace(p.Bio)
	if p.Role == "" {
		p.Role = RoleParticipant
	}
	return p
}

// NormalizeTags turns a free-form tag list into a case-normalized set.
// The result is never nil.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		n := normalizeTag(t)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.Join(strings.Fields(t), " "))
}

// Pair is one scoring request. SharedEvents counts events both profiles
// attend as confirmed participants, including EventID.
type Pair struct {
	Subject      *Profile
	Candidate    *Profile
	EventID      string
	SharedEvents int
}

func ratio(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	r := float64(num) / float64(den)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
