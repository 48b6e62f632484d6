package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/onikinet/oniki-match/internal/app"
	"github.com/onikinet/oniki-match/internal/auth"
	"github.com/onikinet/oniki-match/internal/db"
	svcErr "github.com/onikinet/oniki-match/internal/errors"
	"github.com/onikinet/oniki-match/internal/matching"
	"github.com/onikinet/oniki-match/internal/metrics"
	"github.com/onikinet/oniki-match/internal/notify"
	"github.com/onikinet/oniki-match/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service implements the match lifecycle on top of the scorer, the
// repositories and the cache. Transports (gRPC, HTTP) are thin adapters
// over its methods.
type Service struct {
	appCtx       *app.AppContext
	profiles     *repository.ProfileRepository
	participants *repository.ParticipantRepository
	matches      *repository.MatchRepository

	now func() time.Time
}

// NewService creates a match service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:       appCtx,
		profiles:     repository.NewProfileRepository(appCtx.DB),
		participants: repository.NewParticipantRepository(appCtx.DB),
		matches:      repository.NewMatchRepository(appCtx.DB),
		now:          time.Now,
	}
}

// CreateMatch scores subject against candidate at eventID and persists a
// pending match.
//
// Behavior:
//   - Both users must be distinct, active, confirmed participants of the event.
//   - A match for the same unordered pair at the same event fails with
//     ErrDuplicateMatch, including when two calls race.
//   - Emits match.created to both participants.
func (s *Service) CreateMatch(ctx context.Context, subjectID, candidateID, eventID string) (*Match, error) {
	subjectID, candidateID, eventID = strings.TrimSpace(subjectID), strings.TrimSpace(candidateID), strings.TrimSpace(eventID)
	s.appCtx.Logger.Debug("CreateMatch called", "subject", subjectID, "candidate", candidateID, "event", eventID)

	if subjectID == "" || candidateID == "" || eventID == "" {
		return nil, fmt.Errorf("subject, candidate and event are required: %w", svcErr.ErrInvalidInput)
	}
	if subjectID == candidateID {
		return nil, fmt.Errorf("cannot match a user with themselves: %w", svcErr.ErrInvalidInput)
	}
	if err := s.requireConfirmed(ctx, eventID, subjectID, candidateID); err != nil {
		return nil, err
	}

	pair, err := s.pairAt(ctx, subjectID, candidateID, eventID)
	if err != nil {
		return nil, err
	}
	res, err := s.score(pair)
	if err != nil {
		return nil, err
	}

	row, err := s.persist(ctx, eventID, subjectID, candidateID, res)
	if err != nil {
		return nil, err
	}
	out := toMatch(row)
	return &out, nil
}

// Respond applies responderID's decision to a pending match.
//
// Behavior:
//   - decision must be accepted or declined; "pending" is not a transition.
//   - Only the two participants may respond (ErrNotParticipant).
//   - A match that is no longer pending fails with ErrAlreadyResolved. The
//     update is a compare-and-swap, so of two racing responses only one wins.
//   - On accepted, emits match.accepted to both participants.
func (s *Service) Respond(ctx context.Context, matchID, responderID, decision string) (_ *Match, err error) {
	matchID, responderID = strings.TrimSpace(matchID), strings.TrimSpace(responderID)
	s.appCtx.Logger.Debug("Respond called", "match", matchID, "responder", responderID, "decision", decision)

	label := "invalid"
	defer func() {
		metrics.MatchResponses.WithLabelValues(label, outcomeOf(err)).Inc()
	}()

	if matchID == "" || responderID == "" {
		return nil, fmt.Errorf("match and responder are required: %w", svcErr.ErrInvalidInput)
	}
	to, err := matching.ParseStatus(decision)
	if err != nil {
		return nil, err
	}
	label = string(to)
	if err := matching.Transition(matching.StatusPending, to); err != nil {
		return nil, err
	}

	row, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !row.Involves(responderID) {
		return nil, fmt.Errorf("user %s on match %s: %w", responderID, matchID, svcErr.ErrNotParticipant)
	}
	if matching.Status(row.Status) != matching.StatusPending {
		return nil, fmt.Errorf("match %s is %s: %w", matchID, row.Status, svcErr.ErrAlreadyResolved)
	}

	at := s.now().UTC().Truncate(time.Millisecond)
	changed, err := s.matches.Resolve(ctx, matchID, to, responderID, at)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("match %s resolved concurrently: %w", matchID, svcErr.ErrAlreadyResolved)
	}

	row.Status = string(to)
	row.RespondedAt = &at
	row.RespondedBy = &responderID
	s.afterResolve(ctx, row)

	out := toMatch(row)
	return &out, nil
}

// Recommendations ranks the confirmed co-participants of userID at eventID.
//
// Behavior:
//   - Excludes the user and anyone already matched with them at the event.
//   - Sorted by score desc, confidence desc, candidate id asc.
//   - limit <= 0 uses the configured default; it is capped at the configured max.
//   - The ranked list is cached per (event, user); persist bypasses the cache
//     and creates pending matches for the returned candidates, skipping
//     pairs that were matched concurrently.
func (s *Service) Recommendations(ctx context.Context, userID, eventID string, limit int, persist bool) ([]Recommendation, error) {
	userID, eventID = strings.TrimSpace(userID), strings.TrimSpace(eventID)
	s.appCtx.Logger.Debug("Recommendations called", "user", userID, "event", eventID, "limit", limit, "persist", persist)

	if userID == "" || eventID == "" {
		return nil, fmt.Errorf("user and event are required: %w", svcErr.ErrInvalidInput)
	}
	limit = s.clampLimit(limit)
	if err := s.requireConfirmed(ctx, eventID, userID); err != nil {
		return nil, err
	}

	if !persist {
		if cached, ok := s.cachedRecommendations(ctx, eventID, userID); ok {
			metrics.RecommendationCache.WithLabelValues("hit").Inc()
			return head(cached, limit), nil
		}
		metrics.RecommendationCache.WithLabelValues("miss").Inc()
	}

	ranked, err := s.rank(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	if !persist {
		s.storeRecommendations(ctx, eventID, userID, ranked)
		return head(ranked, limit), nil
	}

	top := head(ranked, limit)
	persisted := top[:0]
	for _, rec := range top {
		row, err := s.persist(ctx, eventID, userID, rec.CandidateID, rec.result())
		if errors.Is(err, svcErr.ErrDuplicateMatch) {
			continue
		}
		if err != nil {
			return nil, err
		}
		rec.MatchID = row.ID
		persisted = append(persisted, rec)
	}
	s.appCtx.Logger.Info("recommendations persisted", "user", userID, "event", eventID, "created", len(persisted))
	return persisted, nil
}

// Explain scores a pair at eventID without persisting anything.
func (s *Service) Explain(ctx context.Context, subjectID, candidateID, eventID string) (*Explanation, error) {
	subjectID, candidateID, eventID = strings.TrimSpace(subjectID), strings.TrimSpace(candidateID), strings.TrimSpace(eventID)
	if subjectID == "" || candidateID == "" || eventID == "" {
		return nil, fmt.Errorf("subject, candidate and event are required: %w", svcErr.ErrInvalidInput)
	}
	if subjectID == candidateID {
		return nil, fmt.Errorf("cannot match a user with themselves: %w", svcErr.ErrInvalidInput)
	}
	if err := s.requireConfirmed(ctx, eventID, subjectID, candidateID); err != nil {
		return nil, err
	}

	pair, err := s.pairAt(ctx, subjectID, candidateID, eventID)
	if err != nil {
		return nil, err
	}
	res, err := s.score(pair)
	if err != nil {
		return nil, err
	}
	return &Explanation{
		SubjectID:      subjectID,
		CandidateID:    candidateID,
		EventID:        eventID,
		Score:          res.Score,
		Breakdown:      res.Breakdown,
		Reasons:        res.Reasons,
		Confidence:     string(res.Confidence),
		Recommendation: res.Recommendation(),
		SharedEvents:   pair.SharedEvents,
	}, nil
}

// GetMatch returns one match to one of its participants.
func (s *Service) GetMatch(ctx context.Context, matchID, callerID string) (*Match, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return nil, fmt.Errorf("match id is required: %w", svcErr.ErrInvalidInput)
	}
	row, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !row.Involves(callerID) {
		return nil, fmt.Errorf("match %s: %w", matchID, svcErr.ErrForbidden)
	}
	out := toMatch(row)
	return &out, nil
}

// ListMatches pages through userID's matches, newest first.
func (s *Service) ListMatches(ctx context.Context, userID string, req ListMatchesRequest) (*ListMatchesResponse, error) {
	filter := repository.ListFilter{EventID: strings.TrimSpace(req.EventID)}
	if req.Status != "" {
		st, err := matching.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	size := req.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	rows, next, err := s.matches.ListByUser(ctx, userID, filter, req.PaginationToken, size)
	if err != nil {
		return nil, err
	}
	resp := &ListMatchesResponse{Matches: make([]Match, 0, len(rows)), NextPaginationToken: next}
	for i := range rows {
		resp.Matches = append(resp.Matches, toMatch(&rows[i]))
	}
	return resp, nil
}

// CountPending returns how many pending matches involve userID.
// Cache-first strategy:
//  1. Attempts to read from Redis (matches:pending:userID).
//  2. On a miss, falls back to DB via repository.CountPending.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (s *Service) CountPending(ctx context.Context, userID string) (int64, error) {
	if n, hit, err := s.appCtx.RedisCache.GetPendingCount(ctx, userID); err == nil && hit {
		return n, nil
	}

	count, err := s.matches.CountPending(ctx, userID)
	if err != nil {
		return 0, err
	}
	_ = s.appCtx.RedisCache.SetPendingCount(ctx, userID, count)
	return count, nil
}

// --- helpers ---

func (s *Service) requireConfirmed(ctx context.Context, eventID string, userIDs ...string) error {
	for _, id := range userIDs {
		ok, err := s.participants.IsConfirmed(ctx, eventID, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user %s is not a confirmed participant of event %s: %w", id, eventID, svcErr.ErrInvalidInput)
		}
	}
	return nil
}

// loadProfiles builds scorer profiles, with activity signals, for the
// active users among ids.
func (s *Service) loadProfiles(ctx context.Context, ids []string) (map[string]*matching.Profile, error) {
	users, err := s.profiles.GetActiveByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	attendance, err := s.participants.AttendanceStats(ctx, ids)
	if err != nil {
		return nil, err
	}
	responses, err := s.matches.ResponseStats(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*matching.Profile, len(users))
	for i := range users {
		p := ProfileFromUser(&users[i])
		att, hasAtt := attendance[p.ID]
		rs, hasRs := responses[p.ID]
		if hasAtt || hasRs {
			p.Activity = &matching.ActivitySignals{
				MatchesReceived:  rs.Received,
				MatchesResponded: rs.Responded,
				MatchesAccepted:  rs.Accepted,
				EventsJoined:     att.Joined,
				EventsCheckedIn:  att.CheckedIn,
			}
		}
		out[p.ID] = &p
	}
	return out, nil
}

func (s *Service) pairAt(ctx context.Context, subjectID, candidateID, eventID string) (matching.Pair, error) {
	profiles, err := s.loadProfiles(ctx, []string{subjectID, candidateID})
	if err != nil {
		return matching.Pair{}, err
	}
	for _, id := range []string{subjectID, candidateID} {
		if _, ok := profiles[id]; !ok {
			return matching.Pair{}, fmt.Errorf("user %s is not active: %w", id, svcErr.ErrInvalidInput)
		}
	}
	shared, err := s.participants.SharedEventCount(ctx, subjectID, candidateID)
	if err != nil {
		return matching.Pair{}, err
	}
	return matching.Pair{
		Subject:      profiles[subjectID],
		Candidate:    profiles[candidateID],
		EventID:      eventID,
		SharedEvents: shared,
	}, nil
}

func (s *Service) score(pair matching.Pair) (matching.Result, error) {
	start := time.Now()
	res, err := s.appCtx.Scorer.Score(pair)
	metrics.ScoreDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.ScoreConfidence.WithLabelValues(string(res.Confidence)).Inc()
	}
	return res, err
}

func (s *Service) rank(ctx context.Context, userID, eventID string) ([]Recommendation, error) {
	ids, err := s.participants.ConfirmedUserIDs(ctx, eventID)
	if err != nil {
		return nil, err
	}
	taken, err := s.matches.CounterpartsAtEvent(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	candidates := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, skip := taken[id]; id != userID && !skip {
			candidates = append(candidates, id)
		}
	}
	out := make([]Recommendation, 0, len(candidates))
	if len(candidates) == 0 {
		return out, nil
	}

	profiles, err := s.loadProfiles(ctx, append([]string{userID}, candidates...))
	if err != nil {
		return nil, err
	}
	subject, ok := profiles[userID]
	if !ok {
		return nil, fmt.Errorf("user %s is not active: %w", userID, svcErr.ErrInvalidInput)
	}
	shared, err := s.participants.SharedEventCounts(ctx, userID, candidates)
	if err != nil {
		return nil, err
	}

	for _, id := range candidates {
		cand, ok := profiles[id]
		if !ok {
			continue
		}
		res, err := s.score(matching.Pair{Subject: subject, Candidate: cand, EventID: eventID, SharedEvents: shared[id]})
		if err != nil {
			return nil, err
		}
		out = append(out, Recommendation{
			CandidateID:    id,
			Score:          res.Score,
			Breakdown:      res.Breakdown,
			Reasons:        res.Reasons,
			Confidence:     string(res.Confidence),
			Recommendation: res.Recommendation(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		ci, cj := matching.Confidence(out[i].Confidence).Rank(), matching.Confidence(out[j].Confidence).Rank()
		if ci != cj {
			return ci > cj
		}
		return out[i].CandidateID < out[j].CandidateID
	})
	if n := s.appCtx.Config.Recommendations.MaxLimit; n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *Service) persist(ctx context.Context, eventID, subjectID, candidateID string, res matching.Result) (*db.Match, error) {
	row := &db.Match{
		EventID:     eventID,
		SubjectID:   subjectID,
		CandidateID: candidateID,
		Score:       res.Score,
		Breakdown:   res.Breakdown,
		Reasons:     res.Reasons,
		Confidence:  string(res.Confidence),
	}
	if err := s.matches.Create(ctx, row); err != nil {
		if errors.Is(err, svcErr.ErrDuplicateMatch) {
			metrics.MatchesCreated.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		} else {
			metrics.MatchesCreated.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return nil, err
	}
	metrics.MatchesCreated.WithLabelValues(metrics.OutcomeOK).Inc()
	s.appCtx.Logger.Info("match created", "match", row.ID, "event", eventID, "score", row.Score, "confidence", row.Confidence)

	rc := s.appCtx.RedisCache
	if err := rc.AdjustPendingCount(ctx, 1, subjectID, candidateID); err != nil {
		s.appCtx.Logger.Warn("pending counter update failed", "err", err)
	}
	if err := rc.InvalidateRecommendations(ctx, eventID, subjectID, candidateID); err != nil {
		s.appCtx.Logger.Warn("recommendation cache invalidation failed", "err", err)
	}
	s.notify(ctx, notify.ForPair(notify.MatchCreated, row.ID, eventID, subjectID, candidateID, row.Score, row.CreatedAt))
	return row, nil
}

func (s *Service) afterResolve(ctx context.Context, row *db.Match) {
	s.appCtx.Logger.Info("match resolved", "match", row.ID, "status", row.Status, "by", *row.RespondedBy)

	rc := s.appCtx.RedisCache
	if err := rc.AdjustPendingCount(ctx, -1, row.SubjectID, row.CandidateID); err != nil {
		s.appCtx.Logger.Warn("pending counter update failed", "err", err)
	}
	if err := rc.InvalidateRecommendations(ctx, row.EventID, row.SubjectID, row.CandidateID); err != nil {
		s.appCtx.Logger.Warn("recommendation cache invalidation failed", "err", err)
	}
	if matching.Status(row.Status) == matching.StatusAccepted {
		s.notify(ctx, notify.ForPair(notify.MatchAccepted, row.ID, row.EventID, row.SubjectID, row.CandidateID, row.Score, *row.RespondedAt))
	}
}

// notify never fails the calling operation.
func (s *Service) notify(ctx context.Context, events []notify.Event) {
	if err := s.appCtx.Notifier.Dispatch(ctx, events...); err != nil {
		s.appCtx.Logger.Warn("notification dispatch failed", "type", events[0].Type, "match", events[0].MatchID, "err", err)
	}
}

func (s *Service) cachedRecommendations(ctx context.Context, eventID, userID string) ([]Recommendation, bool) {
	b, hit, err := s.appCtx.RedisCache.GetRecommendations(ctx, eventID, userID)
	if err != nil || !hit {
		return nil, false
	}
	var recs []Recommendation
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, false
	}
	return recs, true
}

func (s *Service) storeRecommendations(ctx context.Context, eventID, userID string, recs []Recommendation) {
	b, err := json.Marshal(recs)
	if err != nil {
		return
	}
	ttl := s.appCtx.Config.Recommendations.CacheTTL
	if ttl <= 0 {
		return
	}
	if err := s.appCtx.RedisCache.SetRecommendations(ctx, eventID, userID, b, ttl); err != nil {
		s.appCtx.Logger.Warn("recommendation cache write failed", "err", err)
	}
}

func (s *Service) clampLimit(limit int) int {
	cfg := s.appCtx.Config.Recommendations
	if limit <= 0 {
		limit = cfg.DefaultLimit
	}
	if cfg.MaxLimit > 0 && limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	return limit
}

func head(recs []Recommendation, n int) []Recommendation {
	if n >= 0 && len(recs) > n {
		return recs[:n]
	}
	return recs
}

func (r Recommendation) result() matching.Result {
	return matching.Result{
		Score:      r.Score,
		Breakdown:  r.Breakdown,
		Reasons:    r.Reasons,
		Confidence: matching.Confidence(r.Confidence),
	}
}

// ProfileFromUser converts a stored user into a scorer profile.
func ProfileFromUser(u *db.User) matching.Profile {
	role, _ := matching.ParseRole(u.Role)
	return matching.Profile{
		ID:         u.ID,
		Industries: u.Industries,
		Interests:  u.Interests,
		Goals:      u.Goals,
		Bio:        u.Bio,
		Role:       role,
	}.Normalized()
}

// ActingSubject resolves whom the caller acts for. Organizers and admins may
// act for another user; everyone else only for themselves.
func ActingSubject(sess auth.Session, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == sess.UserID {
		return sess.UserID, nil
	}
	switch matching.Role(sess.Role) {
	case matching.RoleOrganizer, matching.RoleAdmin:
		return requested, nil
	}
	return "", fmt.Errorf("cannot act for user %s: %w", requested, svcErr.ErrForbidden)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case svcErr.Reason(err) == svcErr.ReasonInternal:
		return metrics.OutcomeError
	default:
		return metrics.OutcomeRejected
	}
}
