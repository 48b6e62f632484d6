package match_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/onikinet/oniki-match/internal/app"
	"github.com/onikinet/oniki-match/internal/auth"
	"github.com/onikinet/oniki-match/internal/cache"
	"github.com/onikinet/oniki-match/internal/config"
	"github.com/onikinet/oniki-match/internal/db"
	svcErr "github.com/onikinet/oniki-match/internal/errors"
	"github.com/onikinet/oniki-match/internal/logger"
	"github.com/onikinet/oniki-match/internal/matching"
	"github.com/onikinet/oniki-match/internal/notify"
	"github.com/onikinet/oniki-match/internal/repository"
	"github.com/onikinet/oniki-match/internal/service/match"
)

//
// Test helpers
//

// recorder collects dispatched notifications.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Dispatch(_ context.Context, events ...notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *recorder) ofType(t notify.Type) []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type env struct {
	appCtx *app.AppContext
	svc    *match.Service
	mr     *miniredis.Miniredis
	sent   *recorder
}

// setupService spins up a throwaway SQLite file seeded with the minimal
// fixture, a miniredis, and wires everything into a match Service.
//
// Fixture: alice, bob, carol, dave confirmed at evt-1 (erin pending);
// alice and bob also confirmed and checked in at evt-2.
func setupService(t *testing.T) *env {
	t.Helper()

	database, err := db.Open(sqlite.Open(filepath.Join(t.TempDir(), "oniki.db")), false)
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.SeedMinimalTestData(database))

	mr := miniredis.RunT(t)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	cfg.Scoring = config.DefaultScoring()
	cfg.Recommendations.DefaultLimit = 10
	cfg.Recommendations.MaxLimit = 50
	cfg.Recommendations.CacheTTL = 5 * time.Minute
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.Issuer = "oniki-test"
	cfg.Auth.TokenTTL = time.Hour

	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Client.Close() })

	appCtx, err := app.New(cfg, database, rc, logger.Discard())
	require.NoError(t, err)
	sent := &recorder{}
	appCtx.WithNotifier(sent)

	return &env{appCtx: appCtx, svc: match.NewService(appCtx), mr: mr, sent: sent}
}

func candidateIDs(recs []match.Recommendation) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.CandidateID
	}
	return ids
}

//
// CreateMatch
//

func TestCreateMatch(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)

	m, err := e.svc.CreateMatch(ctx, "alice", "bob", "evt-1")
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "alice", m.SubjectID)
	assert.Equal(t, "bob", m.CandidateID)
	assert.Equal(t, string(matching.StatusPending), m.Status)
	assert.Equal(t, string(matching.ConfidenceHigh), m.Confidence)
	assert.Greater(t, m.Score, e.appCtx.Scorer.NeutralBaseline())
	assert.Equal(t, 100, m.Breakdown.Compatibility)
	assert.Contains(t, m.Reasons, "Shared industry: tech")
	assert.Contains(t, m.Reasons, "Shared interest: ai")
	assert.Nil(t, m.RespondedAt)

	created := e.sent.ofType(notify.MatchCreated)
	require.Len(t, created, 2)
	assert.ElementsMatch(t, []string{"alice", "bob"}, []string{created[0].UserID, created[1].UserID})
	assert.Equal(t, m.ID, created[0].MatchID)

	got, err := e.svc.GetMatch(ctx, m.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, m.Score, got.Score)
	assert.Equal(t, m.Reasons, got.Reasons)
}

func TestCreateMatch_Validation(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)

	_, err := e.svc.CreateMatch(ctx, "alice", "alice", "evt-1")
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput, "self pair")

	_, err = e.svc.CreateMatch(ctx, "alice", "", "evt-1")
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput, "missing candidate")

	_, err = e.svc.CreateMatch(ctx, "alice", "erin", "evt-1")
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput, "pending registration")

	_, err = e.svc.CreateMatch(ctx, "alice", "carol", "evt-2")
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput, "not registered")

	require.NoError(t, repository.NewProfileRepository(e.appCtx.DB).Deactivate(ctx, "carol"))
	_, err = e.svc.CreateMatch(ctx, "alice", "carol", "evt-1")
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput, "deactivated candidate")

	assert.Empty(t, e.sent.ofType(notify.MatchCreated))
}

func TestCreateMatch_DuplicateEitherOrder(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)

	_, err := e.svc.CreateMatch(ctx, "alice", "bob", "evt-1")
	require.NoError(t, err)

	_, err = e.svc.CreateMatch(ctx, "bob", "alice", "evt-1")
	assert.ErrorIs(t, err, svcErr.ErrDuplicateMatch)

	// same pair at another event is a different match
	_, err = e.svc.CreateMatch(ctx, "bob", "alice", "evt-2")
	assert.NoError(t, err)
}

func TestCreateMatch_ConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)

	const n = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ok, dup    int
		unexpected []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subject, candidate := "alice", "bob"
			if i%2 == 1 {
				subject, candidate = candidate, subject
			}
			_, err := e.svc.CreateMatch(ctx, subject, candidate, "evt-1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, svcErr.ErrDuplicateMatch):
				dup++
			default:
				unexpected = append(unexpected, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, unexpected)
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)

	var rows int64
	require.NoError(t, e.appCtx.DB.Model(&db.Match{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

//
// Respond
//

func TestRespond_Accept(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)

	m, err := e.svc.CreateMatch(ctx, "alice", "bob", "evt-1")
	require.NoError(t, err)

	got, err := e.svc.Respond(ctx, m.ID, "bob", "accepted")
	require.NoError(t, err)
	assert.Equal(t, string(matching.StatusAccepted), got.Status)
	assert.Equal(t, "bob", got.RespondedBy)
	require.NotNil(t, got.RespondedAt)

	accepted := e.sent.ofType(notify.MatchAccepted)
	require.Len(t, accepted, 2)
	assert.ElementsMatch(t, []string{"alice", "bob"}, []string{accepted[0].UserID, accepted[1].UserID})

	stored, err := e.svc.GetMatch(ctx, m.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, string(matching.StatusAccepted), stored.Status)
	assert.Equal(t, "bob", stored.RespondedBy)
}

func TestRespond_Decline(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)

	m, err := e.svc.CreateMatch(ctx, "alice", "bob", "evt-1")
	require.NoError(t, err)

	got, err := e.svc.Respond(ctx, m.ID, "alice", "decline")
	require.NoError(t, err)
	assert.Equal(t, string(matching.StatusDeclined), got.Status)
	assert.Empty(t, e.sent.ofType(notify.MatchAccepted), "declines are silent")
}

func TestRespond_Errors(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)

	m, err := e.svc.CreateMatch(ctx, "alice", "bob", "evt-1")
	require.NoError(t, err)

	_, err = e.svc.Respond(ctx, "missing", "bob", "accepted")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	_, err = e.svc.Respond(ctx, m.ID, "carol", "accepted")
	assert.ErrorIs(t, err, svcErr.ErrNotParticipant)

	_, err = e.svc.Respond(ctx, m.ID, "bob", "pending")
	assert.ErrorIs(t, err, svcErr.ErrInvalidStateTransition)

	_, err = e.svc.Respond(ctx, m.ID, "bob", "maybe")
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)

	_, err = e.svc.Respond(ctx, m.ID, "bob", "accepted")
	require.NoError(t, err)

	_, err = e.svc.Respond(ctx, m.ID, "alice", "declined")
	assert.ErrorIs(t, err, svcErr.ErrAlreadyResolved)
}

func TestRespond_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)

	m, err := e.svc.CreateMatch(ctx, "alice", "bob", "evt-1")
	require.NoError(t, err)

	const n = 6
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		won      int
		resolved int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responder, decision := "alice", "accepted"
			if i%2 == 1 {
				responder, decision = "bob", "declined"
			}
			_, err := e.svc.Respond(ctx, m.ID, responder, decision)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
			} else if errors.Is(err, svcErr.ErrAlreadyResolved) {
				resolved++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.Equal(t, n-1, resolved)
}

//
// Pending counter
//

func TestCountPending_TracksLifecycle(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)

	n, err := e.svc.CountPending(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.True(t, e.mr.Exists(e.appCtx.RedisCache.KeyForPendingCount("alice")), "miss populates cache")

	m, err := e.svc.CreateMatch(ctx, "alice", "bob", "evt-1")
	require.NoError(t, err)
	_, err = e.svc.CreateMatch(ctx, "alice", "dave", "evt-1")
	require.NoError(t, err)

	n, err = e.svc.CountPending(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = e.svc.CountPending(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = e.svc.Respond(ctx, m.ID, "bob", "accepted")
	require.NoError(t, err)

	n, err = e.svc.CountPending(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = e.svc.CountPending(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

//
// Recommendations
//

func TestRecommendations_Ranking(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)

	recs, err := e.svc.Recommendations(ctx, "alice", "evt-1", 0, false)
	require.NoError(t, err)

	require.Len(t, recs, 3, "erin is pending and alice is the subject")
	assert.ElementsMatch(t, []string{"bob", "carol", "dave"}, candidateIDs(recs))
	assert.Equal(t, "bob", recs[0].CandidateID)
	assert.NotEmpty(t, recs[0].Reasons)
	assert.NotEmpty(t, recs[0].Recommendation)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Score, recs[i].Score)
	}

	// carol has an empty profile
	for _, r := range recs {
		if r.CandidateID == "carol" {
			assert.Equal(t, string(matching.ConfidenceLow), r.Confidence)
			assert.Equal(t, 0, r.Breakdown.RuleBased)
		}
		assert.Empty(t, r.MatchID)
	}

	top, err := e.svc.Recommendations(ctx, "alice", "evt-1", 1, false)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "bob", top[0].CandidateID)
}

func TestRecommendations_RequiresConfirmedUser(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)

	_, err := e.svc.Recommendations(ctx, "erin", "evt-1", 5, false)
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)

	_, err = e.svc.Recommendations(ctx, "alice", "", 5, false)
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)
}

func TestRecommendations_CachedAndInvalidated(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)
	key := e.appCtx.RedisCache.KeyForRecommendations("evt-1", "alice")

	first, err := e.svc.Recommendations(ctx, "alice", "evt-1", 0, false)
	require.NoError(t, err)
	assert.True(t, e.mr.Exists(key))

	second, err := e.svc.Recommendations(ctx, "alice", "evt-1", 0, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = e.svc.CreateMatch(ctx, "bob", "alice", "evt-1")
	require.NoError(t, err)
	assert.False(t, e.mr.Exists(key), "creating a match drops both users' lists")

	after, err := e.svc.Recommendations(ctx, "alice", "evt-1", 0, false)
	require.NoError(t, err)
	assert.NotContains(t, candidateIDs(after), "bob", "already matched users are excluded")
	assert.Len(t, after, 2)
}

func TestRecommendations_Persist(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)

	recs, err := e.svc.Recommendations(ctx, "alice", "evt-1", 2, true)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "bob", recs[0].CandidateID)
	for _, r := range recs {
		assert.NotEmpty(t, r.MatchID)
		m, err := e.svc.GetMatch(ctx, r.MatchID, "alice")
		require.NoError(t, err)
		assert.Equal(t, r.Score, m.Score)
		assert.Equal(t, r.CandidateID, m.CandidateID)
	}
	assert.Len(t, e.sent.ofType(notify.MatchCreated), 4)

	rest, err := e.svc.Recommendations(ctx, "alice", "evt-1", 5, true)
	require.NoError(t, err)
	require.Len(t, rest, 1, "matched candidates are not proposed again")
	assert.NotContains(t, []string{recs[0].CandidateID, recs[1].CandidateID}, rest[0].CandidateID)

	n, err := e.svc.CountPending(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

//
// Explain / reads
//

func TestExplain(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)

	ex, err := e.svc.Explain(ctx, "alice", "bob", "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 2, ex.SharedEvents)
	assert.Equal(t, string(matching.ConfidenceHigh), ex.Confidence)
	assert.NotEmpty(t, ex.Recommendation)
	assert.Contains(t, ex.Reasons, "Shared industry: tech")

	// nothing is stored
	var rows int64
	require.NoError(t, e.appCtx.DB.Model(&db.Match{}).Count(&rows).Error)
	assert.Zero(t, rows)

	// explaining twice gives the same answer
	again, err := e.svc.Explain(ctx, "bob", "alice", "evt-1")
	require.NoError(t, err)
	assert.Equal(t, ex.Score, again.Score)

	_, err = e.svc.Explain(ctx, "alice", "erin", "evt-1")
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)
}

func TestGetMatch_OnlyParticipants(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)

	m, err := e.svc.CreateMatch(ctx, "alice", "bob", "evt-1")
	require.NoError(t, err)

	_, err = e.svc.GetMatch(ctx, m.ID, "carol")
	assert.ErrorIs(t, err, svcErr.ErrForbidden)

	_, err = e.svc.GetMatch(ctx, "missing", "alice")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestListMatches_Pagination(t *testing.T) {
	ctx := context.Background()
	e := setupService(t)

	for _, c := range []string{"bob", "carol", "dave"} {
		_, err := e.svc.CreateMatch(ctx, "alice", c, "evt-1")
		require.NoError(t, err)
	}

	var seen []string
	var token *string
	for page := 0; page < 5; page++ {
		resp, err := e.svc.ListMatches(ctx, "alice", match.ListMatchesRequest{PageSize: 2, PaginationToken: token})
		require.NoError(t, err)
		for _, m := range resp.Matches {
			seen = append(seen, m.CandidateID)
		}
		if resp.NextPaginationToken == nil {
			break
		}
		token = resp.NextPaginationToken
	}
	assert.ElementsMatch(t, []string{"bob", "carol", "dave"}, seen)
	assert.Len(t, seen, 3)

	resp, err := e.svc.ListMatches(ctx, "bob", match.ListMatchesRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	assert.Nil(t, resp.NextPaginationToken)

	resp, err = e.svc.ListMatches(ctx, "alice", match.ListMatchesRequest{Status: "accepted"})
	require.NoError(t, err)
	assert.Empty(t, resp.Matches)

	_, err = e.svc.ListMatches(ctx, "alice", match.ListMatchesRequest{Status: "bogus"})
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)
}

func TestActingSubject(t *testing.T) {
	participant := auth.Session{UserID: "alice", Role: string(matching.RoleParticipant)}
	organizer := auth.Session{UserID: "olga", Role: string(matching.RoleOrganizer)}

	id, err := match.ActingSubject(participant, "")
	require.NoError(t, err)
	assert.Equal(t, "alice", id)

	id, err = match.ActingSubject(participant, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", id)

	_, err = match.ActingSubject(participant, "bob")
	assert.ErrorIs(t, err, svcErr.ErrForbidden)

	id, err = match.ActingSubject(organizer, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", id)
}
