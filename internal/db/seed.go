package db

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/onikinet/oniki-match/internal/logger"
	"github.com/onikinet/oniki-match/internal/matching"
)

var (
	seedIndustries = []string{"Technology", "Finance", "Healthcare", "Retail", "Energy", "Media", "Education"}
	seedInterests  = []string{"AI", "Blockchain", "Sustainability", "Design", "Marketing", "Data", "Robotics", "Fintech"}
	seedGoals      = []string{
		"find partner", "offer partnership", "seek investment", "invest in startups",
		"seeking mentor", "offering mentorship", "hiring", "job seeking", "find clients", "learn",
	}
	seedBios = []string{
		"Founder building AI tools for small retailers.",
		"Angel investor focused on fintech and data infrastructure.",
		"Product designer who loves sustainability projects.",
		"Engineering lead hiring for a robotics team.",
		"Marketing consultant looking for new clients in healthcare.",
		"",
	}
)

func pickN(r *rand.Rand, pool []string, max int) []string {
	n := r.Intn(max + 1)
	out := make([]string, 0, n)
	for _, i := range r.Perm(len(pool))[:n] {
		out = append(out, pool[i])
	}
	return matching.NormalizeTags(out)
}

func clearTables(db *gorm.DB) error {
	for _, table := range []string{"matches", "event_participants", "events", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if db.Dialector.Name() == "sqlite" {
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'event_participants'")
	}
	return nil
}

// SeedTestData resets the database and populates it with demo data.
//
// Behavior:
//  1. Clears matches, participants, events and users.
//  2. Creates `users` profiles with random tags (password "password").
//  3. Creates 3 events; each user registers for 1-3 of them, ~85% approved,
//     approved registrations check in ~60% of the time.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB, users int) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := clearTables(db); err != nil {
		return err
	}
	logger.Info("cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	userIDs := make([]string, 0, users)
	for i := 1; i <= users; i++ {
		role := string(matching.RoleParticipant)
		if i%10 == 0 {
			role = string(matching.RoleSponsor)
		}
		u := User{
			ID:           uuid.NewString(),
			Email:        fmt.Sprintf("user%d@oniki.test", i),
			PasswordHash: string(hash),
			Name:         fmt.Sprintf("Demo User %d", i),
			Role:         role,
			Bio:          seedBios[r.Intn(len(seedBios))],
			Industries:   pickN(r, seedIndustries, 2),
			Interests:    pickN(r, seedInterests, 3),
			Goals:        pickN(r, seedGoals, 2),
			Active:       true,
		}
		if err := db.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		userIDs = append(userIDs, u.ID)
	}
	logger.Info("seeded users", "count", len(userIDs))

	now := time.Now().UTC()
	events := []Event{
		{ID: uuid.NewString(), Name: "Oniki Founders Night", Location: "Tokyo", StartsAt: now.Add(-72 * time.Hour)},
		{ID: uuid.NewString(), Name: "Fintech Breakfast", Location: "Osaka", StartsAt: now.Add(-24 * time.Hour)},
		{ID: uuid.NewString(), Name: "AI Builders Meetup", Location: "Tokyo", StartsAt: now.Add(48 * time.Hour)},
	}
	for i := range events {
		events[i].EndsAt = events[i].StartsAt.Add(3 * time.Hour)
	}
	if err := db.Create(&events).Error; err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}

	registrations := 0
	for _, uid := range userIDs {
		for _, ei := range r.Perm(len(events))[:1+r.Intn(len(events))] {
			p := EventParticipant{EventID: events[ei].ID, UserID: uid, Status: ParticipantApproved}
			if r.Intn(100) >= 85 {
				p.Status = ParticipantPending
			}
			if p.Status == ParticipantApproved && r.Intn(100) < 60 {
				at := events[ei].StartsAt.Add(15 * time.Minute)
				p.HasCheckedIn = true
				p.CheckedInAt = &at
			}
			if err := db.Create(&p).Error; err != nil {
				return fmt.Errorf("failed to seed participant: %w", err)
			}
			registrations++
		}
	}
	logger.Info("seeded events", "events", len(events), "registrations", registrations)

	return nil
}

// SeedMinimalTestData writes a small fixed data set:
//
//	users:  alice, bob, carol, dave, erin
//	events: evt-1 (alice, bob, carol, dave approved; erin pending)
//	        evt-2 (alice, bob approved and checked in)
//
// alice and bob overlap on industry and interests with complementary goals;
// carol has an empty profile.
func SeedMinimalTestData(db *gorm.DB) error {
	if err := clearTables(db); err != nil {
		return err
	}

	users := []User{
		{ID: "alice", Email: "alice@test.com", PasswordHash: "x", Name: "Alice",
			Industries: []string{"tech"}, Interests: []string{"ai"}, Goals: []string{"find partner"}, Active: true},
		{ID: "bob", Email: "bob@test.com", PasswordHash: "x", Name: "Bob",
			Industries: []string{"tech"}, Interests: []string{"ai", "blockchain"}, Goals: []string{"offer partnership"}, Active: true},
		{ID: "carol", Email: "carol@test.com", PasswordHash: "x", Name: "Carol", Active: true},
		{ID: "dave", Email: "dave@test.com", PasswordHash: "x", Name: "Dave",
			Industries: []string{"finance"}, Interests: []string{"investing"}, Goals: []string{"seek investment"}, Active: true},
		{ID: "erin", Email: "erin@test.com", PasswordHash: "x", Name: "Erin",
			Industries: []string{"tech"}, Interests: []string{"ai"}, Active: true},
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}

	start := time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC)
	events := []Event{
		{ID: "evt-1", Name: "Demo Night", StartsAt: start, EndsAt: start.Add(3 * time.Hour)},
		{ID: "evt-2", Name: "Founders Breakfast", StartsAt: start.Add(24 * time.Hour), EndsAt: start.Add(26 * time.Hour)},
	}
	if err := db.Create(&events).Error; err != nil {
		return err
	}

	participants := []EventParticipant{
		{EventID: "evt-1", UserID: "alice", Status: ParticipantApproved},
		{EventID: "evt-1", UserID: "bob", Status: ParticipantApproved},
		{EventID: "evt-1", UserID: "carol", Status: ParticipantApproved},
		{EventID: "evt-1", UserID: "dave", Status: ParticipantApproved},
		{EventID: "evt-1", UserID: "erin", Status: ParticipantPending},
		{EventID: "evt-2", UserID: "alice", Status: ParticipantApproved, HasCheckedIn: true},
		{EventID: "evt-2", UserID: "bob", Status: ParticipantApproved, HasCheckedIn: true},
	}
	return db.Create(&participants).Error
}
