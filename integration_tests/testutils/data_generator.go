package testutils

import (
	"time"

	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
	"github.com/brianvoe/gofakeit/v7"
)

// TestDataGenerator builds repeatable player names and round scores.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a new test data generator with optional seed
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	s := time.Now().UnixNano()
	if len(seed) > 0 {
		s = seed[0]
	}
	return &TestDataGenerator{
		faker: gofakeit.New(uint64(s)),
		seed:  s,
	}
}

// Seed returns the seed so a failing run can be replayed.
func (g *TestDataGenerator) Seed() int64 { return g.seed }

// PlayerNames returns n distinct first names.
func (g *TestDataGenerator) PlayerNames(n int) []string {
	seen := make(map[string]bool, n)
	names := make([]string, 0, n)
	for len(names) < n {
		name := g.faker.FirstName()
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// RoundScores returns one in-range score per player id.
func (g *TestDataGenerator) RoundScores(rules scoringdomain.Rules, playerIDs []string) map[string]int {
	scores := make(map[string]int, len(playerIDs))
	for _, id := range playerIDs {
		scores[id] = g.faker.IntRange(0, min(rules.MaxRoundScore, 25))
	}
	return scores
}
