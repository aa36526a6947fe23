package service

import (
	"fmt"
	"math/rand"
	"sync"

	"raffler/models"
)

// maxRandomAttempts bounds the random draw before falling back to a
// deterministic ascending scan of the number space.
const maxRandomAttempts = 1000

type randomNumberGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewNumberGenerator creates a generator backed by the given random source.
// Pass a seeded source in tests to make collisions reproducible.
func NewNumberGenerator(src rand.Source) NumberGenerator {
	return &randomNumberGenerator{rng: rand.New(src)}
}

// Generate draws a uniformly random 5-digit number not in used. After
// maxRandomAttempts collisions it scans 00000..99999 for the first free
// number, so generation is bounded even on a nearly full raffle.
func (g *randomNumberGenerator) Generate(used map[string]struct{}) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for attempt := 0; attempt < maxRandomAttempts; attempt++ {
		number := fmt.Sprintf("%05d", g.rng.Intn(models.MaxTicketNumbers))
		if _, taken := used[number]; !taken {
			return number, nil
		}
	}

	for i := 0; i < models.MaxTicketNumbers; i++ {
		number := fmt.Sprintf("%05d", i)
		if _, taken := used[number]; !taken {
			return number, nil
		}
	}

	return "", fmt.Errorf("%w: all %d ticket numbers assigned", ErrNumberSpaceExhausted, models.MaxTicketNumbers)
}
