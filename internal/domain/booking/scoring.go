package booking

import (
	"sort"
)

// Scorer defines the interface for ranking bookings during cascade
// redistribution. Lower scores are rescued first. Implementations must be
// total orders over the bookings they see; ties are broken by creation time
// and id so the resulting order is deterministic.
type Scorer interface {
	// Score returns the rank of the booking; lower sorts first.
	Score(b *Booking) float64
}

// PriorityScorer implements the default ranking: higher-priority bookings
// score lower, older bookings win within the same priority.
type PriorityScorer struct{}

// NewPriorityScorer creates a new PriorityScorer.
func NewPriorityScorer() *PriorityScorer {
	return &PriorityScorer{}
}

// Score returns the negated priority, so that a higher priority field yields
// a lower (better) score.
func (s *PriorityScorer) Score(b *Booking) float64 {
	return -float64(b.Priority())
}

// SortByScore orders bookings ascending by the scorer, breaking ties by
// creation time and id. The slice is sorted in place.
func SortByScore(bookings []*Booking, scorer Scorer) {
	sort.SliceStable(bookings, func(i, j int) bool {
		si, sj := scorer.Score(bookings[i]), scorer.Score(bookings[j])
		if si != sj {
			return si < sj
		}
		if !bookings[i].CreatedAt().Equal(bookings[j].CreatedAt()) {
			return bookings[i].CreatedAt().Before(bookings[j].CreatedAt())
		}
		return bookings[i].ID().String() < bookings[j].ID().String()
	})
}
