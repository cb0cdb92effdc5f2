package domain

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// PortfolioSnapshot is the full set of positions produced by one collector pass.
// It is built once, then published wholesale; it is never mutated after that.
type PortfolioSnapshot struct {
	TakenAt   time.Time
	positions []AssetPosition
	seen      map[string]struct{}
}

// NewPortfolioSnapshot creates an empty snapshot stamped with the collection time.
func NewPortfolioSnapshot(takenAt time.Time) *PortfolioSnapshot {
	return &PortfolioSnapshot{
		TakenAt: takenAt,
		seen:    make(map[string]struct{}),
	}
}

// Add appends a position. A (network, symbol) pair may appear only once per pass.
func (s *PortfolioSnapshot) Add(p AssetPosition) error {
	key := fmt.Sprintf("%s/%s", p.Network, p.Symbol)
	if _, ok := s.seen[key]; ok {
		return errors.Errorf("duplicate position %s in snapshot", key)
	}
	s.seen[key] = struct{}{}
	s.positions = append(s.positions, p)
	return nil
}

// Positions returns the collected positions in insertion order.
func (s *PortfolioSnapshot) Positions() []AssetPosition {
	return s.positions
}

// Len reports the number of positions in the snapshot.
func (s *PortfolioSnapshot) Len() int {
	return len(s.positions)
}

// Symbols returns the distinct pricing symbols present in the snapshot.
func (s *PortfolioSnapshot) Symbols() []string {
	uniq := make(map[string]struct{}, len(s.positions))
	var out []string
	for _, p := range s.positions {
		if _, ok := uniq[p.Symbol]; ok {
			continue
		}
		uniq[p.Symbol] = struct{}{}
		out = append(out, p.Symbol)
	}
	return out
}
