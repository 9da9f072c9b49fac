package review

import (
	"errors"
	"fmt"

	"example.com/shiftreport/internal/domain"
)

// ErrLoadIndex is returned when a load index is out of range.
var ErrLoadIndex = errors.New("truck load index out of range")

// AddLoad appends an empty truck load and recomputes the derived truck totals.
func (s *Store) AddLoad(sessionID, recordID string) (domain.Payload, error) {
	return s.mutate(sessionID, recordID, func(p *domain.Payload) error {
		p.Loads = append(p.Loads, domain.TruckLoad{})
		domain.RecomputeLoadTotals(p)
		return nil
	})
}

// SetLoadWeight updates one load's weight and recomputes the derived totals.
func (s *Store) SetLoadWeight(sessionID, recordID string, index int, weight float64) (domain.Payload, error) {
	return s.mutate(sessionID, recordID, func(p *domain.Payload) error {
		if index < 0 || index >= len(p.Loads) {
			return fmt.Errorf("%w: %d of %d", ErrLoadIndex, index, len(p.Loads))
		}
		p.Loads[index].Weight = weight
		domain.RecomputeLoadTotals(p)
		return nil
	})
}

// DeleteLoad removes one load and recomputes the derived totals.
func (s *Store) DeleteLoad(sessionID, recordID string, index int) (domain.Payload, error) {
	return s.mutate(sessionID, recordID, func(p *domain.Payload) error {
		if index < 0 || index >= len(p.Loads) {
			return fmt.Errorf("%w: %d of %d", ErrLoadIndex, index, len(p.Loads))
		}
		p.Loads = append(p.Loads[:index], p.Loads[index+1:]...)
		domain.RecomputeLoadTotals(p)
		return nil
	})
}
