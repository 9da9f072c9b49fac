package review

import (
	"errors"
	"fmt"

	"example.com/shiftreport/internal/domain"
)

var (
	// ErrHoleIndex is returned when a hole index is out of range for its bucket.
	ErrHoleIndex = errors.New("drill hole index out of range")
	// ErrUnknownBucket is returned for bucket names outside the recognised set.
	ErrUnknownBucket = errors.New("unknown drill hole bucket")
	// ErrUnknownHoleField is returned for field names a drill hole does not have.
	ErrUnknownHoleField = errors.New("unknown drill hole field")
)

func checkBucket(bucket string) error {
	for _, known := range domain.HoleBuckets {
		if bucket == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownBucket, bucket)
}

// AddHole appends an empty hole to the bucket and recomputes the bucket totals.
func (s *Store) AddHole(sessionID, recordID, bucket string) (domain.Payload, error) {
	return s.mutate(sessionID, recordID, func(p *domain.Payload) error {
		if err := checkBucket(bucket); err != nil {
			return err
		}
		if p.Holes == nil {
			p.Holes = make(map[string][]domain.DrillHole)
		}
		p.Holes[bucket] = append(p.Holes[bucket], domain.DrillHole{})
		domain.RecomputeHoleTotals(p)
		return nil
	})
}

// SetHoleField patches one field of one hole and recomputes the bucket totals.
func (s *Store) SetHoleField(sessionID, recordID, bucket string, index int, field, value string) (domain.Payload, error) {
	return s.mutate(sessionID, recordID, func(p *domain.Payload) error {
		if err := checkBucket(bucket); err != nil {
			return err
		}
		holes := p.Holes[bucket]
		if index < 0 || index >= len(holes) {
			return fmt.Errorf("%w: %s[%d]", ErrHoleIndex, bucket, index)
		}
		switch field {
		case "ring_id":
			holes[index].RingID = value
		case "hole_id":
			holes[index].HoleID = value
		case "diameter":
			holes[index].Diameter = value
		case "length_m":
			holes[index].Length = value
		default:
			return fmt.Errorf("%w: %q", ErrUnknownHoleField, field)
		}
		domain.RecomputeHoleTotals(p)
		return nil
	})
}

// MoveHole moves a hole between buckets: removed from the source list and
// appended to the destination list in one step, then both bucket totals are
// recomputed. No duplication, no loss.
func (s *Store) MoveHole(sessionID, recordID, from, to string, index int) (domain.Payload, error) {
	return s.mutate(sessionID, recordID, func(p *domain.Payload) error {
		if err := checkBucket(from); err != nil {
			return err
		}
		if err := checkBucket(to); err != nil {
			return err
		}
		source := p.Holes[from]
		if index < 0 || index >= len(source) {
			return fmt.Errorf("%w: %s[%d]", ErrHoleIndex, from, index)
		}
		hole := source[index]
		p.Holes[from] = append(source[:index], source[index+1:]...)
		p.Holes[to] = append(p.Holes[to], hole)
		domain.RecomputeHoleTotals(p)
		return nil
	})
}

// DeleteHole removes one hole and recomputes the bucket totals.
func (s *Store) DeleteHole(sessionID, recordID, bucket string, index int) (domain.Payload, error) {
	return s.mutate(sessionID, recordID, func(p *domain.Payload) error {
		if err := checkBucket(bucket); err != nil {
			return err
		}
		holes := p.Holes[bucket]
		if index < 0 || index >= len(holes) {
			return fmt.Errorf("%w: %s[%d]", ErrHoleIndex, bucket, index)
		}
		p.Holes[bucket] = append(holes[:index], holes[index+1:]...)
		domain.RecomputeHoleTotals(p)
		return nil
	})
}
