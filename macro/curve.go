// Package macro holds per-instrument automation curves and the per-voice
// interpreter that steps them once per musical tick.
package macro

import (
	"errors"
	"fmt"
)

// MaxLen is the capacity of a curve's value array.
const MaxLen = 256

// ErrBadCurve is returned by Validate for curves a loader should reject.
var ErrBadCurve = errors.New("malformed macro curve")

// Kind selects a channel-level curve within a Set.
type Kind int

// Channel-level curve slots.
const (
	Vol Kind = iota
	Arp
	Duty
	Wave
	Pitch
	Ex1
	Ex2
	Ex3
	Alg
	Fb
	Fms
	Ams
	PanL
	PanR
	PhaseReset
	Ex4
	Ex5
	Ex6
	Ex7
	Ex8
	NumKinds
)

var kindNames = [NumKinds]string{
	"vol", "arp", "duty", "wave", "pitch", "ex1", "ex2", "ex3", "alg", "fb",
	"fms", "ams", "panL", "panR", "phaseReset", "ex4", "ex5", "ex6", "ex7", "ex8",
}

func (k Kind) String() string {
	if k < 0 || k >= NumKinds {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// KindByName looks up a channel-level slot by its short name.
func KindByName(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// OpKind selects a per-operator curve within a Set.
type OpKind int

// Per-operator curve slots (FM style parameters).
const (
	OpAM OpKind = iota
	OpAR
	OpDR
	OpMult
	OpRR
	OpSL
	OpTL
	OpDT2
	OpRS
	OpDT
	OpD2R
	OpSSG
	OpDAM
	OpDVB
	OpEGT
	OpKSL
	OpSUS
	OpVIB
	OpWS
	OpKSR
	NumOpKinds
)

// NumOps is the number of operator curve groups per Set.
const NumOps = 4

// ArpMode selects how the arpeggio curve is applied to the note.
type ArpMode uint8

const (
	// ArpRelative adds the curve value to the played note.
	ArpRelative ArpMode = iota
	// ArpFixed plays the curve value as an absolute note.
	ArpFixed
)

// ValueMode selects how a filter coefficient curve is applied.
type ValueMode uint8

const (
	// ValueAbsolute writes the curve value as the coefficient.
	ValueAbsolute ValueMode = iota
	// ValueOffset adds the curve value to the instrument's coefficient.
	ValueOffset
)

// Curve is one automation curve. Len of zero means the curve is absent.
// Loop and Rel are -1 when unset.
type Curve struct {
	Values [MaxLen]int
	Len    int
	Loop   int
	Rel    int
}

// NewCurve builds a curve from a value list with the given loop and release points.
func NewCurve(values []int, loop, rel int) Curve {
	c := Curve{Loop: loop, Rel: rel}
	c.Len = copy(c.Values[:], values)
	return c
}

// Validate reports a curve that cannot have come from a well formed instrument.
// The interpreter tolerates any of these, so only loaders call it.
func (c *Curve) Validate() error {
	if c.Len < 0 || c.Len > MaxLen {
		return fmt.Errorf("%w: length %d", ErrBadCurve, c.Len)
	}
	if c.Loop < -1 || c.Loop >= MaxLen {
		return fmt.Errorf("%w: loop %d", ErrBadCurve, c.Loop)
	}
	if c.Rel < -1 || c.Rel >= MaxLen {
		return fmt.Errorf("%w: release %d", ErrBadCurve, c.Rel)
	}
	return nil
}

// Set is the full macro complement of one instrument.
type Set struct {
	Curves [NumKinds]Curve
	Op     [NumOps][NumOpKinds]Curve

	ArpMode ArpMode
	Ex1Mode ValueMode
	Ex2Mode ValueMode
}

// NewSet returns a set with every curve absent and no loop or release points.
func NewSet() *Set {
	s := &Set{}
	for i := range s.Curves {
		s.Curves[i].Loop = -1
		s.Curves[i].Rel = -1
	}
	for o := range s.Op {
		for i := range s.Op[o] {
			s.Op[o][i].Loop = -1
			s.Op[o][i].Rel = -1
		}
	}
	return s
}

// Validate checks every curve in the set.
func (s *Set) Validate() error {
	for k := range s.Curves {
		if err := s.Curves[k].Validate(); err != nil {
			return fmt.Errorf("%s: %w", Kind(k), err)
		}
	}
	for o := range s.Op {
		for k := range s.Op[o] {
			if err := s.Op[o][k].Validate(); err != nil {
				return fmt.Errorf("op%d/%d: %w", o+1, k, err)
			}
		}
	}
	return nil
}
