// Package level maps learner scores to skill tiers and applies the
// per-tier point changes used by daily tasks.
package level

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is a learner skill tier.
type Level string

const (
	Beginner     Level = "beginner"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
)

// All lists the tiers from lowest to highest.
var All = []Level{Beginner, Intermediate, Advanced}

// Score thresholds. A score at or below BeginnerMax is beginner, at or below
// IntermediateMax is intermediate, anything above is advanced.
const (
	BeginnerMax     = 4
	IntermediateMax = 12
)

// FromScore returns the tier for a cumulative score.
func FromScore(score int) Level {
	switch {
	case score <= BeginnerMax:
		return Beginner
	case score <= IntermediateMax:
		return Intermediate
	default:
		return Advanced
	}
}

// Parse converts a case-insensitive tier name to a Level.
func Parse(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q (want beginner, intermediate or advanced)", s)
	}
	return l, nil
}

// Valid reports whether l is one of the known tiers.
func (l Level) Valid() bool {
	switch l {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// IsExpert reports whether l is the top tier.
func (l Level) IsExpert() bool {
	return l == Advanced
}

func (l Level) String() string {
	return string(l)
}

// Deltas holds the points won or lost per daily task, keyed by tier.
type Deltas map[Level]int

// DefaultDeltaFallback is used for tiers missing from a Deltas table.
const DefaultDeltaFallback = 1

// DefaultDeltas returns the stock point table.
func DefaultDeltas() Deltas {
	return Deltas{
		Beginner:     1,
		Intermediate: 2,
		Advanced:     3,
	}
}

// For returns the delta for l, or DefaultDeltaFallback when absent or
// non-positive.
func (d Deltas) For(l Level) int {
	if v, ok := d[l]; ok && v > 0 {
		return v
	}
	return DefaultDeltaFallback
}

// ParseDeltas parses "beginner=1,intermediate=2" style tables.
func ParseDeltas(s string) (Deltas, error) {
	out := Deltas{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("point delta %q: expected level=points", part)
		}
		l, err := Parse(name)
		if err != nil {
			return nil, fmt.Errorf("point delta %q: %w", part, err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("point delta %q: points must be a positive integer", part)
		}
		out[l] = n
	}
	return out, nil
}

// Apply returns the new score after a graded answer. Incorrect answers
// subtract delta but never take the score below zero.
func Apply(score, delta int, correct bool) int {
	if correct {
		return score + delta
	}
	if score-delta < 0 {
		return 0
	}
	return score - delta
}
