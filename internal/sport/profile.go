// Package sport defines the closed set of supported sports and the per-sport
// profile that every other component looks up: feature schema, label taxonomy
// and evaluation split.
package sport

import (
	"fmt"
	"strings"
)

// Sport identifies one supported domain.
type Sport string

const (
	Football   Sport = "football"
	Basketball Sport = "basketball"
	Tennis     Sport = "tennis"
	Rugby      Sport = "rugby"
	Handball   Sport = "handball"
)

// Label is a match outcome from the home (A) side's point of view.
type Label string

const (
	HomeWin Label = "home_win"
	Draw    Label = "draw"
	AwayWin Label = "away_win"
)

// DefaultTestSize is the fraction of each class held out for evaluation.
const DefaultTestSize = 0.25

// Per-side stat stems. Each stem expands to <stem>_a, <stem>_b and <stem>_diff.
const (
	StatStrength = "strength"
	StatForm     = "form"
	StatXG       = "xg"
	StatInjuries = "injuries"
	StatShots    = "shots"
	StatPoss     = "poss"
)

// Profile is the fixed configuration of a sport.
type Profile struct {
	Sport    Sport
	Stats    []string
	Labels   []Label
	TestSize float64
}

var (
	threeWay = []Label{HomeWin, Draw, AwayWin}
	twoWay   = []Label{HomeWin, AwayWin}

	order = []Sport{Football, Basketball, Tennis, Rugby, Handball}

	profiles = map[Sport]Profile{
		Football: {
			Sport:    Football,
			Stats:    []string{StatStrength, StatForm, StatXG, StatInjuries, StatShots, StatPoss},
			Labels:   threeWay,
			TestSize: DefaultTestSize,
		},
		Basketball: {
			Sport:    Basketball,
			Stats:    []string{StatStrength, StatForm, StatInjuries, StatShots, StatPoss},
			Labels:   twoWay,
			TestSize: DefaultTestSize,
		},
		Tennis: {
			Sport:    Tennis,
			Stats:    []string{StatStrength, StatForm, StatInjuries},
			Labels:   twoWay,
			TestSize: DefaultTestSize,
		},
		Rugby: {
			Sport:    Rugby,
			Stats:    []string{StatStrength, StatForm, StatInjuries, StatShots, StatPoss},
			Labels:   threeWay,
			TestSize: DefaultTestSize,
		},
		Handball: {
			Sport:    Handball,
			Stats:    []string{StatStrength, StatForm, StatInjuries, StatShots, StatPoss},
			Labels:   threeWay,
			TestSize: DefaultTestSize,
		},
	}
)

// All returns every supported sport in a stable order.
func All() []Sport {
	out := make([]Sport, len(order))
	copy(out, order)
	return out
}

// Index returns the position of s in All(), or -1.
func Index(s Sport) int {
	for i, v := range order {
		if v == s {
			return i
		}
	}
	return -1
}

// Parse converts a user supplied name into a Sport.
func Parse(name string) (Sport, error) {
	s := Sport(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := profiles[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSport, name)
	}
	return s, nil
}

// Lookup returns the profile for s.
func Lookup(s Sport) (Profile, error) {
	p, ok := profiles[s]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownSport, string(s))
	}
	return p, nil
}

// MustLookup is Lookup for sports known to be valid.
func MustLookup(s Sport) Profile {
	p, err := Lookup(s)
	if err != nil {
		panic(err)
	}
	return p
}

// FeatureNames returns the ordered feature schema: all <stem>_a/<stem>_b pairs
// followed by the <stem>_diff columns.
func (p Profile) FeatureNames() []string {
	names := make([]string, 0, len(p.Stats)*3)
	for _, s := range p.Stats {
		names = append(names, s+"_a", s+"_b")
	}
	for _, s := range p.Stats {
		names = append(names, s+"_diff")
	}
	return names
}

// NumFeatures is len(FeatureNames()).
func (p Profile) NumFeatures() int {
	return len(p.Stats) * 3
}

// HasDraw reports whether the sport can end level.
func (p Profile) HasDraw() bool {
	for _, l := range p.Labels {
		if l == Draw {
			return true
		}
	}
	return false
}

// LabelIndex returns the class index of l, or -1 when l is not in the taxonomy.
func (p Profile) LabelIndex(l Label) int {
	for i, v := range p.Labels {
		if v == l {
			return i
		}
	}
	return -1
}

// LabelFor derives the outcome label from the two scores.
func (p Profile) LabelFor(scoreA, scoreB float64) (Label, error) {
	switch {
	case scoreA > scoreB:
		return HomeWin, nil
	case scoreA < scoreB:
		return AwayWin, nil
	case p.HasDraw():
		return Draw, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrDrawNotAllowed, p.Sport)
	}
}

func (s Sport) String() string { return string(s) }

func (l Label) String() string { return string(l) }
