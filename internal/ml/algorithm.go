package ml

import (
	"fmt"
	"strings"
)

// Algorithm names a model family. The set is closed.
type Algorithm string

const (
	Logistic     Algorithm = "logistic"
	RandomForest Algorithm = "random_forest"
)

// numAlgorithms is the number of slots per sport.
const numAlgorithms = 2

var algorithms = [numAlgorithms]Algorithm{Logistic, RandomForest}

// Algorithms returns every supported algorithm in slot order.
func Algorithms() []Algorithm {
	out := make([]Algorithm, numAlgorithms)
	copy(out, algorithms[:])
	return out
}

// ParseAlgorithm accepts the canonical names and the short alias "rf".
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case string(Logistic):
		return Logistic, nil
	case string(RandomForest), "rf":
		return RandomForest, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

func (a Algorithm) String() string { return string(a) }

// index is the slot position of a, or -1 for unknown values.
func (a Algorithm) index() int {
	for i, v := range algorithms {
		if v == a {
			return i
		}
	}
	return -1
}
