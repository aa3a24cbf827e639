package turn

import "math/rand/v2"

// PlaceholderPolicy fills availability and score for rows emitted while
// verification is unavailable.
type PlaceholderPolicy interface {
	Placeholder(domain string) (available bool, score int)
}

// PlaceholderFunc adapts a function to PlaceholderPolicy.
type PlaceholderFunc func(domain string) (bool, int)

func (f PlaceholderFunc) Placeholder(domain string) (bool, int) {
	return f(domain)
}

// RandomPlaceholders returns a random availability and a score in [0,100).
var RandomPlaceholders PlaceholderPolicy = PlaceholderFunc(func(string) (bool, int) {
	return rand.IntN(2) == 1, rand.IntN(100)
})

// FixedPlaceholders always reports the given values. Useful for
// deterministic output and tests.
func FixedPlaceholders(available bool, score int) PlaceholderPolicy {
	return PlaceholderFunc(func(string) (bool, int) {
		return available, score
	})
}
