// Package dice provides the randomness abstraction used to break initiative ties.
package dice

// Source is the randomness provider.
//
// Implementations are not required to be safe for concurrent use; a match
// drives its source from a single goroutine.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Draw records one random choice for the audit log.
//
// Postcondition: 0 <= Chosen < Options.
type Draw struct {
	Reason  string // why the draw happened, e.g. "first mover"
	Options int    // number of equally likely outcomes
	Chosen  int    // index of the outcome drawn
}
