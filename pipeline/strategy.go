package pipeline

// Token identifies the cache position of a state sequence. It is returned by
// Lookup and passed back to Store on a miss.
type Token any

// Strategy maps state sequences to compiled pipelines.
//
// dirtyFrom is the lowest slot changed since the previous Lookup on the same
// strategy; slots below it are guaranteed unchanged. Strategies that do not
// track prefixes ignore it.
type Strategy interface {
	// Lookup returns the token for states and the stored pipeline, or a nil
	// Handle on a miss.
	Lookup(states []uint64, dirtyFrom int) (Token, Handle)

	// Store records h for a token returned by Lookup.
	Store(tok Token, h Handle)

	// Len returns the number of stored pipelines.
	Len() int

	// Reset drops every stored pipeline. The next Lookup must pass
	// dirtyFrom 0.
	Reset()
}
