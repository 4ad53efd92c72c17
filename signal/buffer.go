package signal

import (
	"sort"

	mapset "github.com/deckarep/golang-set"
)

// buffer keeps every envelope of one type in wire order. An envelope is
// consumed once it was delivered to a waiter; consumed envelopes stay until
// trim is called.
type buffer struct {
	envelopes []*Envelope
	next      int
	// consumed holds the Seq of delivered envelopes still in envelopes.
	consumed mapset.Set
}

func newBuffer() *buffer {
	return &buffer{consumed: mapset.NewThreadUnsafeSet()}
}

func (b *buffer) append(env *Envelope) {
	env.Seq = b.next
	b.next++
	b.envelopes = append(b.envelopes, env)
}

func (b *buffer) isConsumed(env *Envelope) bool {
	return b.consumed.Contains(env.Seq)
}

func (b *buffer) unconsumed() []*Envelope {
	out := make([]*Envelope, 0, len(b.envelopes)-b.consumed.Cardinality())
	for _, env := range b.envelopes {
		if !b.isConsumed(env) {
			out = append(out, env)
		}
	}
	return out
}

// consume marks env as delivered. Envelopes already trimmed are ignored.
func (b *buffer) consume(env *Envelope) {
	i := sort.Search(len(b.envelopes), func(i int) bool {
		return b.envelopes[i].Seq >= env.Seq
	})
	if i < len(b.envelopes) && b.envelopes[i] == env {
		b.consumed.Add(env.Seq)
	}
}

func (b *buffer) snapshot() []*Envelope {
	out := make([]*Envelope, len(b.envelopes))
	copy(out, b.envelopes)
	return out
}

// trim drops consumed envelopes and returns how many were dropped.
func (b *buffer) trim() int {
	n := b.consumed.Cardinality()
	if n == 0 {
		return 0
	}
	kept := make([]*Envelope, 0, len(b.envelopes)-n)
	for _, env := range b.envelopes {
		if !b.isConsumed(env) {
			kept = append(kept, env)
		}
	}
	b.envelopes = kept
	b.consumed.Clear()
	return n
}
