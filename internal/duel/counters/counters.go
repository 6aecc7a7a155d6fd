// Package counters manages the named counters a card can accumulate
// (spell counters, predator counters and the like). Counter kinds are
// identified by the numeric codes card text refers to.
package counters

// Kind identifies a counter kind by its numeric code.
type Kind uint16

const (
	KindSpell     Kind = 0x1
	KindIce       Kind = 0x9
	KindVenom     Kind = 0x10
	KindBushido   Kind = 0x18
	KindPredator  Kind = 0x21
	KindCharge    Kind = 0x37
	KindSignal    Kind = 0x3c
	KindKaiju     Kind = 0x3f
)

// Counter is one kind of counter with its current count.
type Counter struct {
	Kind  Kind
	Count int
}

// Add increases the count by amount. Non-positive amounts are ignored.
func (c *Counter) Add(amount int) {
	if amount > 0 {
		c.Count += amount
	}
}

// Remove decreases the count by up to amount, reporting how many
// counters were actually removed.
func (c *Counter) Remove(amount int) int {
	if amount <= 0 {
		return 0
	}
	if amount > c.Count {
		amount = c.Count
	}
	c.Count -= amount
	return amount
}

// Copy creates a deep copy of the counter.
func (c *Counter) Copy() *Counter {
	return &Counter{Kind: c.Kind, Count: c.Count}
}

// Counters is the collection of counters on a single card.
type Counters struct {
	byKind map[Kind]*Counter
}

// New creates an empty counter collection.
func New() *Counters {
	return &Counters{byKind: make(map[Kind]*Counter)}
}

// Add places amount counters of the given kind.
func (cs *Counters) Add(kind Kind, amount int) {
	if amount <= 0 {
		return
	}
	if existing, ok := cs.byKind[kind]; ok {
		existing.Add(amount)
		return
	}
	cs.byKind[kind] = &Counter{Kind: kind, Count: amount}
}

// Remove takes up to amount counters of the given kind, reporting how
// many were removed. Exhausted kinds are dropped from the collection.
func (cs *Counters) Remove(kind Kind, amount int) int {
	existing, ok := cs.byKind[kind]
	if !ok {
		return 0
	}
	removed := existing.Remove(amount)
	if existing.Count == 0 {
		delete(cs.byKind, kind)
	}
	return removed
}

// Count returns the number of counters of the given kind.
func (cs *Counters) Count(kind Kind) int {
	if existing, ok := cs.byKind[kind]; ok {
		return existing.Count
	}
	return 0
}

// Total returns the number of counters across all kinds.
func (cs *Counters) Total() int {
	total := 0
	for _, c := range cs.byKind {
		total += c.Count
	}
	return total
}

// Kinds returns the kinds currently present, in unspecified order.
func (cs *Counters) Kinds() []Kind {
	kinds := make([]Kind, 0, len(cs.byKind))
	for k := range cs.byKind {
		kinds = append(kinds, k)
	}
	return kinds
}

// Clear removes every counter. Used when a card leaves the field.
func (cs *Counters) Clear() {
	cs.byKind = make(map[Kind]*Counter)
}

// Copy creates a deep copy of the collection.
func (cs *Counters) Copy() *Counters {
	cpy := New()
	for k, c := range cs.byKind {
		cpy.byKind[k] = c.Copy()
	}
	return cpy
}
