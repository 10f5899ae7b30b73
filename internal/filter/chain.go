package filter

import "sync"

// Chain is an ordered, mutable composition of filters applied left to
// right. Each stage consumes the previous stage's output; an empty chain is
// the identity transform. There is no error recovery between stages: a
// stage that produces an empty result feeds that emptiness forward.
//
// The chain serializes mutation against Apply so the HTTP surface can edit
// it while the refresh loop runs.
type Chain struct {
	mu      sync.Mutex
	filters []Filter
}

// NewChain builds a chain from the given stages.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// Add appends a filter to the end of the chain.
func (c *Chain) Add(f Filter) {
	c.mu.Lock()
	c.filters = append(c.filters, f)
	c.mu.Unlock()
}

// Remove deletes the given filter instance from the chain, matching by
// identity. Reports whether the filter was found.
func (c *Chain) Remove(f Filter) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cur := range c.filters {
		if cur == f {
			c.filters = append(c.filters[:i], c.filters[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAt deletes the stage at the given position.
func (c *Chain) RemoveAt(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.filters) {
		return false
	}
	c.filters = append(c.filters[:i], c.filters[i+1:]...)
	return true
}

// SetAt forwards a parameter change to the stage at the given position,
// serialized against Apply. Reports false when the position is out of
// range; the error is the stage's own Set result.
func (c *Chain) SetAt(i int, name string, value any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.filters) {
		return false, nil
	}
	return true, c.filters[i].Set(name, value)
}

// Filters returns a snapshot of the current stages in order.
func (c *Chain) Filters() []Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Filter, len(c.filters))
	copy(out, c.filters)
	return out
}

// Len reports the number of stages.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.filters)
}

// Apply runs the input vector through every stage in order and returns the
// final stage's output.
func (c *Chain) Apply(in []float64) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := in
	for _, f := range c.filters {
		f.SetInput(cur)
		cur = f.Apply()
	}
	return cur
}
