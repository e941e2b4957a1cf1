package sim

import "sync"

// candidatePool recycles the per-worker result slices of the collision
// search, which runs once per event.
type candidatePool struct {
	pool sync.Pool
}

func newCandidatePool() *candidatePool {
	return &candidatePool{
		pool: sync.Pool{
			New: func() interface{} {
				s := make([]candidate, 0, 8)
				return &s
			},
		},
	}
}

// Get returns a slice of n candidates, all set to "no collision".
func (p *candidatePool) Get(n int) *[]candidate {
	s := p.pool.Get().(*[]candidate)
	if cap(*s) < n {
		*s = make([]candidate, n)
	}
	*s = (*s)[:n]
	for i := range *s {
		(*s)[i] = noCollision
	}
	return s
}

func (p *candidatePool) Put(s *[]candidate) {
	*s = (*s)[:0]
	p.pool.Put(s)
}
