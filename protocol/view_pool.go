package protocol

import "github.com/nczempin/httpc-direct/arena"

// ViewPool is a reusable slab of arena views. Clear drops every entry but
// keeps the backing storage for the next cycle.
type ViewPool struct {
	views []arena.View
}

func NewViewPool(capacity int) *ViewPool {
	return &ViewPool{views: make([]arena.View, 0, capacity)}
}

// Add stores v and returns its index.
func (p *ViewPool) Add(v arena.View) int {
	p.views = append(p.views, v)
	return len(p.views) - 1
}

func (p *ViewPool) Get(i int) arena.View {
	return p.views[i]
}

func (p *ViewPool) Len() int {
	return len(p.views)
}

func (p *ViewPool) Clear() {
	clear(p.views)
	p.views = p.views[:0]
}
