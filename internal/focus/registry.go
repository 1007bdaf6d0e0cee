package focus

import (
	"sort"
	"sync"
)

// entry is a registered element plus the sequence number of its first registration
type entry struct {
	element Element
	seq     uint64
}

// Registry stores metadata for every focusable element, keyed by id.
// Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	elements map[string]*entry
	nextSeq  uint64
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		elements: make(map[string]*entry),
	}
}

// Register inserts or replaces an element. A replaced element keeps its
// original registration position so tie-breaking on tab order stays stable
// across re-renders.
func (r *Registry) Register(el Element) error {
	if el.ID == "" {
		return newError(ErrTypeValidation, "", "element id must not be empty")
	}
	if el.Type == "" {
		el.Type = TypeCustom
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.elements[el.ID]; ok {
		existing.element = el
		return nil
	}

	r.nextSeq++
	r.elements[el.ID] = &entry{element: el, seq: r.nextSeq}
	return nil
}

// Unregister removes an element. Returns false when the id was unknown.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.elements[id]; !ok {
		return false
	}
	delete(r.elements, id)
	return true
}

// Get returns the element registered under id
func (r *Registry) Get(id string) (Element, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.elements[id]
	if !ok {
		return Element{}, false
	}
	return e.element, true
}

// Has reports whether id is registered
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Len returns the number of registered elements
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.elements)
}

// ElementsInScope returns every element of scope ordered by tab order,
// ties broken by registration order.
func (r *Registry) ElementsInScope(scope string) []Element {
	return r.collect(func(e Element) bool { return e.Scope == scope })
}

// FocusableInScope is ElementsInScope without disabled elements.
func (r *Registry) FocusableInScope(scope string) []Element {
	return r.collect(func(e Element) bool { return e.Scope == scope && e.Focusable() })
}

// All returns every registered element in global tab order.
func (r *Registry) All() []Element {
	return r.collect(func(Element) bool { return true })
}

func (r *Registry) collect(keep func(Element) bool) []Element {
	r.mu.RLock()
	matched := make([]*entry, 0, len(r.elements))
	for _, e := range r.elements {
		if keep(e.element) {
			matched = append(matched, e)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].element.TabOrder != matched[j].element.TabOrder {
			return matched[i].element.TabOrder < matched[j].element.TabOrder
		}
		return matched[i].seq < matched[j].seq
	})

	out := make([]Element, len(matched))
	for i, e := range matched {
		out[i] = e.element
	}
	return out
}
