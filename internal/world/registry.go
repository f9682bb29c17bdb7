package world

// Registry maps identifiers to live objects of one kind. Presence in the
// registry is what makes an object alive. It is a plain map: no locking, the
// caller's loop is the only goroutine touching it.
type Registry[T any] struct {
	data map[ID]T
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		data: make(map[ID]T, 64),
	}
}

// Register inserts v under id. The last registration wins.
func (r *Registry[T]) Register(id ID, v T) {
	r.data[id] = v
}

func (r *Registry[T]) Lookup(id ID) (T, bool) {
	v, ok := r.data[id]
	return v, ok
}

func (r *Registry[T]) Remove(id ID) {
	delete(r.data, id)
}

func (r *Registry[T]) Has(id ID) bool {
	_, ok := r.data[id]
	return ok
}

func (r *Registry[T]) Len() int {
	return len(r.data)
}

// All returns every registered object in unspecified order.
func (r *Registry[T]) All() []T {
	out := make([]T, 0, len(r.data))
	for _, v := range r.data {
		out = append(out, v)
	}
	return out
}

func (r *Registry[T]) Each(fn func(ID, T)) {
	for id, v := range r.data {
		fn(id, v)
	}
}

// Registries is the full set of identity registries for one world. Tests
// build their own set; the process normally holds exactly one.
type Registries struct {
	Items      *Registry[Item]
	Entities   *Registry[*Entity]
	Locations  *Registry[Location]
	Containers *Registry[Container]
}

func NewRegistries() *Registries {
	return &Registries{
		Items:      NewRegistry[Item](),
		Entities:   NewRegistry[*Entity](),
		Locations:  NewRegistry[Location](),
		Containers: NewRegistry[Container](),
	}
}

// Reset empties all four registries.
func (r *Registries) Reset() {
	*r = *NewRegistries()
}

// LookupItem returns the item with the given id, or nil.
func (r *Registries) LookupItem(id ID) Item {
	it, _ := r.Items.Lookup(id)
	return it
}

// LookupEntity returns the entity with the given id, or nil.
func (r *Registries) LookupEntity(id ID) *Entity {
	e, _ := r.Entities.Lookup(id)
	return e
}

// LookupLocation returns the location with the given id, or nil.
func (r *Registries) LookupLocation(id ID) Location {
	l, _ := r.Locations.Lookup(id)
	return l
}

// Dungeons returns every registered dungeon.
func (r *Registries) Dungeons() []*Dungeon {
	var out []*Dungeon
	r.Locations.Each(func(_ ID, l Location) {
		if d, ok := l.(*Dungeon); ok {
			out = append(out, d)
		}
	})
	return out
}
