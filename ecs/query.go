package ecs

import "github.com/milk9111/charcontrol/ecs/component"

// Query returns the live entities carrying every listed kind, in ascending
// entity order. The smallest store drives the intersection.
func (w *World) Query(kinds ...component.Identified) []Entity {
	if w == nil || len(kinds) == 0 {
		return nil
	}
	stores := make([]store, 0, len(kinds))
	for _, k := range kinds {
		s, ok := w.storeFor(k.ID())
		if !ok {
			return nil
		}
		stores = append(stores, s)
	}

	smallest := stores[0]
	for _, s := range stores[1:] {
		if s.len() < smallest.len() {
			smallest = s
		}
	}

	var ids []entityID
next:
	for _, id := range smallest.ids() {
		for _, s := range stores {
			if !s.has(id) {
				continue next
			}
		}
		ids = append(ids, id)
	}
	return w.sorted(ids)
}

// First returns the lowest live entity carrying kind.
func (w *World) First(kind component.Identified) (Entity, bool) {
	ents := w.Query(kind)
	if len(ents) == 0 {
		return 0, false
	}
	return ents[0], true
}
