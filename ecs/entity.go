package ecs

import "strconv"

// Entity packs a slot id in the low 32 bits and the slot's generation in the
// high 32 bits. The physics backend keys bodies by the same value, so a
// recycled slot never inherits the body of an earlier generation.
type Entity uint64

type entityID uint32
type generation uint32

const entityIDBits = 32

func makeEntity(id entityID, gen generation) Entity {
	return Entity(uint64(gen)<<entityIDBits | uint64(id))
}

func (e Entity) id() entityID {
	return entityID(uint32(e))
}

func (e Entity) generation() generation {
	return generation(uint32(uint64(e) >> entityIDBits))
}

// String prints the slot id, followed by the generation once the slot has
// been recycled ("7" then "7v1").
func (e Entity) String() string {
	s := strconv.FormatUint(uint64(e.id()), 10)
	if gen := e.generation(); gen > 0 {
		s += "v" + strconv.FormatUint(uint64(gen), 10)
	}
	return s
}

// Valid reports whether e names a slot at all. It says nothing about
// liveness; use IsAlive for that.
func (e Entity) Valid() bool {
	return e.id() != 0
}
