package tree

// Primitive identifies which heap primitive an event came from. The aligned
// variants (memalign, valloc, pvalloc) are folded into Malloc: they request
// fresh memory the same way and keeping the counter set small keeps Node
// compact.
type Primitive uint8

const (
	Malloc Primitive = iota
	Realloc
	Calloc
	Free

	numPrimitives
)

var primitiveNames = [numPrimitives]string{
	Malloc:  "malloc",
	Realloc: "realloc",
	Calloc:  "calloc",
	Free:    "free",
}

// String returns the libc name of the primitive, as used in stats keys
// ("nCallsTo_malloc" and friends).
func (p Primitive) String() string {
	if p >= numPrimitives {
		return "invalid"
	}
	return primitiveNames[p]
}

// Primitives lists every tracked primitive in stable emission order.
func Primitives() [4]Primitive {
	return [4]Primitive{Malloc, Realloc, Calloc, Free}
}
