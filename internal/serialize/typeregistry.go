package serialize

import (
	"fmt"
	"reflect"
)

// TypeRegistry is a core.TypeFinder mapping concrete Go types to wire type
// codes. Payload types that can't carry a TypeCode method themselves —
// generated protobuf messages in particular — are registered here once at
// wiring time and resolved on the bare publish path.
type TypeRegistry struct {
	codes map[reflect.Type]string
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{codes: make(map[reflect.Type]string)}
}

// Register maps v's concrete type to code. Re-registering a type replaces
// its code.
func (r *TypeRegistry) Register(code string, v any) {
	r.codes[reflect.TypeOf(v)] = code
}

func (r *TypeRegistry) TypeCodeFor(v any) (string, error) {
	code, ok := r.codes[reflect.TypeOf(v)]
	if !ok {
		return "", fmt.Errorf("serialize: no type code registered for %T", v)
	}
	return code, nil
}
