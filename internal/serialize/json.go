// Package serialize provides the Serializer implementations the core
// package consumes to encode event/payload values. Decoding stays with the
// domain's own Applier (see core.Applier) rather than a shared codec
// layer.
package serialize

import "encoding/json"

// JSON is the default core.Serializer.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
