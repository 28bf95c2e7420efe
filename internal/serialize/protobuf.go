package serialize

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Protobuf is an alternate core.Serializer for aggregates whose event
// payloads are generated protobuf messages.
type Protobuf struct{}

func (Protobuf) Marshal(v any) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("serialize: %T does not implement proto.Message", v)
	}
	return proto.Marshal(msg)
}
