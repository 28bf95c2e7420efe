package serialize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestProtobufRoundTripsGeneratedMessages(t *testing.T) {
	sent := timestamppb.New(time.UnixMilli(1700000000000))

	data, err := Protobuf{}.Marshal(sent)
	require.NoError(t, err)

	var got timestamppb.Timestamp
	require.NoError(t, proto.Unmarshal(data, &got))
	assert.True(t, proto.Equal(sent, &got))
}

func TestProtobufRejectsNonProtoValues(t *testing.T) {
	_, err := Protobuf{}.Marshal(struct{ A int }{A: 1})
	assert.Error(t, err)
}

func TestTypeRegistryResolvesRegisteredTypes(t *testing.T) {
	reg := NewTypeRegistry()
	reg.Register("StatusPing", &timestamppb.Timestamp{})

	code, err := reg.TypeCodeFor(timestamppb.Now())
	require.NoError(t, err)
	assert.Equal(t, "StatusPing", code)

	_, err = reg.TypeCodeFor("unregistered")
	assert.Error(t, err)
}
