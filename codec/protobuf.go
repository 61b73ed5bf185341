package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Proto encodes protobuf messages. New allocates the message Decode fills,
// e.g. func() *pb.Profile { return new(pb.Profile) }.
type Proto[T proto.Message] struct {
	New func() T
}

func NewProto[T proto.Message](newMsg func() T) Proto[T] { return Proto[T]{New: newMsg} }

func (c Proto[T]) Encode(m T) ([]byte, error) { return proto.Marshal(m) }

func (c Proto[T]) Decode(b []byte) (T, error) {
	m := c.New()
	if err := proto.Unmarshal(b, m); err != nil {
		return m, fmt.Errorf("codec: proto: %w", err)
	}
	return m, nil
}
