package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type profile struct {
	ID      string    `json:"id" cbor:"id" msgpack:"id"`
	Name    string    `json:"name" cbor:"name" msgpack:"name"`
	Tags    []string  `json:"tags" cbor:"tags" msgpack:"tags"`
	Updated time.Time `json:"updated" cbor:"updated" msgpack:"updated"`
}

func TestCodecsRoundTrip(t *testing.T) {
	want := profile{
		ID:      "42",
		Name:    "Ada",
		Tags:    []string{"a", "b"},
		Updated: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	codecs := map[string]Codec[profile]{
		"json":     JSON[profile]{},
		"cbor":     MustCBOR[profile](false),
		"cbor-det": MustCBOR[profile](true),
		"msgpack":  Msgpack[profile]{},
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			b, err := c.Encode(want)
			require.NoError(t, err)
			got, err := c.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.Tags, got.Tags)
			assert.True(t, want.Updated.Equal(got.Updated))
		})
	}
}

func TestCBORDeterministicIsStable(t *testing.T) {
	c := MustCBOR[map[string]int](true)
	a, err := c.Encode(map[string]int{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	b, err := c.Encode(map[string]int{"c": 3, "a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestProto(t *testing.T) {
	c := NewProto(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := c.Encode(wrapperspb.String("hello"))
	require.NoError(t, err)
	got, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.GetValue())
}

func TestLimit(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxDecode: 4}
	b, err := c.Encode("hello")
	require.NoError(t, err)

	_, err = c.Decode(b)
	assert.ErrorIs(t, err, ErrTooLarge)
	var tl *TooLargeError
	require.ErrorAs(t, err, &tl)
	assert.Equal(t, 5, tl.Size)

	got, err := c.Decode([]byte("hey"))
	require.NoError(t, err)
	assert.Equal(t, "hey", got)

	unlimited := Limit[string]{Inner: String{}}
	got, err = unlimited.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestMsgpackJSONTags(t *testing.T) {
	type item struct {
		Title string `json:"title"`
	}
	b, err := Msgpack[item]{JSONTags: true}.Encode(item{Title: "x"})
	require.NoError(t, err)

	m, err := Msgpack[map[string]any]{}.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "x", m["title"])
}

func TestJSONDecodeError(t *testing.T) {
	_, err := JSON[profile]{}.Decode([]byte("{"))
	assert.Error(t, err)
}

func TestBytesIsIdentity(t *testing.T) {
	in := []byte{1, 2, 3}
	out, err := Bytes{}.Encode(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
