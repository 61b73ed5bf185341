package codec

// Bytes stores []byte payloads as they are.
type Bytes struct{}

// String stores string payloads as their UTF-8 bytes, unvalidated.
type String struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }
