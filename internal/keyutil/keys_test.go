package keyutil

import "testing"

func TestSum(t *testing.T) {
	a := Sum([]byte(`{"q":1}`))
	if len(a) != 64 {
		t.Fatalf("sum length: got %d want 64", len(a))
	}
	if a != Sum([]byte(`{"q":1}`)) {
		t.Fatalf("sum must be deterministic")
	}
	if a == Sum([]byte(`{"q":2}`)) {
		t.Fatalf("different inputs must not collide here")
	}
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Fatalf("empty sum: got %s", got)
	}
}

func TestDigestIsSumPrefix(t *testing.T) {
	b := []byte("profile:42")
	d := Digest(b)
	if len(d) != 16 {
		t.Fatalf("digest length: got %d want 16", len(d))
	}
	if d != Sum(b)[:16] {
		t.Fatalf("digest %s is not a prefix of the sum", d)
	}
	// sha256("") = e3b0c44298fc1c14...
	if got := Digest(nil); got != "e3b0c44298fc1c14" {
		t.Fatalf("empty digest: got %s", got)
	}
}
