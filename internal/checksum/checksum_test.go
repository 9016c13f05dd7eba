package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Sum([]byte("abc")); got != want {
		t.Errorf("Sum = %q, want %q", got, want)
	}
	if Sum([]byte("abc")) != Sum([]byte("abc")) {
		t.Error("Sum not deterministic")
	}
	if Sum([]byte("abc")) == Sum([]byte("abd")) {
		t.Error("distinct inputs collided")
	}
}
