package auth

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
	"testing/iotest"
)

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	g := NewTokenGenerator()

	token, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(token) != 2*TokenBytes {
		t.Errorf("len(token) = %d, want %d", len(token), 2*TokenBytes)
	}
	if _, err := hex.DecodeString(token); err != nil {
		t.Errorf("token is not hex: %v", err)
	}
}

func TestGenerate_Unique(t *testing.T) {
	g := NewTokenGenerator()
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		token, err := g.Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if seen[token] {
			t.Fatalf("Generate() repeated a token after %d calls", i)
		}
		seen[token] = true
	}
}

func TestGenerate_UsesRandomSource(t *testing.T) {
	// A fixed source makes the output predictable, proving the bytes come
	// straight from the reader and are hex encoded.
	g := &TokenGenerator{random: bytes.NewReader(bytes.Repeat([]byte{0xab}, TokenBytes))}

	token, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := hex.EncodeToString(bytes.Repeat([]byte{0xab}, TokenBytes))
	if token != want {
		t.Errorf("Generate() = %q..., want %q...", token[:8], want[:8])
	}
}

func TestGenerate_RandomSourceFails(t *testing.T) {
	boom := errors.New("entropy exhausted")
	g := &TokenGenerator{random: iotest.ErrReader(boom)}

	if _, err := g.Generate(); !errors.Is(err, boom) {
		t.Fatalf("Generate() error = %v, want %v", err, boom)
	}
}

func TestGenerate_ShortRead(t *testing.T) {
	g := &TokenGenerator{random: bytes.NewReader(make([]byte, TokenBytes-1))}

	if _, err := g.Generate(); err == nil {
		t.Fatal("Generate() should fail when the source runs dry")
	}
}
