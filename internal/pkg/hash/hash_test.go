package hash

import (
	"strings"
	"testing"
)

func TestSHA256String(t *testing.T) {
	// Known vector for "hello"
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got := SHA256String("hello"); got != want {
		t.Errorf("SHA256String(hello) = %s, want %s", got, want)
	}
}

func TestSHA256Short(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"short prefix", 16, 16},
		{"full length", 64, 64},
		{"over length", 100, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SHA256Short([]byte("data"), tt.n)
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestChunkKey_NormalizesWhitespaceAndCase(t *testing.T) {
	a := ChunkKey("The  Quick Brown\nFox", "doc-1")
	b := ChunkKey("the quick brown fox", "doc-1")
	if a != b {
		t.Error("keys should match after normalization")
	}

	c := ChunkKey("the quick brown fox", "doc-2")
	if a == c {
		t.Error("different sources must produce different keys")
	}
}

func TestCacheKey(t *testing.T) {
	key := CacheKey("embed", "some text")
	if !strings.HasPrefix(key, "embed:") {
		t.Errorf("expected namespace prefix, got %s", key)
	}
}
