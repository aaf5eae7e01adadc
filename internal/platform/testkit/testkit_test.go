package testkit

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMustPanic(t *testing.T) {
	t.Parallel()

	MustPanic(t, func() {
		panic("boom")
	})
}

func TestMustContain(t *testing.T) {
	t.Parallel()

	haystack := "alpha beta gamma"
	MustContain(t, haystack, "beta")
	MustNotContain(t, haystack, "delta")
}

func TestMustReadFileAndEqualBytes(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(p, []byte("same"), 0o600); err != nil {
		t.Fatal(err)
	}
	MustEqualBytes(t, MustReadFile(t, p), []byte("same"))
}
