package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"renderfarm/internal/credentials"
	"renderfarm/internal/scene"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := min(int64(chunkSize), remaining)
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteScene stores doc as a scene file at path.
func WriteScene(t testing.TB, path string, doc scene.Document) {
	t.Helper()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("encode scene: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write scene %s: %v", path, err)
	}
}

// WriteCredentials seeds the credential file at path.
func WriteCredentials(t testing.TB, path, user, hash string) {
	t.Helper()

	if err := credentials.NewFileStore(path).Write(credentials.Record{User: user, Hash: hash}); err != nil {
		t.Fatalf("write credentials: %v", err)
	}
}
