// Snapshot and checksum flow used by the CLI's backup command.
package integration

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/sqlitex/core/driver"
)

func fileHash(t *testing.T, path string) []byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		t.Fatalf("hash %s: %v", path, err)
	}
	return h.Sum(nil)
}

// TestSnapshotCompressRestore snapshots a live database, compresses the
// snapshot and verifies the restored copy matches content-wise.
func TestSnapshotCompressRestore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "live.db")

	c := driver.NewConnection(driver.Config{})
	if err := c.Open(dbPath, ""); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer c.Close()
	exec(t, c, "CREATE TABLE n (v TEXT)")
	for i := 0; i < 50; i++ {
		exec(t, c, "INSERT INTO n VALUES (?)", driver.Text(uuid.NewString()))
	}

	// Snapshot while the connection stays open.
	snapshot := filepath.Join(dir, "snapshot.db")
	exec(t, c, "VACUUM INTO '"+snapshot+"'")

	// Compress and decompress the snapshot.
	var packed bytes.Buffer
	raw, err := os.ReadFile(snapshot)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	zw, err := xz.NewWriter(&packed)
	if err != nil {
		t.Fatalf("xz writer: %v", err)
	}
	if _, err := zw.Write(raw); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close compressor: %v", err)
	}
	if packed.Len() >= len(raw) {
		t.Logf("snapshot did not shrink: %d -> %d", len(raw), packed.Len())
	}

	zr, err := xz.NewReader(&packed)
	if err != nil {
		t.Fatalf("xz reader: %v", err)
	}
	restoredPath := filepath.Join(dir, "restored.db")
	out, err := os.Create(restoredPath)
	if err != nil {
		t.Fatalf("create restored: %v", err)
	}
	if _, err := io.Copy(out, zr); err != nil {
		t.Fatalf("decompress: %v", err)
	}
	out.Close()

	// Byte-identical restore.
	if !bytes.Equal(fileHash(t, snapshot), fileHash(t, restoredPath)) {
		t.Fatal("restored snapshot differs from original")
	}

	// The restored file opens and holds the same rows.
	r := driver.NewConnection(driver.Config{})
	if err := r.Open(restoredPath, "OPEN_READONLY"); err != nil {
		t.Fatalf("open restored: %v", err)
	}
	defer r.Close()
	if got := queryInt(t, r, "SELECT COUNT(*) FROM n"); got != 50 {
		t.Errorf("restored row count = %d, want 50", got)
	}
}
