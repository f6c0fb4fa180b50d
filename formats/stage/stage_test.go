package stage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeTestBitmap(t *testing.T, path string, w, h int, pixels []byte) {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("P5\n")
	buf.WriteString("2 2\n255\n")
	buf.Write(pixels)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadParsesResolutionRobotAndBitmap(t *testing.T) {
	dir := t.TempDir()
	bitmapPath := filepath.Join(dir, "map.pnm")
	writeTestBitmap(t, bitmapPath, 2, 2, []byte{0, 255, 255, 255})

	worldSrc := `resolution 0.1
bitmap (
  bitmap "map.pnm"
  size [ 2 2 ]
)
position (
  pose [ 1 2 0 ]
)
`
	worldPath := filepath.Join(dir, "test.world")
	if err := os.WriteFile(worldPath, []byte(worldSrc), 0o644); err != nil {
		t.Fatal(err)
	}

	frag, err := Load(worldPath)
	if err != nil {
		t.Fatal(err)
	}
	if frag.Resolution != 100 {
		t.Fatalf("resolution = %d, want 100mm (0.1m)", frag.Resolution)
	}
	if frag.Grid == nil {
		t.Fatal("expected a grid loaded from the bitmap")
	}
	if len(frag.Objects) != 1 {
		t.Fatalf("expected one robot object, got %d", len(frag.Objects))
	}
}

func TestLoadDefaultsToMetresAndDegrees(t *testing.T) {
	dir := t.TempDir()
	worldPath := filepath.Join(dir, "simple.world")
	if err := os.WriteFile(worldPath, []byte("resolution 0.05\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	frag, err := Load(worldPath)
	if err != nil {
		t.Fatal(err)
	}
	if frag.Resolution != 50 {
		t.Fatalf("resolution = %d, want 50mm", frag.Resolution)
	}
}
