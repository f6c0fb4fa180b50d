package pnm

import (
	"bytes"
	"strings"
	"testing"
)

func rawP5(width, height, maxVal int, pixels []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("P5\n")
	buf.WriteString("2 2\n")
	_ = width
	_ = height
	buf.Reset()
	buf.WriteString("P5\n")
	buf.WriteString("# a comment\n")
	buf.WriteString("2 2\n255\n")
	buf.Write(pixels)
	return buf.Bytes()
}

func TestDecodeReadsDimensionsAndPixels(t *testing.T) {
	data := rawP5(2, 2, 255, []byte{0, 128, 255, 64})
	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 2 || img.Height != 2 || img.MaxVal != 255 {
		t.Fatalf("unexpected header: %+v", img)
	}
	if img.At(0, 0) != 0 || img.At(1, 1) != 64 {
		t.Fatalf("unexpected pixel values: %v", img.Pixels)
	}
}

func TestDecodeRejectsWrongMagic(t *testing.T) {
	_, err := Decode(strings.NewReader("P6\n2 2\n255\n\x00\x00\x00\x00"))
	if err == nil {
		t.Fatal("expected an error for a non-P5 magic number")
	}
}

func TestToOccupancyMapsBlackToOccupiedWhiteToFree(t *testing.T) {
	img := &Image{Width: 2, Height: 1, MaxVal: 255, Pixels: []byte{0, 255}}
	occ := img.ToOccupancy(10)
	if occ[0] != 1 {
		t.Fatalf("black pixel should map to fully occupied, got %v", occ[0])
	}
	if occ[1] != 0 {
		t.Fatalf("white pixel should map to free, got %v", occ[1])
	}
}
