package worldfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTokenizeBasicGrammar(t *testing.T) {
	toks, err := tokenizeBytes("resolution 0.1 # comment\nsize [ 8 8 ]\n", "<mem>", nil)
	if err != nil {
		t.Fatal(err)
	}
	var kinds []TokenKind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	want := []TokenKind{Word, Space, Num, Space, Comment, EOL, Word, Space, OpenTuple, Space, Num, Space, Num, Space, CloseTuple, EOL}
	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(kinds), len(want), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d kind = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestParseEntityAndProperties(t *testing.T) {
	src := `resolution 0.1
robot (
  pose [ 1 2 3 ]
  name "bob"
)
`
	toks, err := tokenizeBytes(src, "<mem>", nil)
	if err != nil {
		t.Fatal(err)
	}
	w, err := ParseTokens(toks)
	if err != nil {
		t.Fatal(err)
	}
	if w.GetDouble(0, "resolution", -1) != 0.1 {
		t.Fatalf("resolution = %v", w.GetDouble(0, "resolution", -1))
	}
	robot := w.FindEntity("robot")
	if robot < 0 {
		t.Fatal("expected a robot entity")
	}
	if w.GetDoubleTuple(robot, "pose", 2, -1) != 3 {
		t.Fatalf("pose[2] = %v", w.GetDoubleTuple(robot, "pose", 2, -1))
	}
	if w.GetString(robot, "name", "") != "bob" {
		t.Fatalf("name = %q", w.GetString(robot, "name", ""))
	}
}

func TestParseDefineExpandsMacro(t *testing.T) {
	src := `define wifibot position (
  color "blue"
)
wifibot (
  name "r1"
)
`
	toks, err := tokenizeBytes(src, "<mem>", nil)
	if err != nil {
		t.Fatal(err)
	}
	w, err := ParseTokens(toks)
	if err != nil {
		t.Fatal(err)
	}
	positions := w.EntitiesOfType("position")
	if len(positions) != 1 {
		t.Fatalf("expected one expanded position entity, got %d", len(positions))
	}
	if w.GetString(positions[0], "color", "") != "blue" {
		t.Fatalf("color = %q", w.GetString(positions[0], "color", ""))
	}
	if w.GetString(positions[0], "name", "") != "r1" {
		t.Fatalf("name = %q", w.GetString(positions[0], "name", ""))
	}
}

func TestTokenizeDetectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.world")
	b := filepath.Join(dir, "b.world")
	if err := os.WriteFile(a, []byte(`include "b.world"`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte(`include "a.world"`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Tokenize(a)
	if err == nil {
		t.Fatal("expected an include-cycle error")
	}
}

func TestTokenizeFollowsInclude(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.world")
	b := filepath.Join(dir, "b.world")
	if err := os.WriteFile(b, []byte("resolution 0.1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(a, []byte(`include "b.world"`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := Parse(a)
	if err != nil {
		t.Fatal(err)
	}
	if w.GetDouble(0, "resolution", -1) != 0.1 {
		t.Fatalf("included resolution = %v", w.GetDouble(0, "resolution", -1))
	}
}
