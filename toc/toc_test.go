package toc

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	body := `<h1>Intro</h1><p>text</p><h2 id="auto">Part <em>one</em></h2><h4>skip</h4><div><h3>Deep</h3></div>`
	out, entries, err := Generate(body)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []Entry{
		{ID: "heading-0", Text: "Intro", Level: 1},
		{ID: "heading-1", Text: "Part one", Level: 2},
		{ID: "heading-2", Text: "Deep", Level: 3},
	}
	if len(entries) != len(want) {
		t.Fatalf("entries = %+v", entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
	for _, frag := range []string{`<h1 id="heading-0">`, `<h2 id="heading-1">`, `<h3 id="heading-2">`, `<h4>skip</h4>`} {
		if !strings.Contains(out, frag) {
			t.Errorf("output missing %s: %s", frag, out)
		}
	}
	if strings.Contains(out, `id="auto"`) {
		t.Error("previous heading id kept")
	}
	if entries[1].Class() != "toc-link toc-h2" {
		t.Errorf("Class = %q", entries[1].Class())
	}
}

func TestGenerateNoHeadings(t *testing.T) {
	body := "<p>just text</p>"
	out, entries, err := Generate(body)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(entries) != 0 || out != body {
		t.Errorf("Generate = %q, %+v", out, entries)
	}
}

func TestActive(t *testing.T) {
	tops := []float64{0, 400, 900}
	tests := []struct {
		scrollY float64
		want    int
	}{
		{0, 0},
		{299, 0},
		{300, 1},
		{799, 1},
		{800, 2},
		{5000, 2},
	}
	for _, tt := range tests {
		if got := Active(tops, tt.scrollY); got != tt.want {
			t.Errorf("Active(%v) = %d, want %d", tt.scrollY, got, tt.want)
		}
	}
	if got := Active([]float64{500}, 0); got != 0 {
		t.Errorf("Active below first heading = %d", got)
	}
	if got := Active(nil, 0); got != -1 {
		t.Errorf("Active(nil) = %d", got)
	}
}
