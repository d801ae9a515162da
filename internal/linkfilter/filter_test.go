package linkfilter_test

import (
	"testing"

	"github.com/jonesrussell/graphweave/internal/linkfilter"
)

func TestIsContent(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{name: "plain article", title: "Alan Turing", want: true},
		{name: "article with parenthetical", title: "Go (programming language)", want: true},
		{name: "article containing colon mid-title", title: "Dune: Part Two", want: true},
		{name: "empty", title: "", want: false},
		{name: "whitespace only", title: "   ", want: false},
		{name: "single character", title: "A", want: false},
		{name: "talk namespace", title: "Talk:Alan Turing", want: false},
		{name: "user talk namespace", title: "User talk:Example", want: false},
		{name: "wikipedia namespace", title: "Wikipedia:Manual of Style", want: false},
		{name: "help namespace", title: "Help:Contents", want: false},
		{name: "category namespace", title: "Category:British mathematicians", want: false},
		{name: "portal namespace", title: "Portal:Mathematics", want: false},
		{name: "template namespace", title: "Template:Infobox scientist", want: false},
		{name: "special namespace", title: "Special:Random", want: false},
		{name: "file prefix", title: "File:Alan Turing Aged 16.jpg", want: false},
		{name: "image prefix", title: "Image:Example.png", want: false},
		{name: "media prefix", title: "Media:Example.ogg", want: false},
		{name: "list article", title: "List of pioneers in computer science", want: false},
		{name: "lists article", title: "Lists of mathematicians", want: false},
		{name: "list mid-title is fine", title: "Schindler's List of names", want: true},
		{name: "disambiguation suffix", title: "Mercury (disambiguation)", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := linkfilter.IsContent(tt.title); got != tt.want {
				t.Errorf("IsContent(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	in := []string{
		"Alan Turing",
		"Talk:Alan Turing",
		"File:Turing.jpg",
		"List of computer scientists",
		"Enigma machine",
		"Mercury (disambiguation)",
	}

	got := linkfilter.Filter(in)

	want := []string{"Alan Turing", "Enigma machine"}
	if len(got) != len(want) {
		t.Fatalf("Filter() returned %d titles, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Filter()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
