package extraction

import (
	"strings"
	"testing"
	"unicode/utf8"

	types "github.com/yungbote/weave-backend/internal/domain"
)

func typesOf(cands []Candidate) []types.EntityType {
	out := make([]types.EntityType, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Type)
	}
	return out
}

func TestRulesExtract(t *testing.T) {
	r := NewRules()
	cases := []struct {
		name    string
		content string
		want    []types.EntityType
	}{
		{"empty", "", nil},
		{"whitespace", "   \n\t", nil},
		{"no markers", "hello there, nice weather", nil},
		{"activity without time", "dinner was great", nil},
		{"plan", "Let's meet on Friday", []types.EntityType{types.EntityPlan}},
		{"plan reversed order", "Tomorrow we go hiking", []types.EntityType{types.EntityPlan}},
		{"plan clock time", "coffee 9:30am?", []types.EntityType{types.EntityPlan}},
		{"decision", "We agreed to use postgres", []types.EntityType{types.EntityDecision}},
		{"decision casing", "DECIDED: blue walls", []types.EntityType{types.EntityDecision}},
		{"promise", "I promise", []types.EntityType{types.EntityPromise}},
		{"promise curly apostrophe", "I’ll call her", []types.EntityType{types.EntityPromise}},
		{
			"all three",
			"I'll bring the cake tomorrow at 5pm, let's decide on the venue",
			[]types.EntityType{types.EntityPlan, types.EntityDecision, types.EntityPromise},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Extract(tc.content)
			if got == nil {
				t.Fatalf("Extract should never return nil")
			}
			gotTypes := typesOf(got)
			if len(gotTypes) != len(tc.want) {
				t.Fatalf("types: want=%v got=%v", tc.want, gotTypes)
			}
			for i := range tc.want {
				if gotTypes[i] != tc.want[i] {
					t.Fatalf("types: want=%v got=%v", tc.want, gotTypes)
				}
			}
		})
	}
}

func TestRulesFixedImportance(t *testing.T) {
	got := NewRules().Extract("I'll bring the cake tomorrow at 5pm, let's decide on the venue")
	want := map[types.EntityType]float64{
		types.EntityPlan:     PlanImportance,
		types.EntityDecision: DecisionImportance,
		types.EntityPromise:  PromiseImportance,
	}
	for _, c := range got {
		if c.Importance != want[c.Type] {
			t.Fatalf("%s importance: want=%v got=%v", c.Type, want[c.Type], c.Importance)
		}
	}
}

func TestTitleAndDescriptionBounds(t *testing.T) {
	short := "I will call you"
	got := NewRules().Extract(short)
	if len(got) != 1 || got[0].Title != short || got[0].Description != short {
		t.Fatalf("short content should be kept verbatim: %+v", got)
	}

	long := "I will " + strings.Repeat("é", 300)
	got = NewRules().Extract(long)
	if len(got) == 0 {
		t.Fatalf("expected a promise candidate")
	}
	c := got[0]
	if n := utf8.RuneCountInString(c.Title); n != MaxTitleRunes+3 {
		t.Fatalf("title runes: want=%d got=%d", MaxTitleRunes+3, n)
	}
	if !strings.HasSuffix(c.Title, "...") {
		t.Fatalf("truncated title should end with ellipsis: %q", c.Title)
	}
	if n := utf8.RuneCountInString(c.Description); n != MaxDescriptionRunes {
		t.Fatalf("description runes: want=%d got=%d", MaxDescriptionRunes, n)
	}
	if !utf8.ValidString(c.Title) || !utf8.ValidString(c.Description) {
		t.Fatalf("truncation split a rune")
	}
}

func TestTitleTrimsAtCut(t *testing.T) {
	// The 50th rune is a space.
	content := strings.Repeat("a", 49) + " tomorrow we decide"
	got := Title(content)
	want := strings.Repeat("a", 49) + "..."
	if got != want {
		t.Fatalf("title: want=%q got=%q", want, got)
	}
	if n := utf8.RuneCountInString(got); n > MaxTitleRunes+3 {
		t.Fatalf("title too long: %d", n)
	}
}

func TestFuncAdapter(t *testing.T) {
	var e Extractor = Func(func(string) []Candidate {
		return []Candidate{{Type: types.EntityMemory, Title: "m"}}
	})
	if got := e.Extract("anything"); len(got) != 1 || got[0].Type != types.EntityMemory {
		t.Fatalf("unexpected: %+v", got)
	}
	if got := Func(nil).Extract("x"); got != nil {
		t.Fatalf("nil func should yield nil")
	}
}
