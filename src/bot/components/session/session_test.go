package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/nuscas/omikuji-bot/src/shared/fortune"
)

func strptr(s string) *string { return &s }

func TestStepDerivation(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		want  Step
	}{
		{"fresh draft", Draft{}, StepClass},
		{"class picked", Draft{Class: fortune.Curse}, StepDescription},
		{"description set", Draft{Class: fortune.Curse, Description: strptr("d")}, StepSectionChoice},
		{
			"open section",
			Draft{Class: fortune.Curse, Description: strptr("d"), Sections: []fortune.Section{{Kind: fortune.Travel}}},
			StepSectionText,
		},
		{
			"section filled",
			Draft{Class: fortune.Curse, Description: strptr("d"), Sections: []fortune.Section{{Kind: fortune.Travel, Text: "t"}}},
			StepSectionChoice,
		},
		{
			"awaiting photo",
			Draft{Class: fortune.Curse, Description: strptr("d"), Sections: []fortune.Section{{Kind: fortune.Travel, Text: "t"}}, AwaitingPhoto: true},
			StepPhotoDecision,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.draft.Step(); got != tc.want {
				t.Fatalf("Step() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLastSectionFilled(t *testing.T) {
	d := Draft{}
	if d.LastSectionFilled() {
		t.Fatal("no sections yet, must not count as filled")
	}
	d.Sections = append(d.Sections, fortune.Section{Kind: fortune.Study})
	if d.LastSectionFilled() {
		t.Fatal("open section must not count as filled")
	}
	d.Sections[0].Text = "pass with room to spare"
	if !d.LastSectionFilled() {
		t.Fatal("filled section not recognized")
	}
}

func TestStoreCreateIsExclusive(t *testing.T) {
	s := NewStore()
	if !s.Create("u1") {
		t.Fatal("first Create failed")
	}
	if s.Create("u1") {
		t.Fatal("second Create must report an existing draft")
	}
	if s.Get("u1") == nil {
		t.Fatal("draft missing after Create")
	}
	if s.Get("u2") != nil {
		t.Fatal("unrelated user has a draft")
	}

	s.Delete("u1")
	if s.Get("u1") != nil {
		t.Fatal("draft still present after Delete")
	}
	// Deleting again is fine.
	s.Delete("u1")
}

func TestStoreIsolatesUsers(t *testing.T) {
	s := NewStore()
	s.Create("a")
	s.Create("b")
	s.Get("a").Class = fortune.GreatBlessing
	if s.Get("b").Class != fortune.ClassUnset {
		t.Fatal("draft mutation leaked across users")
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", n%8)
			s.Create(id)
			s.Get(id)
			if n%3 == 0 {
				s.Delete(id)
			}
		}(i)
	}
	wg.Wait()
}
