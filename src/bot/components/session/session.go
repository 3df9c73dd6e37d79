// Package session holds in-progress omikuji drafts. Drafts live in
// process memory only: a restart drops them, committed slips do not.
package session

import (
	"sync"

	"github.com/nuscas/omikuji-bot/src/shared/fortune"
)

// Step is where a draft currently sits in the submission conversation.
type Step int

const (
	// StepClass: the author still has to pick a grade.
	StepClass Step = iota
	// StepDescription: waiting for the overall description text.
	StepDescription
	// StepSectionChoice: waiting for the next section kind, or a save.
	StepSectionChoice
	// StepSectionText: a section is open and waiting for its text.
	StepSectionText
	// StepPhotoDecision: waiting for a photo, or the word to save as is.
	StepPhotoDecision
)

// Draft is an omikuji slip being authored. Fields fill in conversation
// order; Sections is append-only and only its last element may be
// missing text. The flow engine is the only mutator, and the dispatcher
// serializes it per user.
type Draft struct {
	Class         fortune.Class
	Description   *string
	Sections      []fortune.Section
	AwaitingPhoto bool
}

// Step derives the current conversation step from the draft's shape.
// The draft carries no separate state field, so the two can never
// disagree.
func (d *Draft) Step() Step {
	switch {
	case d.Class == fortune.ClassUnset:
		return StepClass
	case d.Description == nil:
		return StepDescription
	case len(d.Sections) == 0:
		return StepSectionChoice
	case d.Sections[len(d.Sections)-1].Text == "":
		return StepSectionText
	case d.AwaitingPhoto:
		return StepPhotoDecision
	default:
		return StepSectionChoice
	}
}

// LastSectionFilled reports whether the draft has at least one section
// and the most recent one has its text. This is the gate for saving.
func (d *Draft) LastSectionFilled() bool {
	return len(d.Sections) > 0 && d.Sections[len(d.Sections)-1].Text != ""
}

// Store maps a chat identity to its single in-progress draft.
type Store struct {
	mu     sync.RWMutex
	drafts map[string]*Draft
}

func NewStore() *Store {
	return &Store{drafts: make(map[string]*Draft)}
}

// Get returns the user's draft, or nil when none is in progress.
func (s *Store) Get(userID string) *Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drafts[userID]
}

// Create starts an empty draft for the user. It reports false when a
// draft already exists; the existing draft is left untouched.
func (s *Store) Create(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[userID]; ok {
		return false
	}
	s.drafts[userID] = &Draft{}
	return true
}

// Delete drops the user's draft. Deleting a missing draft is a no-op.
func (s *Store) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, userID)
}

// Len reports how many drafts are in progress.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}
