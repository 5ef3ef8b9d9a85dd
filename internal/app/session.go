package app

import (
	"sort"
	"sync"
	"time"

	"formbuilder-service/internal/domain"
)

// Editor is a user connected to a form editing session.
type Editor struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
	LastSeen time.Time `json:"lastSeen"`
}

// Session is the in-process state of one form being edited: who is
// connected, who listens for layout updates, and the lock that serializes
// structural operations on the form.
type Session struct {
	formID string
	now    func() time.Time

	// edit is held for the whole load-mutate-refetch cycle of an operation.
	edit sync.Mutex

	mu          sync.RWMutex
	editors     map[string]*Editor
	subscribers map[chan domain.Layout]struct{}
	latest      *domain.Layout
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(formID string) *Session {
	return NewSessionWithClock(formID, time.Now)
}

// NewSessionWithClock is used by tests for deterministic timestamps.
func NewSessionWithClock(formID string, now func() time.Time) *Session {
	return &Session{
		formID:      formID,
		now:         now,
		editors:     make(map[string]*Editor),
		subscribers: make(map[chan domain.Layout]struct{}),
	}
}

// join adds or refreshes an editor and reports whether the editor is new.
func (s *Session) join(editorID, name string) ([]Editor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	editor, ok := s.editors[editorID]
	if ok {
		editor.Name = name
		editor.LastSeen = now
	} else {
		s.editors[editorID] = &Editor{ID: editorID, Name: name, JoinedAt: now, LastSeen: now}
	}
	return s.editorsLocked(), !ok
}

// touch records activity of an editor that must already have joined.
func (s *Session) touch(editorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	editor, ok := s.editors[editorID]
	if !ok {
		return domain.ErrEditorNotFound
	}
	editor.LastSeen = s.now()
	return nil
}

func (s *Session) leave(editorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.editors[editorID]
	delete(s.editors, editorID)
	return ok
}

// IsEmpty reports whether no editor is connected.
func (s *Session) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.editors) == 0
}

// Editors lists connected editors by join time.
func (s *Session) Editors() []Editor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editorsLocked()
}

func (s *Session) editorsLocked() []Editor {
	out := make([]Editor, 0, len(s.editors))
	for _, e := range s.editors {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// subscribe registers a listener; the last published layout, if any, is
// delivered immediately.
func (s *Session) subscribe() (<-chan domain.Layout, func()) {
	ch := make(chan domain.Layout, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	if s.latest != nil {
		ch <- *s.latest
	}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// publish stores layout as the latest snapshot and fans it out.
func (s *Session) publish(layout domain.Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &layout
	for ch := range s.subscribers {
		select {
		case ch <- layout:
		default:
			// Slow subscriber: replace its oldest pending snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- layout
		}
	}
}
