// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package session holds the per-analyst state of the review workflow: the
// last scan, the documents picked as artifacts and the submitted finding.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"cyber-survey/internal/findings"
	"cyber-survey/internal/report"
	"cyber-survey/internal/scanner"
)

// Session is one analyst's workflow state. It is safe for concurrent use.
type Session struct {
	ID string

	mu       sync.Mutex
	scan     *scanner.Result
	selected []string
	finding  *findings.Finding
	outcome  *report.Outcome
	lastSeen time.Time
}

func newSession() *Session {
	return &Session{ID: uuid.NewString(), lastSeen: time.Now()}
}

// SetScan replaces the current results. The selection, the finding and the
// last report outcome belong to the previous search and are cleared.
func (s *Session) SetScan(result *scanner.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scan = result
	s.selected = nil
	s.finding = nil
	s.outcome = nil
}

// Scan returns the current results, or nil before the first search
func (s *Session) Scan() *scanner.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan
}

// Select adds or removes a document from the selection. Only qualifying
// documents of the current scan can be selected; it returns false for any
// other name. Selecting twice keeps a single entry.
func (s *Session) Select(name string, on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scan == nil {
		return false
	}
	if _, ok := s.scan.Document(name); !ok {
		return false
	}

	index := -1
	for i, selected := range s.selected {
		if selected == name {
			index = i
			break
		}
	}
	switch {
	case on && index < 0:
		s.selected = append(s.selected, name)
	case !on && index >= 0:
		s.selected = append(s.selected[:index], s.selected[index+1:]...)
	}
	return true
}

// Selected returns the selected document names in selection order
func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selected...)
}

// Submit stores the finding, replacing any earlier one
func (s *Session) Submit(finding findings.Finding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finding = &finding
	s.outcome = nil
}

// Finding returns the submitted finding
func (s *Session) Finding() (findings.Finding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finding == nil {
		return findings.Finding{}, false
	}
	return *s.finding, true
}

// RecordOutcome keeps the result of the last report update
func (s *Session) RecordOutcome(outcome report.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = &outcome
}

// Outcome returns the result of the last report update
func (s *Session) Outcome() (report.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return report.Outcome{}, false
	}
	return *s.outcome, true
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Store maps session ids to sessions
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session), now: time.Now}
}

// New creates and registers a fresh session
func (st *Store) New() *Session {
	s := newSession()
	s.lastSeen = st.now()

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
	return s
}

// Get returns the session for id and marks it as used
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if ok {
		s.touch(st.now())
	}
	return s, ok
}

// GetOrNew returns the session for id, creating one when id is unknown
func (st *Store) GetOrNew(id string) *Session {
	if s, ok := st.Get(id); ok {
		return s
	}
	return st.New()
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Expire drops sessions idle for longer than maxIdle and returns how many
// were removed.
func (st *Store) Expire(maxIdle time.Duration) int {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		if s.idleSince(now) > maxIdle {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}
