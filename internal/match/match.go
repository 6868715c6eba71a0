// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package match

import (
	"strings"
)

// Unit is one piece of extracted document text together with the label that
// locates it inside the document ("Page 3", "Paragraph 12", "In document").
type Unit struct {
	Label string
	Text  string
	// Whole marks a unit that covers an entire undivided document. Keywords
	// found in a whole unit are recorded once, no matter how many times the
	// same keyword was already seen.
	Whole bool
}

// Hit holds every location where one keyword was found, in discovery order.
type Hit struct {
	Keyword   string   `json:"keyword" yaml:"keyword"`
	Locations []string `json:"locations" yaml:"locations"`
}

// Hits is an insertion-ordered keyword -> locations mapping. A keyword that
// never matched has no entry.
type Hits []Hit

// Get returns the locations recorded for keyword, or nil.
func (h Hits) Get(keyword string) []string {
	if i := h.index(keyword); i >= 0 {
		return h[i].Locations
	}
	return nil
}

// Keywords returns the matched keywords in first-seen order.
func (h Hits) Keywords() []string {
	keywords := make([]string, 0, len(h))
	for _, hit := range h {
		keywords = append(keywords, hit.Keyword)
	}
	return keywords
}

func (h Hits) index(keyword string) int {
	for i := range h {
		if h[i].Keyword == keyword {
			return i
		}
	}
	return -1
}

// add appends label to keyword's locations, creating the entry when needed.
func (h *Hits) add(keyword, label string) {
	if i := h.index(keyword); i >= 0 {
		(*h)[i].Locations = append((*h)[i].Locations, label)
		return
	}
	*h = append(*h, Hit{Keyword: keyword, Locations: []string{label}})
}

// addOnce records label only when keyword has no entry yet.
func (h *Hits) addOnce(keyword, label string) {
	if h.index(keyword) >= 0 {
		return
	}
	*h = append(*h, Hit{Keyword: keyword, Locations: []string{label}})
}

// Result is the outcome of matching one document against a control's
// topic and detail keyword lists.
type Result struct {
	Topic  Hits `json:"topic_matches" yaml:"topic_matches"`
	Detail Hits `json:"detail_matches" yaml:"detail_matches"`
}

// Empty reports whether neither keyword list matched.
func (r Result) Empty() bool {
	return len(r.Topic) == 0 && len(r.Detail) == 0
}

// Qualifies reports whether the document carries detail evidence. Topic
// matches alone are shown to the analyst but never make a document
// selectable as an artifact.
func (r Result) Qualifies() bool {
	return len(r.Detail) > 0
}

// Match scans units in order and records, per keyword, every unit label in
// which the keyword occurs as a case-insensitive substring.
func Match(units []Unit, topic, detail []string) Result {
	var result Result
	topicTerms := lowerAll(topic)
	detailTerms := lowerAll(detail)

	for _, unit := range units {
		text := strings.ToLower(unit.Text)
		collect(&result.Topic, unit, text, topic, topicTerms)
		collect(&result.Detail, unit, text, detail, detailTerms)
	}
	return result
}

func collect(hits *Hits, unit Unit, lowered string, keywords, lowerTerms []string) {
	for i, keyword := range keywords {
		if !strings.Contains(lowered, lowerTerms[i]) {
			continue
		}
		if unit.Whole {
			hits.addOnce(keyword, unit.Label)
		} else {
			hits.add(keyword, unit.Label)
		}
	}
}

func lowerAll(terms []string) []string {
	lowered := make([]string, len(terms))
	for i, term := range terms {
		lowered[i] = strings.ToLower(term)
	}
	return lowered
}
