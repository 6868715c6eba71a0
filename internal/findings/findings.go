// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package findings composes the analyst's answer for a control into the
// text that is written to the assessment report.
package findings

import (
	"fmt"
	"strings"

	"cyber-survey/internal/catalog"
)

// Finding is an analyst conclusion for one control. It is not modified after
// Compose returns it.
type Finding struct {
	Control        string   `json:"control" yaml:"control"`
	Implemented    bool     `json:"implemented" yaml:"implemented"`
	Details        string   `json:"details" yaml:"details"`
	Artifacts      string   `json:"artifacts" yaml:"artifacts"`
	ReferenceCodes []string `json:"reference_codes" yaml:"reference_codes"`
	Text           string   `json:"text" yaml:"text"`
}

// Compose builds the finding for control. The text has three lines: the
// verdict, the free-form details and the artifact reference.
func Compose(control catalog.Control, implemented bool, details, artifacts string) Finding {
	verb := "are not"
	if implemented {
		verb = "are"
	}

	codes := make([]string, len(control.ReferenceCodes))
	copy(codes, control.ReferenceCodes)

	return Finding{
		Control:        control.Name,
		Implemented:    implemented,
		Details:        details,
		Artifacts:      artifacts,
		ReferenceCodes: codes,
		Text:           fmt.Sprintf("%s %s used.\n%s\nArtifacts: %s", control.Name, verb, details, artifacts),
	}
}

// ArtifactReference joins selected document names in selection order. It is
// the default the analyst may edit before submitting.
func ArtifactReference(names []string) string {
	return strings.Join(names, ", ")
}

// ParseAnswer accepts yes/no answers in any case
func ParseAnswer(answer string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y", "true":
		return true, nil
	case "no", "n", "false":
		return false, nil
	default:
		return false, fmt.Errorf("answer must be yes or no, got %q", answer)
	}
}
