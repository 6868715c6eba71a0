// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package findings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyber-survey/internal/catalog"
)

func groupAccounts(t *testing.T) catalog.Control {
	t.Helper()
	control, ok := catalog.Default().Get("Group Accounts")
	require.True(t, ok)
	return control
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name        string
		implemented bool
		details     string
		artifacts   string
		want        string
	}{
		{
			name:        "implemented",
			implemented: true,
			details:     "Reviewed AC policy",
			artifacts:   "AC-Policy.docx",
			want:        "Group Accounts are used.\nReviewed AC policy\nArtifacts: AC-Policy.docx",
		},
		{
			name:        "not implemented",
			implemented: false,
			details:     "",
			artifacts:   "",
			want:        "Group Accounts are not used.\n\nArtifacts: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finding := Compose(groupAccounts(t), tt.implemented, tt.details, tt.artifacts)
			assert.Equal(t, tt.want, finding.Text)
			assert.Equal(t, "Group Accounts", finding.Control)
			assert.Equal(t, []string{"CCI-002129", "CCI-002140", "CCI-002141", "CCI-002142"}, finding.ReferenceCodes)
		})
	}
}

func TestCompose_CopiesReferenceCodes(t *testing.T) {
	control := groupAccounts(t)
	finding := Compose(control, true, "", "")

	finding.ReferenceCodes[0] = "changed"
	assert.Equal(t, "CCI-002129", control.ReferenceCodes[0])
}

func TestArtifactReference(t *testing.T) {
	assert.Equal(t, "", ArtifactReference(nil))
	assert.Equal(t, "a.pdf", ArtifactReference([]string{"a.pdf"}))
	assert.Equal(t, "b.docx, a.pdf", ArtifactReference([]string{"b.docx", "a.pdf"}))
}

func TestParseAnswer(t *testing.T) {
	for _, answer := range []string{"yes", "Yes", " YES ", "y", "true"} {
		got, err := ParseAnswer(answer)
		require.NoError(t, err, answer)
		assert.True(t, got, answer)
	}
	for _, answer := range []string{"no", "No", "n", "false"} {
		got, err := ParseAnswer(answer)
		require.NoError(t, err, answer)
		assert.False(t, got, answer)
	}
	_, err := ParseAnswer("maybe")
	assert.Error(t, err)
}
