// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pages(texts ...string) []Unit {
	units := make([]Unit, len(texts))
	for i, text := range texts {
		units[i] = Unit{Label: "Page " + string(rune('1'+i)), Text: text}
	}
	return units
}

func TestMatch_PagesInAscendingOrder(t *testing.T) {
	units := pages(
		"introduction",
		"The system uses a Group Account for operators.",
		"nothing here",
		"still nothing",
		"Every group account is reviewed yearly.",
	)

	result := Match(units, nil, []string{"group account"})

	assert.Equal(t, []string{"Page 2", "Page 5"}, result.Detail.Get("group account"))
	assert.Empty(t, result.Topic)
}

func TestMatch_CaseInsensitiveSubstring(t *testing.T) {
	units := []Unit{{Label: "Paragraph 1", Text: "ACCESS CONTROLS are documented"}}

	result := Match(units, []string{"Access Control"}, nil)

	require.Len(t, result.Topic, 1)
	assert.Equal(t, "Access Control", result.Topic[0].Keyword)
	assert.Equal(t, []string{"Paragraph 1"}, result.Topic[0].Locations)
}

func TestMatch_NoWordBoundaries(t *testing.T) {
	units := []Unit{{Label: "Paragraph 1", Text: "retraining schedule"}}

	result := Match(units, nil, []string{"training"})

	assert.Equal(t, []string{"Paragraph 1"}, result.Detail.Get("training"))
}

func TestMatch_AbsentKeywordHasNoEntry(t *testing.T) {
	units := []Unit{{Label: "Page 1", Text: "contingency plan"}}

	result := Match(units, []string{"contingency plan", "user matrix"}, []string{"exercise"})

	assert.Equal(t, []string{"contingency plan"}, result.Topic.Keywords())
	assert.Nil(t, result.Topic.Get("user matrix"))
	assert.Empty(t, result.Detail)
	assert.False(t, result.Qualifies())
	assert.False(t, result.Empty())
}

func TestMatch_KeywordsInFirstSeenOrder(t *testing.T) {
	units := []Unit{
		{Label: "Paragraph 1", Text: "exercise"},
		{Label: "Paragraph 2", Text: "contingency training and exercise"},
	}

	result := Match(units, nil, []string{"contingency training", "training", "exercise"})

	assert.Equal(t, []string{"exercise", "contingency training", "training"}, result.Detail.Keywords())
	assert.Equal(t, []string{"Paragraph 1", "Paragraph 2"}, result.Detail.Get("exercise"))
}

func TestMatch_WholeUnitRecordsOnce(t *testing.T) {
	units := []Unit{{
		Label: "In document",
		Text:  "temporary account ... temporary account ... TEMPORARY ACCOUNT",
		Whole: true,
	}}

	result := Match(units, nil, []string{"temporary account"})

	assert.Equal(t, []string{"In document"}, result.Detail.Get("temporary account"))
}

func TestMatch_SameKeywordInBothLists(t *testing.T) {
	units := []Unit{{Label: "Page 1", Text: "training plan"}}

	result := Match(units, []string{"training plan"}, []string{"training"})

	assert.True(t, result.Qualifies())
	assert.Equal(t, []string{"Page 1"}, result.Topic.Get("training plan"))
	assert.Equal(t, []string{"Page 1"}, result.Detail.Get("training"))
}

func TestMatch_Deterministic(t *testing.T) {
	units := pages("group account", "access control", "group account and account management")
	topic := []string{"access control", "account management"}
	detail := []string{"group account"}

	first := Match(units, topic, detail)
	second := Match(units, topic, detail)

	assert.Equal(t, first, second)
}

func TestMatch_EmptyInput(t *testing.T) {
	result := Match(nil, []string{"a"}, []string{"b"})
	assert.True(t, result.Empty())
}

func TestMatch_CaseInsensitiveWithoutNormalization(t *testing.T) {
	units := []Unit{{Label: "Page 1", Text: "The USER MATRIX lists roles"}, {Label: "Page 2", Text: "user-matrix"}}
	result := Match(units, []string{"user matrix"}, nil)
	assert.Equal(t, []string{"Page 1"}, result.Topic.Get("user matrix"))
}
