// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyber-survey/internal/catalog"
	"cyber-survey/internal/testutil"
)

func temporaryAccounts(t *testing.T) catalog.Control {
	t.Helper()
	control, ok := catalog.Default().Get("Temporary Accounts")
	require.True(t, ok)
	return control
}

func writeArchive(t *testing.T, entries ...testutil.Entry) string {
	t.Helper()
	return testutil.WriteFile(t, t.TempDir(), "evidence.zip", testutil.BuildZip(t, entries...))
}

func assertScratchRemoved(t *testing.T, tempDir string) {
	t.Helper()
	leftovers, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, leftovers, "scratch directory should be removed")
}

func TestScan_FindsEvidenceAcrossFormats(t *testing.T) {
	archive := writeArchive(t,
		testutil.Entry{Name: "policies/", Data: nil},
		testutil.Entry{Name: "policies/ac-policy.docx", Data: testutil.BuildDocx(t,
			"Access Control Policy",
			"Temporary accounts are disabled after 72 hours.",
		)},
		testutil.Entry{Name: "matrix.pdf", Data: testutil.BuildPDF(t, "User matrix", "no evidence here")},
		testutil.Entry{Name: "notes.txt", Data: []byte("nothing relevant")},
		testutil.Entry{Name: "diagram.png", Data: []byte("not scanned")},
	)
	tempDir := t.TempDir()

	result, err := New(Config{TempDir: tempDir}, nil).Scan(context.Background(), archive, temporaryAccounts(t))
	require.NoError(t, err)

	require.Len(t, result.Documents, 2)
	assert.Equal(t, "policies/ac-policy.docx", result.Documents[0].Path)
	assert.Equal(t, "ac-policy.docx", result.Documents[0].Name)
	assert.Equal(t, []string{"Paragraph 1"}, result.Documents[0].Matches.Topic.Get("access control"))
	assert.Equal(t, []string{"Paragraph 2"}, result.Documents[0].Matches.Detail.Get("temporary account"))

	assert.Equal(t, "matrix.pdf", result.Documents[1].Name)
	assert.False(t, result.Documents[1].Qualifies())

	qualifying := result.Qualifying()
	require.Len(t, qualifying, 1)
	assert.Equal(t, "ac-policy.docx", qualifying[0].Name)

	assert.Equal(t, "Are temporary accounts used?", result.Prompt)
	assert.Equal(t, []string{"CCI-000016", "CCI-001361"}, result.ReferenceCodes)
	assert.Empty(t, result.Failures)
	assertScratchRemoved(t, tempDir)
}

func TestScan_SkipsLockFiles(t *testing.T) {
	archive := writeArchive(t,
		testutil.Entry{Name: "~$policy.docx", Data: []byte("owner file")},
		testutil.Entry{Name: "docs/~$plan.txt", Data: []byte("temporary account")},
		testutil.Entry{Name: "plan.txt", Data: []byte("temporary account list")},
	)

	result, err := New(Config{TempDir: t.TempDir()}, nil).Scan(context.Background(), archive, temporaryAccounts(t))
	require.NoError(t, err)

	require.Len(t, result.Documents, 1)
	assert.Equal(t, "plan.txt", result.Documents[0].Name)
	assert.Equal(t, []string{"~$policy.docx", "docs/~$plan.txt"}, result.LockFiles)
	assert.Empty(t, result.Failures)
}

func TestScan_MemberFailureDoesNotAbort(t *testing.T) {
	archive := writeArchive(t,
		testutil.Entry{Name: "broken.docx", Data: []byte("this is not a zip")},
		testutil.Entry{Name: "good.txt", Data: []byte("temporary account")},
	)
	tempDir := t.TempDir()

	result, err := New(Config{TempDir: tempDir}, nil).Scan(context.Background(), archive, temporaryAccounts(t))
	require.NoError(t, err)

	require.Len(t, result.Documents, 1)
	assert.Equal(t, "good.txt", result.Documents[0].Name)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "broken.docx", result.Failures[0].Member)
	assert.NotEmpty(t, result.Failures[0].Message)
	assertScratchRemoved(t, tempDir)
}

func TestScan_CorruptPDFDoesNotAbort(t *testing.T) {
	damaged := testutil.BuildPDF(t, "temporary account review")
	damaged[len("%PDF-1.4\n")] = '0'
	archive := writeArchive(t,
		testutil.Entry{Name: "bad.pdf", Data: damaged},
		testutil.Entry{Name: "good.txt", Data: []byte("temporary account")},
	)
	tempDir := t.TempDir()

	var (
		result *Result
		err    error
	)
	require.NotPanics(t, func() {
		result, err = New(Config{TempDir: tempDir, Workers: 2}, nil).
			Scan(context.Background(), archive, temporaryAccounts(t))
	})
	require.NoError(t, err)

	require.Len(t, result.Documents, 1)
	assert.Equal(t, "good.txt", result.Documents[0].Name)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "bad.pdf", result.Failures[0].Member)
	assertScratchRemoved(t, tempDir)
}

func TestScan_RefusesPathTraversal(t *testing.T) {
	archive := writeArchive(t,
		testutil.Entry{Name: "../escape.txt", Data: []byte("temporary account")},
	)
	tempDir := filepath.Join(t.TempDir(), "scratch")
	require.NoError(t, os.Mkdir(tempDir, 0o700))

	result, err := New(Config{TempDir: tempDir}, nil).Scan(context.Background(), archive, temporaryAccounts(t))
	require.NoError(t, err)

	assert.Empty(t, result.Documents)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0].Message, "illegal member path")
	_, statErr := os.Stat(filepath.Join(filepath.Dir(tempDir), "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestScan_OversizedMember(t *testing.T) {
	archive := writeArchive(t,
		testutil.Entry{Name: "big.txt", Data: []byte("temporary account plus a lot of padding")},
	)

	result, err := New(Config{TempDir: t.TempDir(), MaxMemberBytes: 8}, nil).
		Scan(context.Background(), archive, temporaryAccounts(t))
	require.NoError(t, err)

	assert.Empty(t, result.Documents)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0].Message, "size limit")
}

func TestScan_UnopenableArchive(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "evidence.zip", []byte("not an archive"))

	_, err := New(Config{}, nil).Scan(context.Background(), path, temporaryAccounts(t))
	require.Error(t, err)

	var openErr *ArchiveOpenError
	require.True(t, errors.As(err, &openErr))
	assert.Equal(t, path, openErr.Path)
}

func TestScan_EmptyArchive(t *testing.T) {
	archive := writeArchive(t)

	result, err := New(Config{TempDir: t.TempDir()}, nil).Scan(context.Background(), archive, temporaryAccounts(t))
	require.NoError(t, err)
	assert.Empty(t, result.Documents)
	assert.Empty(t, result.Qualifying())
}

func TestScan_DeterministicWithWorkers(t *testing.T) {
	var entries []testutil.Entry
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt", "f.txt"} {
		entries = append(entries, testutil.Entry{Name: name, Data: []byte("User matrix with temporary account")})
	}
	archive := writeArchive(t, entries...)
	control := temporaryAccounts(t)

	sequential, err := New(Config{TempDir: t.TempDir()}, nil).Scan(context.Background(), archive, control)
	require.NoError(t, err)
	parallel, err := New(Config{TempDir: t.TempDir(), Workers: 4}, nil).Scan(context.Background(), archive, control)
	require.NoError(t, err)

	assert.Equal(t, sequential.Documents, parallel.Documents)
	require.Len(t, parallel.Documents, 6)
	assert.Equal(t, "a.txt", parallel.Documents[0].Name)
	assert.Equal(t, "f.txt", parallel.Documents[5].Name)
}

func TestScan_CancelledContext(t *testing.T) {
	archive := writeArchive(t,
		testutil.Entry{Name: "plan.txt", Data: []byte("temporary account")},
	)
	tempDir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{TempDir: tempDir}, nil).Scan(ctx, archive, temporaryAccounts(t))
	assert.ErrorIs(t, err, context.Canceled)
	assertScratchRemoved(t, tempDir)
}

func TestResult_DocumentLookup(t *testing.T) {
	archive := writeArchive(t,
		testutil.Entry{Name: "plan.txt", Data: []byte("temporary account")},
		testutil.Entry{Name: "topic.txt", Data: []byte("account management")},
	)

	result, err := New(Config{TempDir: t.TempDir()}, nil).Scan(context.Background(), archive, temporaryAccounts(t))
	require.NoError(t, err)

	_, ok := result.Document("plan.txt")
	assert.True(t, ok)
	_, ok = result.Document("topic.txt")
	assert.False(t, ok, "topic-only documents are not selectable")
	_, ok = result.Document("missing.txt")
	assert.False(t, ok)
}
