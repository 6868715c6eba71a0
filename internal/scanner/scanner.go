// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"cyber-survey/internal/catalog"
	"cyber-survey/internal/extract"
	"cyber-survey/internal/match"
	"cyber-survey/internal/observability"
)

// LockFilePrefix marks the transient owner files Office writes next to an
// open document. They are never scanned.
const LockFilePrefix = "~$"

// DefaultMaxMemberBytes caps the uncompressed size of a single member
const DefaultMaxMemberBytes = 100 << 20

// Config holds scanner settings
type Config struct {
	// Workers bounds how many members are extracted at once; values below 1
	// mean sequential processing.
	Workers int
	// MaxMemberBytes rejects members whose uncompressed size is larger.
	MaxMemberBytes int64
	// TempDir is the parent of per-scan scratch directories; empty means
	// the system temp directory.
	TempDir string
}

// Document is the evidence found in one archive member
type Document struct {
	// Path is the member's path inside the archive
	Path string `json:"path" yaml:"path"`
	// Name is the member's base name, used as the artifact reference
	Name    string       `json:"name" yaml:"name"`
	Matches match.Result `json:"matches" yaml:"matches"`
}

// Qualifies reports whether the document can be selected as an artifact
func (d Document) Qualifies() bool {
	return d.Matches.Qualifies()
}

// Result is the outcome of scanning one archive for one control
type Result struct {
	Control        string          `json:"control" yaml:"control"`
	Prompt         string          `json:"prompt" yaml:"prompt"`
	AnalystInput   string          `json:"analyst_input,omitempty" yaml:"analyst_input,omitempty"`
	ReferenceCodes []string        `json:"reference_codes" yaml:"reference_codes"`
	Documents      []Document      `json:"documents" yaml:"documents"`
	Failures       []MemberFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Warnings       []MemberFailure `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	LockFiles      []string        `json:"lock_files,omitempty" yaml:"lock_files,omitempty"`
}

// Qualifying returns the documents that carry detail-keyword evidence
func (r *Result) Qualifying() []Document {
	var documents []Document
	for _, document := range r.Documents {
		if document.Qualifies() {
			documents = append(documents, document)
		}
	}
	return documents
}

// Document looks up a qualifying document by its base name
func (r *Result) Document(name string) (Document, bool) {
	for _, document := range r.Documents {
		if document.Name == name && document.Qualifies() {
			return document, true
		}
	}
	return Document{}, false
}

// Scanner unpacks document archives and searches their members
type Scanner struct {
	config   Config
	observer *observability.StandardObserver
}

// New creates a scanner; a nil observer disables logging
func New(config Config, observer *observability.StandardObserver) *Scanner {
	if config.MaxMemberBytes <= 0 {
		config.MaxMemberBytes = DefaultMaxMemberBytes
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if observer == nil {
		observer = observability.Nop()
	}
	return &Scanner{config: config, observer: observer}
}

// memberOutcome is what processing one member produced
type memberOutcome struct {
	document *Document
	failure  *MemberFailure
	warnings []MemberFailure
}

// Scan unpacks the archive at archivePath into a scratch directory, searches
// every supported member for the control's keywords, and removes the scratch
// directory before returning. Documents are reported in archive order.
func (s *Scanner) Scan(ctx context.Context, archivePath string, control catalog.Control) (*Result, error) {
	finishTiming := s.observer.StartTiming("scanner", "scan_archive", archivePath)
	finishStep := s.observer.StartStep("scanner", "scan "+control.Name, archivePath)

	result, err := s.scan(ctx, archivePath, control)
	if err != nil {
		finishStep(false, err.Error())
		finishTiming(false, map[string]interface{}{"error": err, "control": control.Name})
		return nil, err
	}
	finishStep(true, fmt.Sprintf("%d documents, %d qualifying", len(result.Documents), len(result.Qualifying())))

	finishTiming(true, map[string]interface{}{
		"control":     control.Name,
		"match_count": len(result.Documents),
		"failures":    len(result.Failures),
		"lock_files":  len(result.LockFiles),
	})
	return result, nil
}

func (s *Scanner) scan(ctx context.Context, archivePath string, control catalog.Control) (*Result, error) {
	reader, err := zip.OpenReader(archivePath)
	// Insecure member names are refused one by one in unpackMember
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && reader != nil) {
		return nil, &ArchiveOpenError{Path: archivePath, Cause: err}
	}
	defer reader.Close()

	result := &Result{
		Control:        control.Name,
		Prompt:         control.Prompt,
		AnalystInput:   control.AnalystInput,
		ReferenceCodes: []string(control.ReferenceCodes),
		Documents:      []Document{},
	}

	members, lockFiles, duplicates := selectMembers(reader.File)
	s.observer.LogMetric("scanner", "supported_members", len(members))
	result.LockFiles = lockFiles
	for _, name := range lockFiles {
		s.observer.LogDetail("scanner", fmt.Sprintf("Skipping lock file %s", name))
	}
	for _, name := range duplicates {
		result.Failures = append(result.Failures, newMemberFailure(name, fmt.Errorf("duplicate member name in archive")))
	}

	scratch, err := os.MkdirTemp(s.config.TempDir, "cyber-survey-scan-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	outcomes := make([]memberOutcome, len(members))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.config.Workers)

	for i, member := range members {
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			outcomes[i] = s.processMember(scratch, member, control)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, outcome := range outcomes {
		if outcome.failure != nil {
			result.Failures = append(result.Failures, *outcome.failure)
		}
		result.Warnings = append(result.Warnings, outcome.warnings...)
		if outcome.document != nil {
			result.Documents = append(result.Documents, *outcome.document)
		}
	}

	return result, nil
}

// selectMembers keeps supported, non-lock-file members in archive order.
// Repeated member names are kept once and reported separately.
func selectMembers(files []*zip.File) (members []*zip.File, lockFiles, duplicates []string) {
	seen := make(map[string]bool)
	for _, file := range files {
		if file.FileInfo().IsDir() || !extract.Supported(file.Name) {
			continue
		}
		if strings.HasPrefix(memberBase(file.Name), LockFilePrefix) {
			lockFiles = append(lockFiles, file.Name)
			continue
		}
		if seen[file.Name] {
			duplicates = append(duplicates, file.Name)
			continue
		}
		seen[file.Name] = true
		members = append(members, file)
	}
	return members, lockFiles, duplicates
}

// memberBase returns the base name of an archive member. Archives written
// on Windows sometimes use backslashes as separators.
func memberBase(name string) string {
	return path.Base(strings.ReplaceAll(name, `\`, "/"))
}

// processMember unpacks, extracts and matches one member. It runs on a
// worker goroutine, so a panic from a document decoder is recorded as that
// member's failure instead of taking the process down.
func (s *Scanner) processMember(scratch string, member *zip.File, control catalog.Control) (outcome memberOutcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			failure := newMemberFailure(member.Name, fmt.Errorf("document could not be processed: %v", recovered))
			outcome = memberOutcome{failure: &failure}
			s.observer.LogDetail("scanner", fmt.Sprintf("Recovered while processing %s: %v", member.Name, recovered))
		}
	}()

	localPath, err := s.unpackMember(scratch, member)
	if err != nil {
		failure := newMemberFailure(member.Name, err)
		outcome.failure = &failure
		s.observer.LogDetail("scanner", fmt.Sprintf("Skipping %s: %v", member.Name, err))
		return outcome
	}

	info, err := os.Lstat(localPath)
	if err != nil || !info.Mode().IsRegular() {
		return outcome
	}

	finishTiming := s.observer.StartTiming("extract", "extract_member", member.Name)
	matches, skipped, err := extract.Extract(localPath, control.TopicTerms, control.DetailTerms)
	for _, unitErr := range skipped {
		outcome.warnings = append(outcome.warnings, newMemberFailure(member.Name, unitErr))
	}
	if err != nil {
		finishTiming(false, map[string]interface{}{"error": err})
		failure := newMemberFailure(member.Name, err)
		outcome.failure = &failure
		s.observer.LogDetail("scanner", fmt.Sprintf("Extraction failed for %s: %v", member.Name, err))
		return outcome
	}
	finishTiming(true, map[string]interface{}{
		"match_count":   len(matches.Topic) + len(matches.Detail),
		"skipped_units": len(skipped),
	})

	if matches.Empty() {
		return outcome
	}
	outcome.document = &Document{
		Path:    member.Name,
		Name:    memberBase(member.Name),
		Matches: matches,
	}
	return outcome
}

// unpackMember writes one member below scratch and returns its local path.
// Members whose path would land outside scratch are refused.
func (s *Scanner) unpackMember(scratch string, member *zip.File) (string, error) {
	if member.UncompressedSize64 > uint64(s.config.MaxMemberBytes) {
		return "", fmt.Errorf("member exceeds size limit of %d bytes", s.config.MaxMemberBytes)
	}

	relative := filepath.FromSlash(strings.ReplaceAll(member.Name, `\`, "/"))
	localPath := filepath.Join(scratch, relative)
	if !strings.HasPrefix(localPath, filepath.Clean(scratch)+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal member path %q", member.Name)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o700); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	src, err := member.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open member: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(localPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	// The header size can lie, so the copy itself is bounded as well
	written, copyErr := io.Copy(dst, io.LimitReader(src, s.config.MaxMemberBytes+1))
	closeErr := dst.Close()
	if copyErr != nil {
		return "", fmt.Errorf("failed to unpack member: %w", copyErr)
	}
	if closeErr != nil {
		return "", fmt.Errorf("failed to write member: %w", closeErr)
	}
	if written > s.config.MaxMemberBytes {
		return "", fmt.Errorf("member exceeds size limit of %d bytes", s.config.MaxMemberBytes)
	}

	return localPath, nil
}
