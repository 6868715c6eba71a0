// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"fmt"
)

// ArchiveOpenError means the uploaded archive could not be opened or read.
// It aborts the whole scan.
type ArchiveOpenError struct {
	Path  string
	Cause error
}

// Error implements the error interface
func (e *ArchiveOpenError) Error() string {
	return fmt.Sprintf("cannot open archive %s: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying error
func (e *ArchiveOpenError) Unwrap() error {
	return e.Cause
}

// MemberFailure records an archive member that could not be scanned. The
// rest of the archive is still processed.
type MemberFailure struct {
	Member string `json:"member" yaml:"member"`
	Err    error  `json:"-" yaml:"-"`
	// Message mirrors Err for serialized output
	Message string `json:"error" yaml:"error"`
}

func newMemberFailure(member string, err error) MemberFailure {
	return MemberFailure{Member: member, Err: err, Message: err.Error()}
}
