package domain

import (
	"errors"
	"fmt"
)

// Operation names a remote call.
type Operation string

const (
	OpUpload   Operation = "upload_document"
	OpPipeline Operation = "process"
)

var (
	// ErrUpload classifies failures of document extraction.
	ErrUpload = errors.New("upload failed")
	// ErrPipeline classifies failures of a pipeline run.
	ErrPipeline = errors.New("pipeline failed")
)

// RemoteError is a failed remote call: either the request never completed
// (Err set, Status 0) or the service answered with a non-success status.
type RemoteError struct {
	Op     Operation
	Status int
	Detail string
	Err    error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUpload) and errors.Is(err, ErrPipeline) classify
// the failure by operation.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrUpload:
		return e.Op == OpUpload
	case ErrPipeline:
		return e.Op == OpPipeline
	}
	return false
}

// Message is the banner text: the service's detail verbatim when present,
// else a generic fallback for the operation.
func (e *RemoteError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Op == OpUpload {
		return "Error uploading PDF"
	}
	return "Error processing pipeline"
}
