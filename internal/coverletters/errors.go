package coverletters

import (
	"errors"
	"fmt"
)

// Kind classifies a failed generation.
type Kind string

const (
	KindInputMissing        Kind = "input_missing"
	KindUnsupportedFileType Kind = "unsupported_file_type"
	KindUnreadableDocument  Kind = "unreadable_document"
	KindRemoteAuthFailure   Kind = "remote_auth_failure"
	KindRemoteCallFailure   Kind = "remote_call_failure"
	KindMalformedReply      Kind = "malformed_remote_reply"
	KindPersistenceFailure  Kind = "persistence_failure"
	KindPermissionDenied    Kind = "permission_denied"
)

// Error is returned by Service.Generate. State is where the run stopped.
type Error struct {
	Kind  Kind
	State State
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cover letter %s during %s", e.Kind, e.State)
	}
	return fmt.Sprintf("cover letter %s during %s: %v", e.Kind, e.State, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

var (
	errNoResume        = errors.New("upload a resume or select a saved one")
	errEmptyLetter     = errors.New("model returned an empty letter")
	errUnsupportedFile = errors.New("only .pdf and .docx files are accepted")
)
