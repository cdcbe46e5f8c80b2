package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

var (
	// ErrSelectionCancelled is returned by a CandidateSelectionCallback to abort
	// the session.
	ErrSelectionCancelled = errors.New("resolver: candidate selection cancelled")

	// ErrNoIndex is returned when Input has no CapabilityIndex.
	ErrNoIndex = errors.New("resolver: no capability index")
)

type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Fatal marks an index error as unrecoverable: the session fails with it as
// the cause.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// Transient marks an index error as recoverable. Unmarked errors are treated
// the same way.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

func IsFatal(err error) bool {
	var f *fatalError
	return errors.As(err, &f)
}

func IsTransient(err error) bool {
	return err != nil && !IsFatal(err)
}

// ProviderError is an index failure for one requirement.
type ProviderError struct {
	Requirement *resource.Requirement
	Err         error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("resolver: provider query for %s: %v", e.Requirement, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ChainLink says that Requirement of Resource was needed.
type ChainLink struct {
	Requirement *resource.Requirement
	Resource    *resource.Resource
}

// ResolutionError describes a failed resolution.
type ResolutionError struct {
	// Unresolved holds the mandatory requirement that had no viable candidate
	// on the last path the search explored. Dead ends of abandoned branches
	// are in Diagnostics.NoProviders.
	Unresolved []*resource.Requirement
	// Chain explains why Unresolved[0] was needed. It starts at that
	// requirement and ends at a root requirement.
	Chain []ChainLink
	// Cause is the fatal provider error that ended the session, if any.
	Cause error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("resolver: unable to resolve")
	if len(e.Chain) > 0 {
		for i, l := range e.Chain {
			if i == 0 {
				fmt.Fprintf(&b, ": missing %s", l.Requirement)
			} else {
				fmt.Fprintf(&b, ", needed for %s", l.Requirement)
			}
			if l.Resource != nil && !l.Resource.IsInitial() {
				fmt.Fprintf(&b, " of %s", l.Resource)
			}
		}
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error { return e.Cause }
