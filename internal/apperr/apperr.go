// Package apperr defines the error taxonomy shared across the odds
// pipeline so callers can classify failures with errors.Is/errors.As
// instead of matching on message text.
package apperr

import "fmt"

// Kind classifies a failure the way the rest of the pipeline needs to
// react to it: abort the process, skip one record, or degrade silently.
type Kind string

const (
	// ConfigInvalid covers missing sport/mode, malformed JSON, or a
	// missing required key. Fatal — the process aborts before any cycle runs.
	ConfigInvalid Kind = "config_invalid"
	// RecordMalformed covers an unparseable date/time or a non-numeric
	// odd. The offending field is skipped; the record stays eligible
	// for other markets.
	RecordMalformed Kind = "record_malformed"
	// TemplateMissing means no URL template exists for a source.
	TemplateMissing Kind = "template_missing"
	// TemplatePlaceholderMissing means a URL template referenced a
	// placeholder the match data didn't supply.
	TemplatePlaceholderMissing Kind = "template_placeholder_missing"
	// CacheUnreadable means a lifecycle/confirmation cache file could
	// not be parsed; callers treat it as empty and continue.
	CacheUnreadable Kind = "cache_unreadable"
	// IOWrite covers a failed write to an output or cache file.
	IOWrite Kind = "io_write"
	// LifecycleAmbiguous means both the fair odd and the target odd
	// changed between cycles, so the disappearance/appearance cannot
	// be attributed to either side.
	LifecycleAmbiguous Kind = "lifecycle_ambiguous"
)

// Error wraps an underlying cause with a Kind so callers can branch on
// classification without parsing messages.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, apperr.ConfigInvalid) work against a bare Kind
// value by comparing classifications rather than identity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Sentinel instances so callers can do errors.Is(err, apperr.ErrConfigInvalid).
var (
	ErrConfigInvalid              = &Error{Kind: ConfigInvalid}
	ErrRecordMalformed            = &Error{Kind: RecordMalformed}
	ErrTemplateMissing            = &Error{Kind: TemplateMissing}
	ErrTemplatePlaceholderMissing = &Error{Kind: TemplatePlaceholderMissing}
	ErrCacheUnreadable            = &Error{Kind: CacheUnreadable}
	ErrIOWrite                    = &Error{Kind: IOWrite}
	ErrLifecycleAmbiguous         = &Error{Kind: LifecycleAmbiguous}
)
