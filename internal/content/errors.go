package content

import (
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Kind classifies load-pass failures for reporting.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindUnreadable           Kind = "unreadable"
	KindMalformedFrontMatter Kind = "malformed_front_matter"
	KindValidation           Kind = "validation"
	KindDateFormat           Kind = "date_format"
	KindDuplicateSlug        Kind = "duplicate_slug"
	KindUnknown              Kind = "unknown"
)

const (
	codeNotFound      = "CONTENT_DIR_NOT_FOUND"
	codeUnreadable    = "CONTENT_FILE_UNREADABLE"
	codeMalformed     = "FRONT_MATTER_MALFORMED"
	codeValidation    = "FRONT_MATTER_INVALID"
	codeDateFormat    = "PUB_DATE_INVALID"
	codeDuplicateSlug = "SLUG_DUPLICATE"
	codeUnknown       = "CONTENT_ERROR"
)

// NotFoundError is returned when the content root cannot be used. It is the
// only fatal error of a load pass.
type NotFoundError struct {
	Dir string
	Err error
}

func (e *NotFoundError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("content directory %s not found", e.Dir)
	}
	return fmt.Sprintf("content directory %s not found: %v", e.Dir, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// UnreadableFileError reports a file (or sub-directory) that could not be read
// or is not valid UTF-8.
type UnreadableFileError struct {
	Path string
	Err  error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("%s: unreadable: %v", e.Path, e.Err)
}

func (e *UnreadableFileError) Unwrap() error { return e.Err }

// MalformedFrontMatterError reports a missing opening or closing marker, or a
// metadata block that does not decode.
type MalformedFrontMatterError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedFrontMatterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: malformed front matter: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: malformed front matter: %s", e.Path, e.Reason)
}

func (e *MalformedFrontMatterError) Unwrap() error { return e.Err }

// ValidationError names the required fields that were missing or blank.
type ValidationError struct {
	Path   string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required field(s): %s", e.Path, strings.Join(e.Fields, ", "))
}

// Field returns the first missing field.
func (e *ValidationError) Field() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0]
}

// DateFormatError reports a pubDate value that matches none of the accepted layouts.
type DateFormatError struct {
	Path  string
	Value string
	Err   error
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("%s: pubDate %q is not a recognised date (want e.g. %q)", e.Path, e.Value, "Jul 08 2022")
}

func (e *DateFormatError) Unwrap() error { return e.Err }

// DuplicateSlugError reports a post skipped because an earlier file already
// claimed its slug.
type DuplicateSlugError struct {
	Path      string
	Slug      string
	FirstPath string
}

func (e *DuplicateSlugError) Error() string {
	return fmt.Sprintf("%s: slug %q already used by %s", e.Path, e.Slug, e.FirstPath)
}

// KindOf maps an error produced by this package to its Kind.
func KindOf(err error) Kind {
	var (
		notFound   *NotFoundError
		unreadable *UnreadableFileError
		malformed  *MalformedFrontMatterError
		invalid    *ValidationError
		badDate    *DateFormatError
		duplicate  *DuplicateSlugError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &unreadable):
		return KindUnreadable
	case errors.As(err, &malformed):
		return KindMalformedFrontMatter
	case errors.As(err, &invalid):
		return KindValidation
	case errors.As(err, &badDate):
		return KindDateFormat
	case errors.As(err, &duplicate):
		return KindDuplicateSlug
	default:
		return KindUnknown
	}
}

// Code returns the text code reported for a Kind.
func (k Kind) Code() string {
	switch k {
	case KindNotFound:
		return codeNotFound
	case KindUnreadable:
		return codeUnreadable
	case KindMalformedFrontMatter:
		return codeMalformed
	case KindValidation:
		return codeValidation
	case KindDateFormat:
		return codeDateFormat
	case KindDuplicateSlug:
		return codeDuplicateSlug
	default:
		return codeUnknown
	}
}

// Category returns the go-errors category name a Kind is reported under.
func (k Kind) Category() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindMalformedFrontMatter:
		return "bad_input"
	case KindValidation, KindDateFormat, KindDuplicateSlug:
		return "validation"
	default:
		return "internal"
	}
}

// Categorize wraps err with a go-errors category and text code. Errors that
// are already wrapped are returned untouched.
func Categorize(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}

	kind := KindOf(err)
	switch kind {
	case KindNotFound:
		return goerrors.Wrap(err, goerrors.CategoryNotFound, "content directory not found").
			WithTextCode(kind.Code())
	case KindUnreadable:
		return goerrors.Wrap(err, goerrors.CategoryInternal, "content file unreadable").
			WithTextCode(kind.Code())
	case KindMalformedFrontMatter:
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "front matter malformed").
			WithTextCode(kind.Code())
	case KindValidation, KindDateFormat, KindDuplicateSlug:
		return goerrors.Wrap(err, goerrors.CategoryValidation, "post rejected").
			WithTextCode(kind.Code())
	default:
		return goerrors.Wrap(err, goerrors.CategoryInternal, "content error").
			WithTextCode(kind.Code())
	}
}

// IsFatal reports whether err aborts a load pass.
func IsFatal(err error) bool {
	return KindOf(err) == KindNotFound
}

// PathOf returns the file or directory an error refers to, or "".
func PathOf(err error) string {
	var (
		notFound   *NotFoundError
		unreadable *UnreadableFileError
		malformed  *MalformedFrontMatterError
		invalid    *ValidationError
		badDate    *DateFormatError
		duplicate  *DuplicateSlugError
	)
	switch {
	case errors.As(err, &notFound):
		return notFound.Dir
	case errors.As(err, &unreadable):
		return unreadable.Path
	case errors.As(err, &malformed):
		return malformed.Path
	case errors.As(err, &invalid):
		return invalid.Path
	case errors.As(err, &badDate):
		return badDate.Path
	case errors.As(err, &duplicate):
		return duplicate.Path
	default:
		return ""
	}
}

// FieldsOf returns the front-matter fields an error refers to.
func FieldsOf(err error) []string {
	var (
		invalid   *ValidationError
		badDate   *DateFormatError
		duplicate *DuplicateSlugError
	)
	switch {
	case errors.As(err, &invalid):
		return append([]string(nil), invalid.Fields...)
	case errors.As(err, &badDate):
		return []string{"pubDate"}
	case errors.As(err, &duplicate):
		return []string{"slug"}
	default:
		return nil
	}
}
