package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrRunNotFound         = errors.New("run not found")
	ErrRunNotCancelable    = errors.New("run is not in a cancelable state")
	ErrCitationNotFound    = errors.New("citation not found")
	ErrSourceNotFound      = errors.New("source not found")
	ErrEmptyRun            = errors.New("run must contain at least one citation")
	ErrEmptyQuote          = errors.New("citation quote is empty")
	ErrPassageNotFound     = errors.New("no passage matching the citation was found")
	ErrInvalidCategory     = errors.New("invalid citation category; allowed: primary, secondary")
	ErrSourceUnreachable   = errors.New("source could not be fetched")
	ErrUnsupportedContent  = errors.New("source is not a PDF document")
	ErrCorruptedDocument   = errors.New("document bytes are corrupted or not parseable")
	ErrEncryptedDocument   = errors.New("document is encrypted or protected")
	ErrNoExtractableText   = errors.New("document has no extractable text")
	ErrArtifactUnavailable = errors.New("annotated artifact is not available for this source")
)
