package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerificationRun represents one batch of citations submitted for verification.
type VerificationRun struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Status      RunStatus  `db:"status" json:"status"`
	Label       string     `db:"label" json:"label"`
	Total       int        `db:"total" json:"total"`
	Annotated   int        `db:"annotated" json:"annotated"`
	Unresolved  int        `db:"unresolved" json:"unresolved"`
	Failed      int        `db:"failed" json:"failed"`
	StartedAt   *time.Time `db:"started_at" json:"started_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// CitationRecord is one quoted passage plus the locator of its claimed source.
// It is immutable after ingest; only State advances as the pipeline runs.
type CitationRecord struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	RunID         uuid.UUID        `db:"run_id" json:"run_id"`
	Ordinal       int              `db:"ordinal" json:"ordinal"`
	Quote         string           `db:"quote" json:"quote"`
	SourceLocator string           `db:"source_locator" json:"source_locator"`
	PageHint      *int             `db:"page_hint" json:"page_hint"`
	Category      CitationCategory `db:"category" json:"category"`
	State         CitationState    `db:"state" json:"state"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// SourceRecord persists the artifact references for one acquired source.
type SourceRecord struct {
	Identity     string    `db:"identity" json:"identity"`
	ResolvedURL  string    `db:"resolved_url" json:"resolved_url"`
	ContentHash  string    `db:"content_hash" json:"content_hash"`
	PageCount    int       `db:"page_count" json:"page_count"`
	OriginalKey  string    `db:"original_key" json:"original_key"`
	AnnotatedKey string    `db:"annotated_key" json:"annotated_key"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ResolvedSpan is a located passage in a source's normalized text.
type ResolvedSpan struct {
	Start     int              `json:"start"`
	End       int              `json:"end"`
	Pages     []int            `json:"pages"`
	Method    ResolutionMethod `json:"method"`
	Ambiguous bool             `json:"ambiguous"`
}

// Covers reports whether the span is non-empty.
func (s ResolvedSpan) Covers() bool {
	return s.End > s.Start
}

// HighlightStyle is the visual style applied to an annotation.
type HighlightStyle struct {
	R       float64 `json:"r"`
	G       float64 `json:"g"`
	B       float64 `json:"b"`
	Opacity float64 `json:"opacity"`
}

// AnnotationRecord ties a resolved span to its style and target artifact.
type AnnotationRecord struct {
	CitationID uuid.UUID      `json:"citation_id"`
	Identity   string         `json:"identity"`
	Span       ResolvedSpan   `json:"span"`
	Style      HighlightStyle `json:"style"`
}

// ProcessingOutcome is the terminal per-citation result of a run.
type ProcessingOutcome struct {
	CitationID     uuid.UUID        `db:"citation_id" json:"citation_id"`
	RunID          uuid.UUID        `db:"run_id" json:"run_id"`
	Status         OutcomeStatus    `db:"status" json:"status"`
	Method         ResolutionMethod `db:"method" json:"method"`
	Ambiguous      bool             `db:"ambiguous" json:"ambiguous"`
	Category       CitationCategory `db:"category" json:"category"`
	FailureKind    FailureKind      `db:"failure_kind" json:"failure_kind"`
	FailureDetail  string           `db:"failure_detail" json:"failure_detail"`
	SourceIdentity string           `db:"source_identity" json:"source_identity"`
	ArtifactKey    string           `db:"artifact_key" json:"artifact_key"`
	SpanStart      int              `db:"span_start" json:"span_start"`
	SpanEnd        int              `db:"span_end" json:"span_end"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// RunReport aggregates outcome counts for a completed (or canceled) run.
type RunReport struct {
	RunID          uuid.UUID                `json:"run_id"`
	Status         RunStatus                `json:"status"`
	Total          int                      `json:"total"`
	ByStatus       map[OutcomeStatus]int    `json:"by_status"`
	ByFailureKind  map[FailureKind]int      `json:"by_failure_kind"`
	ByMethod       map[ResolutionMethod]int `json:"by_method"`
	AmbiguousCount int                      `json:"ambiguous_count"`
}
