package domain

// CitationCategory distinguishes primary citations from secondary notes.
type CitationCategory string

const (
	CategoryPrimary   CitationCategory = "primary"
	CategorySecondary CitationCategory = "secondary"
)

// ValidCategories enumerates the accepted citation categories.
var ValidCategories = map[CitationCategory]bool{
	CategoryPrimary:   true,
	CategorySecondary: true,
}

// ResolutionMethod records how a span was located.
type ResolutionMethod string

const (
	MethodExact  ResolutionMethod = "exact"
	MethodOracle ResolutionMethod = "oracle"
	MethodNone   ResolutionMethod = ""
)

// OutcomeStatus is the terminal status of a processed citation.
type OutcomeStatus string

const (
	OutcomeAnnotated  OutcomeStatus = "annotated"
	OutcomeUnresolved OutcomeStatus = "unresolved"
	OutcomeFailed     OutcomeStatus = "failed"
)

// FailureKind classifies why a citation did not reach Annotated.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureAcquisition FailureKind = "acquisition"
	FailureExtraction  FailureKind = "extraction"
	FailureOracle      FailureKind = "oracle"
	FailureAnnotation  FailureKind = "annotation"
)

// CitationState is the pipeline state machine for a single citation.
type CitationState string

const (
	StatePending        CitationState = "pending"
	StateAcquiring      CitationState = "acquiring"
	StateLocated        CitationState = "located"
	StateOracleFallback CitationState = "oracle_fallback"
	StateAnnotated      CitationState = "annotated"
	StateUnresolved     CitationState = "unresolved"
	StateFailed         CitationState = "failed"
)

// RunStatus is the lifecycle of a verification run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCanceled  RunStatus = "canceled"
)
