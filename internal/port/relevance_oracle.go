package port

import "context"

// OracleInput is one request to the relevance oracle: a citation quote and
// the bounded document excerpt it should search.
type OracleInput struct {
	CitationText string
	Excerpt      string
}

// OracleOutput is the oracle's answer. Found=false means the oracle saw no
// relevant passage; Snippet is only meaningful when Found is true.
type OracleOutput struct {
	Snippet   string
	Found     bool
	ModelUsed string
}

// RelevanceOracle abstracts the external semantic capability consulted when
// exact matching fails. Implementations report transient faults as errors
// (see oracle.OracleFailure); "no relevant passage" is a non-error answer.
type RelevanceOracle interface {
	FindPassage(ctx context.Context, input OracleInput) (*OracleOutput, error)
}
