package constants

// Field names the extraction engines may emit. Absence of a key in a result
// means "not found", never an error.
const (
	FieldProjectOrApplicant     = "project_or_applicant"
	FieldMW                     = "mw"
	FieldAcres                  = "acres"
	FieldLocation               = "location"
	FieldOutcomePhrase          = "outcome_phrase"
	FieldVoteLine               = "vote_line"
	FieldAyes                   = "ayes"
	FieldNays                   = "nays"
	FieldDecisionFactorSnippets = "decision_factor_snippets"
)

// FieldNames lists the fixed vocabulary in the order output columns prefer.
var FieldNames = []string{
	FieldProjectOrApplicant,
	FieldMW,
	FieldAcres,
	FieldLocation,
	FieldOutcomePhrase,
	FieldVoteLine,
	FieldAyes,
	FieldNays,
	FieldDecisionFactorSnippets,
}

// MaxDecisionFactorSnippets caps decision_factor_snippets regardless of how
// many sentences qualify.
const MaxDecisionFactorSnippets = 3

// MaxSnippetLength bounds the text_snippet field in the audit log.
const MaxSnippetLength = 1000
