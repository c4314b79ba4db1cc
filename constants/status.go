package constants

// AcquisitionStatus is the canonical acquisition state for rows in documents.
type AcquisitionStatus string

// Stable values (store these exact strings in the ledger).
const (
	AcquisitionPending  AcquisitionStatus = "pending"  // created, text not yet acquired
	AcquisitionComplete AcquisitionStatus = "complete" // text acquired (native or OCR)
	AcquisitionError    AcquisitionStatus = "error"    // download/parse/OCR failure
)

// AnalysisStatus is the canonical analysis state for rows in documents.
// The zero value means "not yet analyzed" and is stored as SQL NULL.
type AnalysisStatus string

const (
	AnalysisNone       AnalysisStatus = ""           // never analyzed (NULL in the ledger)
	AnalysisIrrelevant AnalysisStatus = "irrelevant" // router declined the document
	AnalysisComplete   AnalysisStatus = "complete"   // structured result persisted
	AnalysisError      AnalysisStatus = "error"      // extraction failed; retried on rerun
)

// acquisitionTransitions is the closed set of allowed acquisition moves.
// Re-acquiring an existing id is an upsert, so complete->complete and
// error->complete are legal.
var acquisitionTransitions = map[AcquisitionStatus][]AcquisitionStatus{
	AcquisitionPending:  {AcquisitionComplete, AcquisitionError},
	AcquisitionComplete: {AcquisitionComplete, AcquisitionError},
	AcquisitionError:    {AcquisitionComplete, AcquisitionError},
}

// analysisTransitions is the closed set of allowed analysis moves.
// complete is terminal: a completed record is never re-analyzed.
var analysisTransitions = map[AnalysisStatus][]AnalysisStatus{
	AnalysisNone:       {AnalysisIrrelevant, AnalysisComplete, AnalysisError},
	AnalysisIrrelevant: {AnalysisIrrelevant, AnalysisComplete, AnalysisError},
	AnalysisError:      {AnalysisIrrelevant, AnalysisComplete, AnalysisError},
	AnalysisComplete:   {},
}

// CanTransitionAcquisition reports whether from -> to is a legal acquisition move.
func CanTransitionAcquisition(from, to AcquisitionStatus) bool {
	for _, next := range acquisitionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionAnalysis reports whether from -> to is a legal analysis move.
func CanTransitionAnalysis(from, to AnalysisStatus) bool {
	for _, next := range analysisTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidAcquisitionStatus reports whether s is a storable acquisition value.
func ValidAcquisitionStatus(s AcquisitionStatus) bool {
	switch s {
	case AcquisitionPending, AcquisitionComplete, AcquisitionError:
		return true
	}
	return false
}

// ValidAnalysisStatus reports whether s is a storable analysis value.
func ValidAnalysisStatus(s AnalysisStatus) bool {
	switch s {
	case AnalysisNone, AnalysisIrrelevant, AnalysisComplete, AnalysisError:
		return true
	}
	return false
}
