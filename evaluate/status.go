package evaluate

import "github.com/jonathanvajda/ontology-curation-manager/vocabulary/curation"

// deriveStatus is the priority-ordered decision function shared by both
// aggregators. First match wins:
//
//  1. uncurated flag set
//  2. any mandatory failure
//  3. any advisory failure
//  4. no findings at all
//
// Reserved statuses have no case here yet; future classifiers add cases to
// this function rather than inventing a second decision path.
func deriveStatus(uncurated bool, mandatoryFailures, advisoryFailures int) curation.Status {
	switch {
	case uncurated:
		return curation.StatusUncurated
	case mandatoryFailures > 0:
		return curation.StatusMetadataIncomplete
	case advisoryFailures > 0:
		return curation.StatusMetadataComplete
	default:
		return curation.StatusPendingFinalVetting
	}
}
