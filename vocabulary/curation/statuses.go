package curation

// Status is one value from the fixed curation-state vocabulary.
type Status string

const (
	// StatusUncurated indicates a term that only has an identifier and a
	// display label, nothing else.
	StatusUncurated Status = "uncurated"

	// StatusMetadataIncomplete indicates at least one failed mandatory
	// requirement.
	StatusMetadataIncomplete Status = "metadata-incomplete"

	// StatusMetadataComplete indicates no mandatory failures but at least one
	// failed recommendation.
	StatusMetadataComplete Status = "metadata-complete"

	// StatusPendingFinalVetting indicates no recorded failures of any kind.
	StatusPendingFinalVetting Status = "pending-final-vetting"

	// StatusRequiresDiscussion is reserved; no classifier derives it yet.
	StatusRequiresDiscussion Status = "requires-discussion"

	// StatusReadyForRelease is reserved; no classifier derives it yet.
	StatusReadyForRelease Status = "ready-for-release"
)

// statusLabels maps each status to its display label.
var statusLabels = map[Status]string{
	StatusUncurated:           "Uncurated",
	StatusMetadataIncomplete:  "Metadata Incomplete",
	StatusMetadataComplete:    "Metadata Complete",
	StatusPendingFinalVetting: "Pending Final Vetting",
	StatusRequiresDiscussion:  "Requires Discussion",
	StatusReadyForRelease:     "Ready for Release",
}

// Label returns the display label for the status, or the raw identifier for
// values outside the vocabulary.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether the status is a member of the vocabulary, reserved
// members included.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Statuses returns the vocabulary in its fixed order.
func Statuses() []Status {
	return []Status{
		StatusUncurated,
		StatusMetadataIncomplete,
		StatusMetadataComplete,
		StatusPendingFinalVetting,
		StatusRequiresDiscussion,
		StatusReadyForRelease,
	}
}

// Classification is an entity-level flag attached to a result record by the
// query normalizer. Aggregators branch on this flag instead of string-matching
// query identifiers.
type Classification string

const (
	// ClassificationNone marks a record that carries no entity flag.
	ClassificationNone Classification = ""

	// ClassificationUncurated marks the entity as "only identifier and label".
	ClassificationUncurated Classification = "uncurated"
)

// ClassifierQueryID is the legacy reserved query identifier whose matches mean
// "this entity only has an identifier and a display label". The normalizer
// maps records from this query onto ClassificationUncurated so nothing
// downstream depends on the identifier itself.
const ClassifierQueryID = "only-identifier-and-label"
