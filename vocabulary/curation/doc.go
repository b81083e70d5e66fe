// Package curation provides the fixed curation-state vocabulary shared by the
// evaluation pipeline and its exports.
//
// The vocabulary covers two closed sets:
//   - Status: the ordered curation statuses assigned to ontology terms and to
//     whole documents. Every status has a stable external identifier and a
//     display label. Reserved statuses are valid members with no producer yet;
//     future classifiers plug into the same priority-ordered derivation.
//   - Classification: entity-level flags a normalized result record can carry.
//     Aggregators branch on the flag, never on query identifiers.
//
// The package also defines the namespace IRIs used when discovering the
// document subject and when exporting reports.
package curation
