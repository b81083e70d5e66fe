// Package export serializes evaluation results for downstream consumption:
// CSV tables of result records and entity reports, and a structured JSON
// rendering of the whole-document report.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jonathanvajda/ontology-curation-manager/evaluate"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatCSV produces comma-separated tables (.csv).
	FormatCSV Format = "csv"

	// FormatJSON produces an indented JSON document (.json).
	FormatJSON Format = "json"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatCSV: {
		Name:        FormatCSV,
		MIMEType:    "text/csv",
		Extension:   ".csv",
		Description: "CSV - comma-separated record and report tables",
	},
	FormatJSON: {
		Name:        FormatJSON,
		MIMEType:    "application/json",
		Extension:   ".json",
		Description: "JSON - structured evaluation report",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	f := Format(name)
	if _, ok := FormatRegistry[f]; !ok {
		return "", fmt.Errorf("unsupported format: %s", name)
	}
	return f, nil
}

// WriteResult serializes a full run result in the requested format. CSV
// output is the record table; JSON output is the complete result including
// entity and document reports.
func WriteResult(w io.Writer, result *evaluate.RunResult, format Format) error {
	switch format {
	case FormatCSV:
		return WriteRecords(w, result.DocumentID, result.Records)
	case FormatJSON:
		return writeJSON(w, result)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// recordHeader is the fixed column order of the record table.
var recordHeader = []string{"documentId", "entity", "queryId", "requirementId", "status", "severity", "scope"}

// WriteRecords writes the result records as a CSV table, one row per record,
// in record order.
func WriteRecords(w io.Writer, documentID string, records []evaluate.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return fmt.Errorf("writing record header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			documentID,
			rec.Entity,
			rec.QueryID,
			rec.RequirementID,
			string(rec.Status),
			rec.Severity,
			string(rec.Scope),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing record row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// entityHeader is the fixed column order of the entity report table.
var entityHeader = []string{"entity", "status", "statusLabel", "failedRequirements", "failedRecommendations"}

// WriteEntities writes per-entity reports as a CSV table. The failed id
// lists are joined with ';' inside their cells.
func WriteEntities(w io.Writer, reports []evaluate.EntityReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(entityHeader); err != nil {
		return fmt.Errorf("writing entity header: %w", err)
	}
	for _, rep := range reports {
		row := []string{
			rep.Entity,
			string(rep.Status),
			rep.StatusLabel,
			joinIDs(rep.FailedRequirements),
			joinIDs(rep.FailedRecommendations),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing entity row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// requirementHeader is the fixed column order of the document report table.
var requirementHeader = []string{"documentId", "requirementId", "type", "weight", "status", "failedEntityCount"}

// WriteDocument writes the document report's requirement entries as a CSV
// table, one row per declared requirement.
func WriteDocument(w io.Writer, report evaluate.DocumentReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(requirementHeader); err != nil {
		return fmt.Errorf("writing requirement header: %w", err)
	}
	for _, req := range report.Requirements {
		row := []string{
			report.DocumentID,
			req.ID,
			string(req.Type),
			strconv.FormatFloat(req.Weight, 'g', -1, 64),
			string(req.Status),
			strconv.Itoa(req.FailedEntityCount),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing requirement row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ";")
}
