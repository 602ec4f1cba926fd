package restore

import (
	"fmt"

	json "github.com/goccy/go-json"

	"workos-go/internal/model"
)

// BackupDocument is the normalized form of a parsed backup document,
// whatever shape it arrived in. For FormatMetadata only Summary is
// populated; the record slices are empty.
type BackupDocument struct {
	Format      string
	Tasks       []model.Task
	Events      []model.Event
	Documents   []model.Document
	Attachments []model.AttachmentRef
	Summary     model.RecordCounts
	Warnings    []string
}

// Counts returns the record counts of the parsed document. For a
// metadata-only document this is the embedded summary.
func (d *BackupDocument) Counts() model.RecordCounts {
	if d.Format == FormatMetadata {
		return d.Summary
	}
	return model.RecordCounts{
		Tasks:       len(d.Tasks),
		Events:      len(d.Events),
		Documents:   len(d.Documents),
		Attachments: len(d.Attachments),
	}
}

// documentShape is the superset of keys used to classify a document.
// Record collections are decoded lazily so one malformed element can be
// skipped without failing the whole parse.
type documentShape struct {
	Data        *recordsShape   `json:"data"`
	Summary     *summaryShape   `json:"summary"`
	Tasks       json.RawMessage `json:"tasks"`
	Events      json.RawMessage `json:"events"`
	Documents   json.RawMessage `json:"documents"`
	Attachments json.RawMessage `json:"attachments"`
}

type recordsShape struct {
	Tasks       []json.RawMessage `json:"tasks"`
	Events      []json.RawMessage `json:"events"`
	Documents   []json.RawMessage `json:"documents"`
	Attachments []json.RawMessage `json:"attachments"`
}

type summaryShape struct {
	Tasks       int `json:"tasks"`
	Events      int `json:"events"`
	Documents   int `json:"documents"`
	Attachments int `json:"attachments"`
}

// ParseBackupDocument parses and classifies a backup document. The shapes
// are tried in a fixed priority order: metadata-only first, then legacy
// (records at the top level, no events collection), then current (records
// nested under "data"). The second return value is the fatal-error list;
// it is non-empty exactly when the document is nil.
func ParseBackupDocument(data []byte) (*BackupDocument, []string) {
	var shape documentShape
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, []string{fmt.Sprintf("backup document is not valid JSON: %v", err)}
	}

	if doc, ok := parseMetadataOnly(&shape); ok {
		return doc, nil
	}
	if doc, ok := parseLegacy(&shape); ok {
		return doc, nil
	}
	if doc, ok := parseCurrent(&shape); ok {
		return doc, nil
	}
	return nil, []string{"unrecognized backup document format"}
}

// parseMetadataOnly matches a document that carries only a count summary:
// either an explicit "summary" object, or numeric top-level tasks/documents
// fields. Such documents never carry events or attachment content.
func parseMetadataOnly(shape *documentShape) (*BackupDocument, bool) {
	if shape.Data != nil || len(shape.Events) > 0 || len(shape.Attachments) > 0 {
		return nil, false
	}

	if shape.Summary != nil {
		return &BackupDocument{
			Format: FormatMetadata,
			Summary: model.RecordCounts{
				Tasks:       shape.Summary.Tasks,
				Events:      shape.Summary.Events,
				Documents:   shape.Summary.Documents,
				Attachments: shape.Summary.Attachments,
			},
		}, true
	}

	if len(shape.Tasks) == 0 {
		return nil, false
	}
	var taskCount, docCount int
	if err := json.Unmarshal(shape.Tasks, &taskCount); err != nil {
		return nil, false
	}
	if len(shape.Documents) > 0 {
		if err := json.Unmarshal(shape.Documents, &docCount); err != nil {
			return nil, false
		}
	}
	return &BackupDocument{
		Format:  FormatMetadata,
		Summary: model.RecordCounts{Tasks: taskCount, Documents: docCount},
	}, true
}

// parseLegacy matches the older structured shape: record collections at the
// top level and no events collection. Events restore as empty.
func parseLegacy(shape *documentShape) (*BackupDocument, bool) {
	if shape.Data != nil || len(shape.Events) > 0 {
		return nil, false
	}
	if len(shape.Tasks) == 0 {
		return nil, false
	}
	var tasks []json.RawMessage
	if err := json.Unmarshal(shape.Tasks, &tasks); err != nil {
		return nil, false
	}
	records := recordsShape{Tasks: tasks}
	if len(shape.Documents) > 0 {
		if err := json.Unmarshal(shape.Documents, &records.Documents); err != nil {
			return nil, false
		}
	}
	if len(shape.Attachments) > 0 {
		if err := json.Unmarshal(shape.Attachments, &records.Attachments); err != nil {
			return nil, false
		}
	}
	return normalizeRecords(FormatLegacy, &records), true
}

// parseCurrent matches the current shape: collections nested under "data",
// events included.
func parseCurrent(shape *documentShape) (*BackupDocument, bool) {
	if shape.Data == nil {
		return nil, false
	}
	return normalizeRecords(FormatCurrent, shape.Data), true
}

// normalizeRecords decodes each raw record individually. A record that
// fails to decode or lacks its required fields is skipped with a warning;
// it never fails the document.
func normalizeRecords(format string, records *recordsShape) *BackupDocument {
	doc := &BackupDocument{Format: format}

	for i, raw := range records.Tasks {
		var t model.Task
		if err := json.Unmarshal(raw, &t); err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("skipped malformed task at index %d: %v", i, err))
			continue
		}
		if t.ID == "" || t.Title == "" {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("skipped task at index %d: missing id or title", i))
			continue
		}
		doc.Tasks = append(doc.Tasks, t)
	}

	for i, raw := range records.Events {
		var e model.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("skipped malformed event at index %d: %v", i, err))
			continue
		}
		if e.ID == "" || e.Title == "" || e.StartTime == "" {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("skipped event at index %d: missing id, title or start_time", i))
			continue
		}
		doc.Events = append(doc.Events, e)
	}

	for i, raw := range records.Documents {
		var d model.Document
		if err := json.Unmarshal(raw, &d); err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("skipped malformed document at index %d: %v", i, err))
			continue
		}
		if d.ID == "" {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("skipped document at index %d: missing id", i))
			continue
		}
		doc.Documents = append(doc.Documents, d)
	}

	for i, raw := range records.Attachments {
		var a model.AttachmentRef
		if err := json.Unmarshal(raw, &a); err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("skipped malformed attachment ref at index %d: %v", i, err))
			continue
		}
		if a.ID == "" {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("skipped attachment ref at index %d: missing id", i))
			continue
		}
		doc.Attachments = append(doc.Attachments, a)
	}

	return doc
}
