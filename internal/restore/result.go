package restore

import "workos-go/internal/model"

// Input kinds reported on validation and restore results.
const (
	KindDocument = "document"
	KindMetadata = "metadata"
	KindArchive  = "archive"
)

// Backup-document formats, in the order the classifier tries them.
const (
	FormatMetadata = "metadata"
	FormatLegacy   = "legacy"
	FormatCurrent  = "current"
)

// Orchestrator stages, reported on failure so the caller knows how far the
// attempt got. Stages after "transaction" leave committed data behind.
const (
	StageValidate     = "validate"
	StageSafetyBackup = "safety_backup"
	StageTransaction  = "transaction"
	StageAttachments  = "attachments"
	StagePostcheck    = "postcheck"
	StageDocuments    = "documents"
)

// ValidationResult is the read-only result surface for a submitted backup
// file. Every field is always populated; Kind and Format are empty strings
// (never omitted) when classification failed.
type ValidationResult struct {
	OK       bool                `json:"ok"`
	Kind     string              `json:"kind"`
	Format   string              `json:"format"`
	Summary  *model.RecordCounts `json:"summary"`
	Warnings []string            `json:"warnings"`
	Errors   []string            `json:"errors"`
}

// RestoreResult is the result surface for a restore attempt. Stage is empty
// on success and names the failed stage otherwise. Restored counts reflect
// records actually inserted, not records present in the document.
type RestoreResult struct {
	OK       bool                `json:"ok"`
	Mode     string              `json:"mode"`
	Kind     string              `json:"kind"`
	Format   string              `json:"format"`
	Stage    string              `json:"stage"`
	Restored *model.RecordCounts `json:"restored"`
	Warnings []string            `json:"warnings"`
	Errors   []string            `json:"errors"`
}

// newRestoreResult returns a result with the only supported mode and
// non-nil slices so the caller never sees a null in rendered output.
func newRestoreResult() *RestoreResult {
	return &RestoreResult{
		Mode:     "replace",
		Warnings: []string{},
		Errors:   []string{},
	}
}

func newValidationResult() *ValidationResult {
	return &ValidationResult{
		Warnings: []string{},
		Errors:   []string{},
	}
}
