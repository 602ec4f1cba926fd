package model

// Task is a work item in a workspace. ID and Title are required; everything
// else is optional and preserved as-is through backup and restore.
type Task struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Workspace    string `json:"workspace,omitempty"`
	Status       string `json:"status,omitempty"`
	Notes        string `json:"notes,omitempty"`
	DueDate      string `json:"due_date,omitempty"`
	ScheduledFor string `json:"scheduled_for,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// Event is a calendar entry. ID, Title and StartTime are required.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	AllDay      bool   `json:"all_day,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Description string `json:"description,omitempty"`
}

// Document is a free-text document stored outside the record database,
// one file per document in the document store.
type Document struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"content_md"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// AttachmentRef is the metadata row for a binary attachment owned by a task.
// The binary itself lives in the attachment directory at StoragePath. A ref
// whose file is missing after a restore dangles; that is tolerated.
type AttachmentRef struct {
	ID          string `json:"id"`
	TaskID      string `json:"task_id"`
	FileName    string `json:"file_name"`
	MimeType    string `json:"mime_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	StoragePath string `json:"storage_path"`
}

// RecordCounts holds per-collection row counts, used both for validation
// summaries and for the post-restore consistency check.
type RecordCounts struct {
	Tasks       int `json:"tasks"`
	Events      int `json:"events"`
	Documents   int `json:"documents"`
	Attachments int `json:"attachments"`
}
