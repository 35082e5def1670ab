package types

// GeneratedProjectDetails is the normalized shape pulled out of free-form
// model output when drafting a project brief from a document. Optional
// fields stay nil when the model omitted them or they failed normalization.
type GeneratedProjectDetails struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Address         *string  `json:"address,omitempty"`
	StartDate       *string  `json:"start_date,omitempty"`
	EndDate         *string  `json:"end_date,omitempty"`
	BudgetEstimate  *float64 `json:"budget_estimate,omitempty"`
	BudgetCurrency  string   `json:"budget_currency"`
	Assumptions     []string `json:"assumptions,omitempty"`
	Confidence      *float64 `json:"confidence,omitempty"`
	AdditionalNotes *string  `json:"additional_notes,omitempty"`
}

// GeneratedScheduleTask is one model-proposed schedule row. Date pairs where
// end precedes start are both nulled during normalization.
type GeneratedScheduleTask struct {
	TaskName  string  `json:"task_name"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
	Status    string  `json:"status"`
}

type IngestionSummary struct {
	Filename        string `json:"filename"`
	ChunkCount      int    `json:"chunk_count"`
	PageCount       int    `json:"page_count"`
	FileSize        int64  `json:"file_size"`
	UploadTimestamp string `json:"upload_timestamp"`
}

type ChunkResult struct {
	Content    string        `json:"content"`
	Metadata   ChunkMetadata `json:"metadata"`
	Similarity float64       `json:"similarity"`
}

type ChatReply struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

// DocumentGroup summarizes one ingestion group (filename + upload timestamp).
type DocumentGroup struct {
	Filename        string `json:"filename"`
	UploadTimestamp string `json:"upload_timestamp"`
	FileSize        int64  `json:"file_size"`
	PageCount       int    `json:"page_count"`
	ChunkCount      int    `json:"chunk_count"`
}
