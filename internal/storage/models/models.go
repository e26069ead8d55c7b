package models

import (
	"time"
)

type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserInactive  UserStatus = "inactive"
	UserSuspended UserStatus = "suspended"
)

type UserPlan string

const (
	PlanFree       UserPlan = "free"
	PlanPro        UserPlan = "pro"
	PlanEnterprise UserPlan = "enterprise"
)

type User struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name"`
	Email        string         `json:"email" gorm:"uniqueIndex"`
	PasswordHash string         `json:"-"`
	Status       UserStatus     `json:"status" gorm:"index"`
	Plan         UserPlan       `json:"plan"`
	Settings     map[string]any `json:"settings" gorm:"serializer:json"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type AgentStatus string

const (
	AgentActive   AgentStatus = "active"
	AgentArchived AgentStatus = "archived"
)

type Agent struct {
	ID           string      `json:"id" gorm:"primaryKey"`
	UserID       string      `json:"user_id" gorm:"index"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Model        string      `json:"model"`
	SystemPrompt string      `json:"system_prompt"`
	Temperature  float32     `json:"temperature"`
	Status       AgentStatus `json:"status"`
	Tags         []string    `json:"tags" gorm:"serializer:json"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type FlowStatus string

const (
	FlowDraft    FlowStatus = "draft"
	FlowActive   FlowStatus = "active"
	FlowPaused   FlowStatus = "paused"
	FlowArchived FlowStatus = "archived"
)

// Steps and Triggers are opaque client-defined JSON. The server stores
// and echoes them without interpreting individual entries.
type Flow struct {
	ID          string           `json:"id" gorm:"primaryKey"`
	UserID      string           `json:"user_id" gorm:"index"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Status      FlowStatus       `json:"status"`
	Steps       []map[string]any `json:"steps" gorm:"serializer:json"`
	Triggers    []map[string]any `json:"triggers" gorm:"serializer:json"`
	Tags        []string         `json:"tags" gorm:"serializer:json"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type FlowExecution struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	FlowID      string         `json:"flow_id" gorm:"index"`
	UserID      string         `json:"user_id" gorm:"index"`
	Status      string         `json:"status"`
	TriggerData map[string]any `json:"trigger_data" gorm:"serializer:json"`
	Result      map[string]any `json:"result" gorm:"serializer:json"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
}

type SessionStatus string

const (
	SessionActive   SessionStatus = "active"
	SessionArchived SessionStatus = "archived"
)

type ChatSession struct {
	ID        string        `json:"id" gorm:"primaryKey"`
	UserID    string        `json:"user_id" gorm:"index"`
	AgentID   string        `json:"agent_id,omitempty"`
	Title     string        `json:"title"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type ChatMessage struct {
	ID         string      `json:"id" gorm:"primaryKey"`
	SessionID  string      `json:"session_id" gorm:"index"`
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	TokensUsed int         `json:"tokens_used"`
	CreatedAt  time.Time   `json:"created_at"`
}

type FileStatus string

const (
	FileUploaded   FileStatus = "uploaded"
	FileProcessing FileStatus = "processing"
	FileProcessed  FileStatus = "processed"
	FileFailed     FileStatus = "failed"
)

type File struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	UserID       string     `json:"user_id" gorm:"index"`
	Name         string     `json:"name"`
	OriginalName string     `json:"original_name"`
	Size         int64      `json:"size"`
	ContentType  string     `json:"content_type"`
	Status       FileStatus `json:"status"`
	Tags         []string   `json:"tags" gorm:"serializer:json"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type ProcessingKind string

const (
	ProcessingOCR           ProcessingKind = "ocr"
	ProcessingTranscription ProcessingKind = "transcription"
	ProcessingDocAnalysis   ProcessingKind = "document_analysis"
)

type FileProcessingRecord struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	FileID    string         `json:"file_id" gorm:"index"`
	Kind      ProcessingKind `json:"kind"`
	Status    string         `json:"status"`
	Result    map[string]any `json:"result" gorm:"serializer:json"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (FileProcessingRecord) TableName() string {
	return "file_processing"
}

// OrionCall records one request to the Orion gateway for a file.
type OrionCall struct {
	ID         string         `json:"id" gorm:"primaryKey"`
	FileID     string         `json:"file_id" gorm:"index"`
	Operation  string         `json:"operation"`
	StatusCode int            `json:"status_code"`
	Response   map[string]any `json:"response" gorm:"serializer:json"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (OrionCall) TableName() string {
	return "orion_service"
}

type DataLakeObject struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	FileID    string    `json:"file_id" gorm:"index"`
	Bucket    string    `json:"bucket"`
	ObjectKey string    `json:"object_key"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type ExtractionStatus string

const (
	ExtractionCompleted ExtractionStatus = "completed"
	ExtractionFailed    ExtractionStatus = "failed"
)

// MetadataFields is the structured output schema requested from the LLM.
type MetadataFields struct {
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	DocumentType string   `json:"document_type"`
	Date         string   `json:"date"`
	Summary      string   `json:"summary"`
	Keywords     []string `json:"keywords"`
	Language     string   `json:"language"`
}

type MetadataExtraction struct {
	ID        string           `json:"id" gorm:"primaryKey"`
	UserID    string           `json:"user_id" gorm:"index"`
	FileID    string           `json:"file_id,omitempty"`
	Source    string           `json:"source"`
	Model     string           `json:"model"`
	Status    ExtractionStatus `json:"status"`
	Fields    MetadataFields   `json:"fields" gorm:"serializer:json"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func All() []any {
	return []any{
		&User{},
		&Agent{},
		&Flow{},
		&FlowExecution{},
		&ChatSession{},
		&ChatMessage{},
		&File{},
		&FileProcessingRecord{},
		&OrionCall{},
		&DataLakeObject{},
		&MetadataExtraction{},
	}
}
