// Package store persists call records, transcripts, and tool audit
// entries. Transcript content is PII-scrubbed before it is written;
// spoken text is never scrubbed on the way to the caller, only on the
// way to storage.
package store

import (
	"context"
	"time"
)

// Call record status values.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Post-analysis outcome values.
const (
	OutcomeCompleted        = "completed"
	OutcomeFollowUpRequired = "follow_up_required"
)

// CallDetails carries the provider-reported facts about a call.
// Timestamps are epoch milliseconds as delivered on the wire; zero
// means not reported.
type CallDetails struct {
	FromNumber       string
	Direction        string
	StartTimestampMS int64
	EndTimestampMS   int64
	DurationMS       int64
	DisconnectReason string
}

// Analysis is the post-call analysis payload.
type Analysis struct {
	Summary    string
	Sentiment  string
	Successful bool
}

// Utterance is one transcript line as received from the transport.
type Utterance struct {
	Role    string
	Content string
}

// CallRecord is the persisted view of one call.
type CallRecord struct {
	ID               string
	TenantID         string
	ProviderCallID   string
	PhoneNumber      string
	Direction        string
	StartTime        time.Time
	EndTime          time.Time
	DurationSecs     int
	Status           string
	DisconnectReason string
	Summary          string
	Sentiment        string
	Outcome          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TranscriptEntry is one stored transcript line.
type TranscriptEntry struct {
	Sequence int
	Role     string
	Content  string
	At       time.Time
}

// ToolInvocation is one audited tool call.
type ToolInvocation struct {
	ID           string
	ToolName     string
	Arguments    map[string]any
	Result       map[string]any
	Success      bool
	ErrorMessage string
	InvokedAt    time.Time
}

// Store records calls for audit and follow-up. EnsureCallRecord is
// idempotent per (tenant, provider call id) and returns the record id.
// StoreTranscript appends entries starting at startSequence and returns
// the next sequence, so repeated snapshots of a growing transcript
// never duplicate lines.
type Store interface {
	EnsureCallRecord(ctx context.Context, tenantID, providerCallID string, details CallDetails) (string, error)
	StoreTranscript(ctx context.Context, recordID string, transcript []Utterance, startSequence int) (int, error)
	LogToolCall(ctx context.Context, recordID, toolName string, args, result map[string]any, success bool, errMessage string) error
	FinalizeCall(ctx context.Context, tenantID, providerCallID string, details CallDetails) error
	RecordAnalysis(ctx context.Context, tenantID, providerCallID string, analysis Analysis) error
}
