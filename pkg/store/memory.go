package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dentaldesk/voicedesk/pkg/redact"
)

// MemoryStore is the in-process Store. It backs tests and single-node
// deployments; a SQL-backed implementation satisfies the same
// interface.
type MemoryStore struct {
	mu          sync.Mutex
	records     map[string]*CallRecord // keyed tenantID + "/" + providerCallID
	byID        map[string]*CallRecord
	transcripts map[string][]TranscriptEntry
	toolCalls   map[string][]ToolInvocation

	now   func() time.Time
	newID func() string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:     make(map[string]*CallRecord),
		byID:        make(map[string]*CallRecord),
		transcripts: make(map[string][]TranscriptEntry),
		toolCalls:   make(map[string][]ToolInvocation),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

func recordKey(tenantID, providerCallID string) string {
	return tenantID + "/" + providerCallID
}

func (s *MemoryStore) EnsureCallRecord(ctx context.Context, tenantID, providerCallID string, details CallDetails) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(tenantID, providerCallID)
	if rec, ok := s.records[key]; ok {
		return rec.ID, nil
	}

	start := s.now()
	if details.StartTimestampMS > 0 {
		start = time.UnixMilli(details.StartTimestampMS)
	}
	direction := details.Direction
	if direction == "" {
		direction = "inbound"
	}
	rec := &CallRecord{
		ID:             s.newID(),
		TenantID:       tenantID,
		ProviderCallID: providerCallID,
		PhoneNumber:    details.FromNumber,
		Direction:      direction,
		StartTime:      start,
		Status:         StatusInProgress,
		CreatedAt:      s.now(),
		UpdatedAt:      s.now(),
	}
	s.records[key] = rec
	s.byID[rec.ID] = rec
	return rec.ID, nil
}

func (s *MemoryStore) StoreTranscript(ctx context.Context, recordID string, transcript []Utterance, startSequence int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sequence := startSequence
	if sequence > len(transcript) {
		return sequence, nil
	}
	for _, u := range transcript[startSequence:] {
		if u.Content == "" {
			sequence++
			continue
		}
		s.transcripts[recordID] = append(s.transcripts[recordID], TranscriptEntry{
			Sequence: sequence,
			Role:     u.Role,
			Content:  redact.Scrub(u.Content),
			At:       s.now(),
		})
		sequence++
	}
	return sequence, nil
}

func (s *MemoryStore) LogToolCall(ctx context.Context, recordID, toolName string, args, result map[string]any, success bool, errMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.toolCalls[recordID] = append(s.toolCalls[recordID], ToolInvocation{
		ID:           s.newID(),
		ToolName:     toolName,
		Arguments:    args,
		Result:       result,
		Success:      success,
		ErrorMessage: errMessage,
		InvokedAt:    s.now(),
	})
	return nil
}

func (s *MemoryStore) FinalizeCall(ctx context.Context, tenantID, providerCallID string, details CallDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordKey(tenantID, providerCallID)]
	if !ok {
		return nil
	}
	end := s.now()
	if details.EndTimestampMS > 0 {
		end = time.UnixMilli(details.EndTimestampMS)
	}
	rec.EndTime = end
	if details.DurationMS > 0 {
		rec.DurationSecs = int(details.DurationMS / 1000)
	}
	rec.Status = StatusCompleted
	rec.DisconnectReason = details.DisconnectReason
	rec.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) RecordAnalysis(ctx context.Context, tenantID, providerCallID string, analysis Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordKey(tenantID, providerCallID)]
	if !ok {
		return nil
	}
	rec.Summary = analysis.Summary
	rec.Sentiment = analysis.Sentiment
	if analysis.Successful {
		rec.Outcome = OutcomeCompleted
	} else {
		rec.Outcome = OutcomeFollowUpRequired
	}
	rec.UpdatedAt = s.now()
	return nil
}

// Record returns the stored record for inspection.
func (s *MemoryStore) Record(tenantID, providerCallID string) (CallRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordKey(tenantID, providerCallID)]
	if !ok {
		return CallRecord{}, false
	}
	return *rec, true
}

// Transcript returns the stored transcript for a record id.
func (s *MemoryStore) Transcript(recordID string) []TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TranscriptEntry, len(s.transcripts[recordID]))
	copy(out, s.transcripts[recordID])
	return out
}

// ToolCalls returns the audited tool invocations for a record id.
func (s *MemoryStore) ToolCalls(recordID string) []ToolInvocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ToolInvocation, len(s.toolCalls[recordID]))
	copy(out, s.toolCalls[recordID])
	return out
}
