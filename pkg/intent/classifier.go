// Package intent classifies caller utterances in two stages: an LLM
// structured-output pass, with a deterministic keyword pass as the
// fallback when the model is unreachable or returns garbage. The
// fallback is a first-class result, not an error path.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dentaldesk/voicedesk/pkg/llm"
)

// Source records which stage produced a classification.
type Source string

const (
	SourceLLM     Source = "llm"
	SourceKeyword Source = "keyword"
)

// FallbackConfidence is assigned to keyword classifications so the
// transfer policy treats them as usable but not authoritative.
const FallbackConfidence = 0.75

type Classification struct {
	Intent            string
	Confidence        float64
	Entities          map[string]string
	Reasoning         string
	Source            Source
	SuggestedResponse string
	RequiresHuman     bool
}

// llmResult mirrors the JSON shape the model is asked to produce.
type llmResult struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Entities   []struct {
		Type       string  `json:"type"`
		Value      string  `json:"value"`
		Confidence float64 `json:"confidence"`
	} `json:"entities"`
	Reasoning string `json:"reasoning"`
}

type Classifier struct {
	adapter llm.Adapter
	logger  *slog.Logger
}

func NewClassifier(adapter llm.Adapter, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{adapter: adapter, logger: logger}
}

// Classify never returns an error: any LLM failure degrades to the
// keyword stage so the call keeps moving.
func (c *Classifier) Classify(ctx context.Context, message string, callContext map[string]any) Classification {
	if c.adapter != nil {
		if result, err := c.classifyLLM(ctx, message, callContext); err == nil {
			return result
		} else {
			c.logger.Warn("intent classification degraded to keywords", "error", err)
		}
	}
	return c.classifyKeywords(message)
}

func (c *Classifier) classifyLLM(ctx context.Context, message string, callContext map[string]any) (Classification, error) {
	contextStr := ""
	if len(callContext) > 0 {
		if b, err := json.MarshalIndent(callContext, "", "  "); err == nil {
			contextStr = "\n\nPrevious context:\n" + string(b)
		}
	}
	prompt := fmt.Sprintf(`You are analyzing a patient message to a dental practice.

Available intents:
%s
Classify the following patient message into ONE of the above intents,
or "general_inquiry" if none apply.
Extract any relevant entities like dates, times, procedure types, insurance providers.

Patient message: %q%s

Respond with a single JSON object with keys "intent", "confidence" (0-1),
"entities" (array of {"type","value","confidence"}), and "reasoning".`,
		describeIntents(), message, contextStr)

	resp, err := c.adapter.Generate(ctx, llm.Context{
		Messages: []map[string]any{
			{"role": "system", "content": "You are a dental practice AI assistant that classifies patient intents. Respond with JSON only."},
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return Classification{}, err
	}

	var parsed llmResult
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &parsed); err != nil {
		return Classification{}, fmt.Errorf("decode classification: %w", err)
	}
	if !knownIntent(parsed.Intent) {
		return Classification{}, fmt.Errorf("unknown intent label %q", parsed.Intent)
	}
	entities := make(map[string]string, len(parsed.Entities))
	for _, e := range parsed.Entities {
		if e.Type != "" && e.Value != "" {
			entities[e.Type] = e.Value
		}
	}
	return Classification{
		Intent:            parsed.Intent,
		Confidence:        clamp(parsed.Confidence),
		Entities:          entities,
		Reasoning:         parsed.Reasoning,
		Source:            SourceLLM,
		SuggestedResponse: SuggestedResponse(parsed.Intent),
		RequiresHuman:     RequiresHuman(parsed.Intent),
	}, nil
}

func (c *Classifier) classifyKeywords(message string) Classification {
	label := keywordIntent(message)
	return Classification{
		Intent:            label,
		Confidence:        FallbackConfidence,
		Entities:          keywordEntities(message),
		Reasoning:         "keyword classification",
		Source:            SourceKeyword,
		SuggestedResponse: SuggestedResponse(label),
		RequiresHuman:     RequiresHuman(label),
	}
}

// keywordIntent checks families in fixed priority order; emergency
// keywords always win.
func keywordIntent(message string) string {
	lower := strings.ToLower(message)
	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
	switch {
	case contains("emergency", "pain", "broken", "urgent"):
		return Emergency
	case contains("cancel"):
		return CancelAppointment
	case contains("reschedule", "change", "move"):
		return RescheduleAppointment
	case contains("schedule", "appointment", "book"):
		return ScheduleAppointment
	case contains("insurance", "coverage", "accept"):
		return CheckInsurance
	case contains("bill", "payment", "owe", "cost"):
		return BillingInquiry
	case contains("human", "person", "someone", "transfer"):
		return SpeakToHuman
	default:
		return GeneralInquiry
	}
}

func keywordEntities(message string) map[string]string {
	lower := strings.ToLower(message)
	entities := map[string]string{}

	switch {
	case strings.Contains(lower, "next week"):
		entities["date_reference"] = "next_week"
	case strings.Contains(lower, "tomorrow"):
		entities["date_reference"] = "tomorrow"
	case strings.Contains(lower, "today"):
		entities["date_reference"] = "today"
	}

	switch {
	case strings.Contains(lower, "cleaning"), strings.Contains(lower, "prophy"):
		entities["procedure_type"] = "cleaning"
	case strings.Contains(lower, "filling"):
		entities["procedure_type"] = "filling"
	case strings.Contains(lower, "root canal"):
		entities["procedure_type"] = "root_canal"
	case strings.Contains(lower, "crown"):
		entities["procedure_type"] = "crown"
	}

	switch {
	case strings.Contains(lower, "morning"):
		entities["time_preference"] = "morning"
	case strings.Contains(lower, "afternoon"):
		entities["time_preference"] = "afternoon"
	case strings.Contains(lower, "evening"):
		entities["time_preference"] = "evening"
	}

	return entities
}

// extractJSON trims markdown fences the model sometimes adds around the
// JSON body.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
	}
	return strings.TrimSpace(text)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
