// Package intent turns free-form chat messages into structured commands
// using the generative language API.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pimtong/fieldworks-backend/pkg/enums"
	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
	"github.com/pimtong/fieldworks-backend/pkg/metrics"
)

type textGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Result is one classified message.
type Result struct {
	Kind   enums.IntentKind
	Params map[string]string
}

// Param returns the named parameter or empty string.
func (r *Result) Param(key string) string {
	if r == nil || r.Params == nil {
		return ""
	}
	return r.Params[key]
}

// Resolver classifies chat messages into intents.
type Resolver struct {
	gen     textGenerator
	metrics *metrics.AssistantMetrics
	now     func() time.Time
}

// NewResolver builds an intent resolver. Metrics may be nil.
func NewResolver(gen textGenerator, m *metrics.AssistantMetrics) (*Resolver, error) {
	if gen == nil {
		return nil, fmt.Errorf("text generator required")
	}
	return &Resolver{gen: gen, metrics: m, now: time.Now}, nil
}

// Resolve classifies the message. Model output that cannot be parsed falls
// back to the small-talk intent rather than failing the conversation;
// transport failures are returned with their code intact so callers can
// answer quota exhaustion differently.
func (r *Resolver) Resolve(ctx context.Context, message string, role enums.UserRole) (*Result, error) {
	started := r.now()

	raw, err := r.gen.GenerateText(ctx, buildPrompt(message, role, started))
	if err != nil {
		outcome := metrics.IntentOutcomeFailed
		if pkgerrors.IsCode(err, pkgerrors.CodeRateLimit) {
			outcome = metrics.IntentOutcomeRateLimited
		}
		r.metrics.ObserveResolution(outcome, time.Since(started))
		return nil, err
	}

	result, ok := parseResult(raw)
	if !ok {
		r.metrics.ObserveResolution(metrics.IntentOutcomeMalformed, time.Since(started))
		return &Result{Kind: enums.IntentOtherChat}, nil
	}

	r.metrics.ObserveResolution(metrics.IntentOutcomeResolved, time.Since(started))
	return result, nil
}

// parseResult decodes the model's JSON reply. Both "params" and
// "parameters" are accepted, and scalar values are coerced to strings.
func parseResult(raw string) (*Result, bool) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, false
	}

	var payload struct {
		Intent     string         `json:"intent"`
		Params     map[string]any `json:"params"`
		Parameters map[string]any `json:"parameters"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, false
	}
	if strings.TrimSpace(payload.Intent) == "" {
		return nil, false
	}

	source := payload.Params
	if len(source) == 0 {
		source = payload.Parameters
	}

	params := make(map[string]string, len(source))
	for key, value := range source {
		switch v := value.(type) {
		case string:
			params[key] = v
		case float64:
			if v == float64(int64(v)) {
				params[key] = fmt.Sprintf("%d", int64(v))
			} else {
				params[key] = fmt.Sprintf("%g", v)
			}
		case bool:
			params[key] = fmt.Sprintf("%t", v)
		}
	}

	return &Result{
		Kind:   enums.ParseIntentKind(payload.Intent),
		Params: params,
	}, true
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func buildPrompt(message string, role enums.UserRole, today time.Time) string {
	var sb strings.Builder
	sb.WriteString("You classify messages sent to a field service work-order assistant.\n")
	sb.WriteString("Reply with a single JSON object, no prose, shaped as:\n")
	sb.WriteString(`{"intent": "<intent>", "params": {...}}` + "\n\n")
	sb.WriteString("Intents:\n")
	sb.WriteString("- query_jobs: list jobs. params: date (today|tomorrow|yesterday|YYYY-MM-DD), period (week|next_week|last_week), status (active|completed), customer_name (partial customer name), technician_name (partial technician name), keyword (free text matched against title/description/product)\n")
	sb.WriteString("- get_job_details: one job. params: job_id (number)\n")
	sb.WriteString("- update_job: change a job's status. params: job_id (number), status (in_progress|completed|cancelled), note (optional)\n")
	sb.WriteString("- query_projects: list active projects. params: name (optional partial project or customer name)\n")
	sb.WriteString("- profile_password: user wants to change their password. no params\n")
	sb.WriteString("- other_chat: anything else. params: reply (a short friendly answer in the sender's language)\n\n")
	fmt.Fprintf(&sb, "Today is %s. The sender's role is %s.\n", today.Format("2006-01-02"), role)
	fmt.Fprintf(&sb, "Message: %q\n", message)
	return sb.String()
}
