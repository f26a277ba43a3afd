package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoJSON indicates the oracle reply contained no complete JSON value.
	ErrNoJSON = errors.New("no JSON object or array found in response")

	// ErrEmptySummary indicates a summary reply parsed but carried no summary text.
	ErrEmptySummary = errors.New("summary response has empty summary")

	// ErrNoSuggestions indicates a suggestion reply whose entries were all unusable.
	ErrNoSuggestions = errors.New("suggestion response has no usable entries")
)

// SummaryResponse is the structured reply expected from a summarization call.
type SummaryResponse struct {
	Summary      string   `json:"summary"`
	KeyTopics    []string `json:"key_topics"`
	KeyDecisions []string `json:"key_decisions"`
	ActionItems  []string `json:"action_items"`
}

// SuggestionResponse is one suggestion as returned by the oracle. Type and
// priority are free-form here and normalized by the caller.
type SuggestionResponse struct {
	Type          string                 `json:"type"`
	Title         string                 `json:"title"`
	Content       string                 `json:"content"`
	Priority      string                 `json:"priority"`
	TriggerReason string                 `json:"trigger_reason"`
	RelatedEntity *RelatedEntityResponse `json:"related_entity,omitempty"`
	Action        *ActionResponse        `json:"action,omitempty"`
	ExpiresInDays *int                   `json:"expires_in_days,omitempty"`
}

// RelatedEntityResponse is a weak entity reference in a suggestion reply.
type RelatedEntityResponse struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ActionResponse is an action descriptor in a suggestion reply. Models use
// both "parameters" and "params"; either is accepted.
type ActionResponse struct {
	Type       string                 `json:"type"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Params     map[string]interface{} `json:"params,omitempty"`
}

// AllParameters merges Parameters and Params, Parameters winning on conflict.
func (a *ActionResponse) AllParameters() map[string]interface{} {
	if len(a.Params) == 0 {
		return a.Parameters
	}
	merged := make(map[string]interface{}, len(a.Params)+len(a.Parameters))
	for k, v := range a.Params {
		merged[k] = v
	}
	for k, v := range a.Parameters {
		merged[k] = v
	}
	return merged
}

// jsonCandidates returns every well-formed JSON object or array embedded in
// text, in order of their opening bracket. Models often wrap JSON in
// markdown fences or prose that itself contains brackets ("Summary [draft]:");
// a span that is unbalanced or not valid JSON is skipped and the scan
// resumes at the next bracket. Brackets inside strings are ignored.
func jsonCandidates(text string) []string {
	var out []string
	for offset := 0; offset < len(text); {
		i := strings.IndexAny(text[offset:], "{[")
		if i == -1 {
			break
		}
		start := offset + i
		if end, ok := balancedEnd(text, start); ok && json.Valid([]byte(text[start:end])) {
			out = append(out, text[start:end])
		}
		offset = start + 1
	}
	return out
}

// balancedEnd returns the offset just past the bracket that closes the one
// at start, or false when a closer mismatches or the span never closes.
func balancedEnd(text string, start int) (int, bool) {
	var (
		stack    []byte
		inString bool
		escape   bool
	)
	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if inString {
			switch char {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch char {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != char {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// extractJSON returns the first well-formed JSON object or array in text.
func extractJSON(text string) (string, bool) {
	candidates := jsonCandidates(text)
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0], true
}

// ParseSummaryResponse parses the first JSON object in a summarization reply
// that decodes as a summary with non-blank text. A reply without one is an
// error; callers treat every error as "no summary".
func ParseSummaryResponse(text string) (*SummaryResponse, error) {
	candidates := jsonCandidates(text)
	if len(candidates) == 0 {
		return nil, ErrNoJSON
	}

	var lastErr error = ErrNoJSON
	for _, raw := range candidates {
		if !strings.HasPrefix(raw, "{") {
			continue
		}
		var resp SummaryResponse
		if err := json.Unmarshal([]byte(raw), &resp); err != nil {
			lastErr = fmt.Errorf("failed to parse summary JSON: %w", err)
			continue
		}
		resp.Summary = strings.TrimSpace(resp.Summary)
		if resp.Summary == "" {
			lastErr = ErrEmptySummary
			continue
		}

		resp.KeyTopics = cleanList(resp.KeyTopics)
		resp.KeyDecisions = cleanList(resp.KeyDecisions)
		resp.ActionItems = cleanList(resp.ActionItems)
		return &resp, nil
	}
	return nil, lastErr
}

// ParseSuggestionResponse parses the first JSON block of a suggestion reply
// that decodes as suggestions: an array of suggestions, an object with a
// "suggestions" array, or a single suggestion object with a title. Entries
// without a title are dropped. An empty array is a valid, empty result.
func ParseSuggestionResponse(text string) ([]SuggestionResponse, error) {
	candidates := jsonCandidates(text)
	if len(candidates) == 0 {
		return nil, ErrNoJSON
	}

	var lastErr error = ErrNoJSON
	for _, raw := range candidates {
		entries, err := decodeSuggestions(raw)
		if err != nil {
			lastErr = err
			continue
		}
		return filterSuggestions(entries)
	}
	return nil, lastErr
}

func decodeSuggestions(raw string) ([]SuggestionResponse, error) {
	var entries []SuggestionResponse
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return nil, fmt.Errorf("failed to parse suggestion array: %w", err)
		}
		return entries, nil
	}

	var wrapper struct {
		Suggestions *[]SuggestionResponse `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion object: %w", err)
	}
	if wrapper.Suggestions != nil {
		return *wrapper.Suggestions, nil
	}

	var single SuggestionResponse
	if err := json.Unmarshal([]byte(raw), &single); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion: %w", err)
	}
	if strings.TrimSpace(single.Title) == "" {
		return nil, ErrNoSuggestions
	}
	return []SuggestionResponse{single}, nil
}

func filterSuggestions(entries []SuggestionResponse) ([]SuggestionResponse, error) {
	if len(entries) == 0 {
		return []SuggestionResponse{}, nil
	}

	valid := make([]SuggestionResponse, 0, len(entries))
	for _, e := range entries {
		e.Title = strings.TrimSpace(e.Title)
		e.Content = strings.TrimSpace(e.Content)
		if e.Title == "" {
			continue
		}
		valid = append(valid, e)
	}
	if len(valid) == 0 {
		return nil, ErrNoSuggestions
	}
	return valid, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
