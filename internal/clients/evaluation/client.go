package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/pkg/httpx"
	"github.com/yungbote/echoloop-backend/internal/platform/apierr"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
)

// KeyConcept is one concept the evaluation service extracted from a source
// text, tagged essential or supporting.
type KeyConcept struct {
	Name        string `json:"name"`
	Importance  string `json:"importance"`
	Explanation string `json:"explanation,omitempty"`
}

// ConceptLink is a directed edge in the extracted concept map. From and To
// name concepts from the same extraction.
type ConceptLink struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// FocusArea is an extraction hint shown to reading-first learners before
// their first attempt.
type FocusArea struct {
	Concept string `json:"concept"`
	Reason  string `json:"reason,omitempty"`
}

type ExtractionResult struct {
	KeyConcepts []KeyConcept  `json:"key_concepts"`
	ConceptMap  []ConceptLink `json:"concept_map"`
	FocusAreas  []FocusArea   `json:"focus_areas"`
}

type EvaluationRequest struct {
	SourceText  string               `json:"source_text"`
	Transcript  string               `json:"transcript"`
	Precision   string               `json:"precision"`
	AttemptType string               `json:"attempt_type"`
	KeyConcepts []KeyConcept         `json:"key_concepts,omitempty"`
	PriorScore  *int                 `json:"prior_score,omitempty"`
	Persona     string               `json:"persona,omitempty"`
	Metrics     *types.SpeechMetrics `json:"speech_metrics,omitempty"`
}

type EvaluationResult struct {
	CoveredPoints  []string             `json:"covered_points"`
	MissedPoints   []string             `json:"missed_points"`
	Coverage       float64              `json:"coverage"`
	Accuracy       float64              `json:"accuracy"`
	Feedback       string               `json:"feedback"`
	DeliveryScript types.DeliveryScript `json:"delivery_script"`
}

type SocraticRequest struct {
	SourceText     string                  `json:"source_text"`
	TargetConcepts []string                `json:"target_concepts"`
	History        []types.SocraticMessage `json:"history,omitempty"`
	LearnerMessage string                  `json:"learner_message"`
}

type SocraticResult struct {
	Reply             string   `json:"reply"`
	ConceptsAddressed []string `json:"concepts_addressed"`
}

// Client is the evaluation-service boundary the rest of the backend talks
// through. Everything the engine knows about explanation quality comes from
// here; the engine itself never interprets natural language.
type Client interface {
	ExtractConcepts(ctx context.Context, sourceText, precision string) (*ExtractionResult, error)
	EvaluateExplanation(ctx context.Context, req EvaluationRequest) (*EvaluationResult, error)
	SocraticTurn(ctx context.Context, req SocraticRequest) (*SocraticResult, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
}

type evalHTTPError struct {
	StatusCode int
	Body       string
}

func (e *evalHTTPError) Error() string {
	return fmt.Sprintf("evaluation http error: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *evalHTTPError) HTTPStatusCode() int { return e.StatusCode }

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	baseURL := strings.TrimSpace(os.Getenv("EVAL_BASE_URL"))
	if baseURL == "" {
		return nil, fmt.Errorf("missing EVAL_BASE_URL")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	apiKey := strings.TrimSpace(os.Getenv("EVAL_API_KEY"))

	timeoutSec := 120
	if v := strings.TrimSpace(os.Getenv("EVAL_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 3
	if v := strings.TrimSpace(os.Getenv("EVAL_MAX_RETRIES")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("service", "EvaluationClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

func (c *client) ExtractConcepts(ctx context.Context, sourceText, precision string) (*ExtractionResult, error) {
	body := map[string]any{
		"source_text": sourceText,
		"precision":   precision,
	}
	var out ExtractionResult
	if err := c.do(ctx, http.MethodPost, "/v1/extract", body, &out); err != nil {
		return nil, err
	}
	if out.KeyConcepts == nil {
		out.KeyConcepts = []KeyConcept{}
	}
	if out.ConceptMap == nil {
		out.ConceptMap = []ConceptLink{}
	}
	if out.FocusAreas == nil {
		out.FocusAreas = []FocusArea{}
	}
	return &out, nil
}

func (c *client) EvaluateExplanation(ctx context.Context, req EvaluationRequest) (*EvaluationResult, error) {
	var out EvaluationResult
	if err := c.do(ctx, http.MethodPost, "/v1/evaluate", req, &out); err != nil {
		return nil, err
	}
	if out.CoveredPoints == nil {
		out.CoveredPoints = []string{}
	}
	if out.MissedPoints == nil {
		out.MissedPoints = []string{}
	}
	return &out, nil
}

func (c *client) SocraticTurn(ctx context.Context, req SocraticRequest) (*SocraticResult, error) {
	var out SocraticResult
	if err := c.do(ctx, http.MethodPost, "/v1/socratic", req, &out); err != nil {
		return nil, err
	}
	if out.ConceptsAddressed == nil {
		out.ConceptsAddressed = []string{}
	}
	return &out, nil
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &evalHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return apierr.UpstreamUnavailable(fmt.Errorf("evaluation decode error: %w; raw=%s", uErr, string(raw)))
			}
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !httpx.IsRetryableError(err) {
			return apierr.UpstreamUnavailable(err)
		}
		if attempt == c.maxRetries {
			break
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("evaluation request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return apierr.UpstreamUnavailable(lastErr)
}
