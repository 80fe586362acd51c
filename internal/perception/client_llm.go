package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"maestro/internal/logging"
	"maestro/internal/types"
)

const (
	DefaultLLMBaseURL = "https://api.deepseek.com"
	DefaultLLMModel   = "deepseek-chat"
	DefaultLLMTimeout = 15 * time.Second
)

const classifierPrompt = `You are a task classifier. Given a user's request, decide whether it is a web scraping task, a data analysis task, or an API integration task. Respond with a JSON object only.

For a scraping task respond:
{"type": "scraping", "count": <number of sites/pages, int or null>, "domain": <kind of sites, string or null>, "target": <data to extract, string or null>}

For a data analysis task respond:
{"type": "analysis", "count": <number of rows/records, int or null>, "source": <data being analyzed, string or null>, "analysis_type": <what to find, string or null>}

For an API integration task respond:
{"type": "api", "count": <number of endpoints/APIs, int or null>, "source": <kind of APIs, string or null>, "target": <data to fetch, string or null>}

For anything else respond:
{"type": null}

Rules:
- count is an integer when mentioned, otherwise null
- scraping: domain is a short noun phrase (e.g. "dive shops"), target is what to extract
- analysis: source is the data (e.g. "customer data"), analysis_type is the goal (e.g. "trends")
- api: source is the kind of API (e.g. "hotel booking"), target is the data (e.g. "pricing")
- JSON only, no explanation`

// LLMConfig configures the chat-completion classifier.
type LLMConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	RetryCount int
}

// LLMClassifier classifies requests with an OpenAI-compatible chat
// completion endpoint (DeepSeek by default). Any transport or decoding
// failure is reported as "not recognized" so a Chain can fall back.
type LLMClassifier struct {
	cfg    LLMConfig
	client *resty.Client
}

// NewLLMClassifier builds the classifier. Without an API key it is
// constructed but reports Available() == false.
func NewLLMClassifier(cfg LLMConfig) *LLMClassifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultLLMBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	if cfg.RetryCount < 0 {
		cfg.RetryCount = 0
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.APIKey).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryCondition)

	return &LLMClassifier{cfg: cfg, client: client}
}

// retryCondition retries network errors, throttling and server errors.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == 429 || code == 408
}

// Available reports whether an API key is configured.
func (c *LLMClassifier) Available() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (types.Task, bool) {
	if !c.Available() {
		return types.Task{}, false
	}
	timer := logging.StartTimer(logging.CategoryClassifier, "llm classify")
	defer timer.StopWithThreshold(c.cfg.Timeout / 2)

	task, ok, err := c.classify(ctx, text)
	if err != nil {
		logging.ClassifierWarn("llm classifier failed, falling back: %v", err)
		return types.Task{}, false
	}
	return task, ok
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// llmTask is the JSON object the model is asked to return.
type llmTask struct {
	Type         *string  `json:"type"`
	Count        *float64 `json:"count"`
	Domain       string   `json:"domain"`
	Target       string   `json:"target"`
	Source       string   `json:"source"`
	AnalysisType string   `json:"analysis_type"`
}

func (c *LLMClassifier) classify(ctx context.Context, text string) (types.Task, bool, error) {
	var out chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: c.cfg.Model,
			Messages: []chatMessage{
				{Role: "system", Content: classifierPrompt},
				{Role: "user", Content: text},
			},
			ResponseFormat: map[string]string{"type": "json_object"},
			Temperature:    0,
		}).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return types.Task{}, false, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return types.Task{}, false, fmt.Errorf("API error (status %d): %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	if len(out.Choices) == 0 {
		return types.Task{}, false, fmt.Errorf("no completion choices returned")
	}

	content := out.Choices[0].Message.Content
	logging.ClassifierDebug("llm response: %s", truncate(content, 200))

	var parsed llmTask
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return types.Task{}, false, fmt.Errorf("failed to decode classification: %w", err)
	}
	task, ok := parsed.toTask(text)
	return task, ok, nil
}

func (p llmTask) toTask(text string) (types.Task, bool) {
	if p.Type == nil {
		return types.Task{}, false
	}
	category, err := types.ParseCategory(*p.Type)
	if err != nil {
		return types.Task{}, false
	}

	count := category.DefaultCount()
	if p.Count != nil {
		count = int(*p.Count)
	}

	params := map[string]string{}
	switch category {
	case types.CategoryScraping:
		params[types.ParamDomain] = p.Domain
		params[types.ParamTarget] = p.Target
	case types.CategoryAnalysis:
		params[types.ParamSource] = p.Source
		params[types.ParamAnalysisType] = p.AnalysisType
	case types.CategoryAPI:
		params[types.ParamSource] = p.Source
		params[types.ParamTarget] = p.Target
	}
	return types.NewTask(category, strings.TrimSpace(text), count, params), true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
