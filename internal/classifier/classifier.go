// Package classifier implements the Content Classifier (C4): a remote LLM
// call that labels held clipboard text as CODE or TEXT, backed by a bounded
// LRU cache keyed on the content's Fingerprint (base spec §4.4).
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/siguna/dlpagent/internal/fingerprint"
	"github.com/siguna/dlpagent/internal/model"
	"go.uber.org/zap"
)

const (
	// These bound how much of a file/text item is ever read or sent to the
	// remote model, per base spec §4.4's size-safety rule.
	maxFileReadBytes  = 2 * 1024 * 1024
	maxFileSampleBytes = 5 * 1024
	maxTextSampleBytes = 3000
	binarySniffWindow  = 4096
)

// systemPrompt is fixed per base spec §4.4 ("the prompt is not
// user-configurable in this version").
const systemPrompt = `You are a strict content classifier for a data-loss-prevention agent.
Given a snippet of clipboard content, respond with exactly one word:
CODE if the content is source code, a script, structured configuration,
or shell/command-line syntax; TEXT otherwise. Do not explain your answer.`

// Classifier labels a clipboard item's content, keyed by its fingerprint.
// The mediator depends on this interface, not on RemoteClassifier directly,
// so tests can substitute a Fake (base spec §9's in-memory adapter
// requirement extended to C4).
type Classifier interface {
	Classify(ctx context.Context, fp fingerprint.Fingerprint, item *model.Item) (model.Verdict, error)
}

// RemoteClassifier labels clipboard items via a remote OpenAI-compatible
// chat-completions endpoint, caching results by content fingerprint.
type RemoteClassifier struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	logger     *zap.Logger
	cache      *lru.Cache[fingerprint.Fingerprint, model.Verdict]
}

// Option configures a Classifier.
type Option func(*RemoteClassifier)

// WithHTTPClient overrides the HTTP client (used by tests to point at an
// httptest.Server).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *RemoteClassifier) { cl.httpClient = c }
}

// New builds a Classifier. endpoint is the full chat-completions URL,
// matching the original agent's Azure OpenAI inference endpoint shape.
func New(endpoint, apiKey, modelName string, cacheSize int, logger *zap.Logger, opts ...Option) (*RemoteClassifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheSize <= 0 {
		cacheSize = 2048
	}
	cache, err := lru.New[fingerprint.Fingerprint, model.Verdict](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification cache: %w", err)
	}
	cl := &RemoteClassifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      modelName,
		logger:     logger,
		cache:      cache,
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

// Classify returns the cached verdict for item's fingerprint if present,
// otherwise calls the remote model and caches the result. fp is the
// caller-computed Fingerprint of item's canonical bytes (base spec §4.4:
// "keyed on fingerprint, not content").
func (c *RemoteClassifier) Classify(ctx context.Context, fp fingerprint.Fingerprint, item *model.Item) (model.Verdict, error) {
	if v, ok := c.cache.Get(fp); ok {
		c.logger.Debug("classification cache hit", zap.String("fingerprint", string(fp)))
		return v, nil
	}

	sample, ok, err := c.sampleOf(item)
	if err != nil {
		return model.VerdictText, fmt.Errorf("failed to sample item for classification: %w", err)
	}
	if !ok {
		// Binary/oversized content is never sent to the model; treat
		// conservatively as TEXT (no code signal possible).
		c.cache.Add(fp, model.VerdictText)
		return model.VerdictText, nil
	}

	verdict, err := c.callRemote(ctx, sample)
	if err != nil {
		// Fail-safe toward blocking (base spec §4.4): any transport or
		// decoding failure is treated as Code, not propagated as an
		// indeterminate result the mediator would have to special-case.
		c.logger.Warn("classification request failed, failing closed to Code", zap.Error(err))
		verdict = model.VerdictCode
	}
	c.cache.Add(fp, verdict)
	return verdict, nil
}

// sampleOf returns the byte sample to classify, and false if the item must
// be skipped (oversized file, binary content), per base spec §4.4.
func (c *RemoteClassifier) sampleOf(item *model.Item) ([]byte, bool, error) {
	switch item.Kind {
	case model.KindFile:
		return c.sampleFile(item.Path)
	case model.KindText:
		b := []byte(item.Text)
		if len(b) > maxTextSampleBytes {
			b = b[:maxTextSampleBytes]
		}
		return b, true, nil
	default:
		return nil, false, nil
	}
}

func (c *RemoteClassifier) sampleFile(path string) ([]byte, bool, error) {
	info, err := statFile(path)
	if err != nil {
		return nil, false, err
	}
	if info.size > maxFileReadBytes {
		c.logger.Debug("file exceeds classification size cap, skipping", zap.String("path", path), zap.Int64("size", info.size))
		return nil, false, nil
	}

	data, err := readFileHead(path, binarySniffWindow)
	if err != nil {
		return nil, false, err
	}
	if looksBinary(data) {
		c.logger.Debug("file looks binary, skipping classification", zap.String("path", path))
		return nil, false, nil
	}

	sample, err := readFileHead(path, maxFileSampleBytes)
	if err != nil {
		return nil, false, err
	}
	return sample, true, nil
}

// looksBinary reports whether data contains a NUL byte within the first
// binarySniffWindow bytes, a common heuristic for non-text content.
func looksBinary(data []byte) bool {
	return bytes.IndexByte(data, 0x00) >= 0
}

func (c *RemoteClassifier) callRemote(ctx context.Context, sample []byte) (model.Verdict, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(sample)},
		},
		Temperature: 0,
		MaxTokens:   4,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return model.VerdictUnknown, fmt.Errorf("failed to marshal classification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return model.VerdictUnknown, fmt.Errorf("failed to build classification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.VerdictUnknown, fmt.Errorf("classification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.VerdictUnknown, fmt.Errorf("classification endpoint returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return model.VerdictUnknown, fmt.Errorf("failed to decode classification response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return model.VerdictUnknown, fmt.Errorf("classification response had no choices")
	}

	return parseVerdict(parsed.Choices[0].Message.Content), nil
}

// parseVerdict extracts CODE/TEXT from the model's reply per base spec §4.4
// ("case-insensitive substring CODE → Code, otherwise Text"). A substring
// search, not a first-character scan, is required: a non-canonical reply
// like "The content looks like CODE" must still match on the literal
// substring rather than on the leading 'T' of "The".
func parseVerdict(reply string) model.Verdict {
	if strings.Contains(strings.ToUpper(reply), "CODE") {
		return model.VerdictCode
	}
	return model.VerdictText
}

var _ Classifier = (*RemoteClassifier)(nil)
