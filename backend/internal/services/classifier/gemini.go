package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kaze3114/castket/backend/internal/domain/enums"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel    = "gemini-2.5-flash"

	maxReplyBytes = 1 << 20
)

const listingPrompt = `テキスト: %q
判定ルール: VRChatイベント募集として不適切ならNG。JSON返答。
{ "isSafe": boolean, "reason": "短い理由" }`

const imagePrompt = `画像チェック。不適切ならNG。JSON返答。
{ "isSafe": boolean, "reason": "短い理由" }`

const feedbackPrompt = `あなたはWebサービスの厳格なコンテンツモデレーターです。
以下のフィードバック内容を分析し、少しでも「悪意」「嘲笑」「攻撃性」「不快感」が含まれる場合は有害と判定してください。

【判定基準】
- 誹謗中傷、暴言、脅迫は即アウト
- 侮辱的な言葉が含まれる場合はアウト
- 相手を煽るような表現もアウト
- 建設的な批判ではなく、単に相手を傷つける目的の文章はアウト

回答は以下のJSON形式のみで返してください。
{ "is_harmful": true または false, "reason": "判定理由" }

分析対象のテキスト:
%s`

type GeminiConfig struct {
	APIKey   string
	Endpoint string
	Model    string
}

// GeminiClient calls the Gemini generateContent REST API.
type GeminiClient struct {
	client   *http.Client
	apiKey   string
	endpoint string
	model    string
	logger   *zap.Logger
}

func NewGeminiClient(cfg GeminiConfig, client *http.Client, logger *zap.Logger) *GeminiClient {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	return &GeminiClient{
		client:   client,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		endpoint: endpoint,
		model:    model,
		logger:   logger,
	}
}

func (g *GeminiClient) Configured() bool {
	return g != nil && g.apiKey != ""
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (g *GeminiClient) Classify(ctx context.Context, content Content) (Verdict, error) {
	if !g.Configured() {
		return Verdict{}, ErrNotConfigured
	}

	parts, err := buildParts(content)
	if err != nil {
		return Verdict{}, err
	}

	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: geminiGenerationConfig{Temperature: 0},
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("marshal classifier request: %v: %w", err, ErrUnavailable)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.endpoint, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("build classifier request: %v: %w", err, ErrUnavailable)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	start := time.Now()
	defer func() {
		classifierDuration.Observe(time.Since(start).Seconds())
	}()

	res, err := g.client.Do(req)
	if err != nil {
		classifierRequests.WithLabelValues(string(content.Kind), "error").Inc()
		return Verdict{}, fmt.Errorf("classifier request failed: %v: %w", err, ErrUnavailable)
	}
	defer res.Body.Close()

	classifierRequests.WithLabelValues(string(content.Kind), strconv.Itoa(res.StatusCode)).Inc()
	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxReplyBytes))
		return Verdict{}, fmt.Errorf("classifier request failed status=%d: %w", res.StatusCode, ErrUnavailable)
	}

	respBytes, err := io.ReadAll(io.LimitReader(res.Body, maxReplyBytes))
	if err != nil {
		return Verdict{}, fmt.Errorf("read classifier response: %v: %w", err, ErrUnavailable)
	}

	var resp geminiResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return Verdict{}, fmt.Errorf("parse classifier response: %v: %w", err, ErrUnavailable)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		// no verdict was produced; the caller's fail policy decides
		g.logger.Warn("classifier blocked prompt",
			zap.String("kind", string(content.Kind)),
			zap.String("block_reason", resp.PromptFeedback.BlockReason),
		)
		return Verdict{}, fmt.Errorf("classifier blocked prompt (%s): %w", resp.PromptFeedback.BlockReason, ErrUnavailable)
	}

	reply := replyText(resp)
	if reply == "" {
		return Verdict{}, fmt.Errorf("empty classifier reply: %w", ErrUnavailable)
	}

	verdict, err := parseVerdict(reply)
	if err != nil {
		return Verdict{}, err
	}

	g.logger.Debug("classifier verdict",
		zap.String("kind", string(content.Kind)),
		zap.String("purpose", string(content.Purpose)),
		zap.Bool("safe", verdict.Safe),
		zap.Bool("judged", verdict.Judged),
	)
	return verdict, nil
}

func buildParts(content Content) ([]geminiPart, error) {
	switch content.Kind {
	case enums.ContentKindText:
		prompt := fmt.Sprintf(listingPrompt, content.Text)
		if content.Purpose == PurposeFeedback {
			prompt = fmt.Sprintf(feedbackPrompt, content.Text)
		}
		return []geminiPart{{Text: prompt}}, nil
	case enums.ContentKindImage:
		if len(content.Data) == 0 {
			return nil, fmt.Errorf("empty image payload: %w", ErrUnavailable)
		}
		mimeType := content.MIMEType
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		return []geminiPart{
			{Text: imagePrompt},
			{InlineData: &geminiInlineData{
				MIMEType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(content.Data),
			}},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported content kind %q: %w", content.Kind, ErrUnavailable)
	}
}

func replyText(resp geminiResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}
