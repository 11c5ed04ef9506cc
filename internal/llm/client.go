package llm

import (
	"context"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type Config struct {
	APIKey            string
	Model             string
	BaseURL           string
	RequestsPerMinute int
	TokensPerHour     int
}

type Client struct {
	client      *openai.Client
	model       string
	logger      Logger
	rateLimiter *RateLimiter
	log         *zap.Logger
}

func NewClient(cfg Config, logger Logger, log *zap.Logger) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		logger:      logger,
		rateLimiter: NewRateLimiter(cfg.RequestsPerMinute, cfg.TokensPerHour),
		log:         log,
	}
}

// estimateTokens грубая оценка: ~4 символа на токен.
func estimateTokens(req openai.ChatCompletionRequest) int {
	n := 0
	for _, msg := range req.Messages {
		n += utf8.RuneCountInString(msg.Content) / 4
	}
	return n + req.MaxTokens
}

// createChatCompletionWithRateLimit выполняет запрос с проверкой rate limit
func (c *Client) createChatCompletionWithRateLimit(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if err := c.rateLimiter.AllowRequest(); err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	estimated := estimateTokens(req)
	if err := c.rateLimiter.AllowTokens(estimated); err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return resp, err
	}

	// Корректируем использованные токены (теперь знаем точное значение)
	if resp.Usage.TotalTokens > estimated {
		c.rateLimiter.ConsumeTokens(resp.Usage.TotalTokens - estimated)
	}
	return resp, nil
}

func (c *Client) logRequest(ctx context.Context, purpose, prompt, response string, tokens int) {
	if c.logger == nil {
		return
	}
	if err := c.logger.LogLLMRequest(ctx, runIDFrom(ctx), purpose, prompt, response, c.model, tokens); err != nil {
		c.log.Warn("Не удалось сохранить запрос к модели", zap.String("purpose", purpose), zap.Error(err))
	}
}
