package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const popupSystemPrompt = "You are an expert at analyzing web page structure and identifying popups and their close buttons. " +
	"The page is a talent marketplace search listing. Never suggest buttons that send invitations, " +
	"add to favorites, log out or navigate away."

func (c *Client) AnalyzePopup(ctx context.Context, elements string) (*PopupInfo, error) {
	prompt := fmt.Sprintf(`Below are the clickable elements found inside overlays that currently cover the page.

Elements data:
%s

Determine:
1. Is there a popup, banner or overlay that blocks the listing?
2. If yes, the CSS selector of the element that dismisses it (close, accept, "no thanks")
3. Brief description of the popup

Respond in JSON format:
{
  "has_popup": true/false,
  "close_selector": "CSS selector",
  "popup_description": "brief description",
  "reasoning": "your analysis"
}`, elements)

	resp, err := c.createChatCompletionWithRateLimit(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: popupSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze popup: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from LLM")
	}

	content := resp.Choices[0].Message.Content
	c.logRequest(ctx, "popup", prompt, content, resp.Usage.TotalTokens)

	var result PopupInfo
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("failed to parse popup analysis: %w", err)
	}
	result.CloseSelector = strings.TrimSpace(result.CloseSelector)
	if !result.HasPopup {
		result.CloseSelector = ""
	}

	c.log.Debug("Анализ оверлея", zap.Bool("has_popup", result.HasPopup),
		zap.String("close_selector", result.CloseSelector), zap.Int("tokens", resp.Usage.TotalTokens))
	return &result, nil
}
