// Package llm подключает OpenAI для разбора неизвестных всплывающих окон.
// Включает rate limiting и журналирование запросов.
package llm

import "context"

// Logger определяет интерфейс для логирования LLM запросов.
type Logger interface {
	// LogLLMRequest сохраняет информацию о запросе к LLM в базу данных.
	LogLLMRequest(ctx context.Context, runID, purpose, promptText, responseText, model string, tokensUsed int) error
}

// PopupInfo ответ модели об оверлее и кнопке его закрытия.
type PopupInfo struct {
	HasPopup         bool   `json:"has_popup"`
	CloseSelector    string `json:"close_selector"`
	PopupDescription string `json:"popup_description"`
	Reasoning        string `json:"reasoning"`
}

type runIDKey struct{}

// WithRunID привязывает к контексту идентификатор прогона, чтобы запросы к модели
// попадали в журнал вместе с ним.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

func runIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
