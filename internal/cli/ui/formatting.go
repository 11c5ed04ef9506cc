package ui

import (
	"fmt"
	"io"
	"time"

	"talentAgent/internal/runner"
)

// FormatStatus возвращает иконку, цвет и текст для статуса прогона
func FormatStatus(status string) (icon, color, text string) {
	switch status {
	case "completed":
		return IconCheckmark, ColorGreen, "завершён"
	case "interrupted":
		return IconPause, ColorYellow, "прерван"
	case "running":
		return IconPlay, ColorCyan, "выполняется"
	default:
		return IconClock, ColorYellow, status
	}
}

// FormatOutcome иконка и цвет итога элемента.
func FormatOutcome(outcome string) (icon, color string) {
	switch outcome {
	case "succeeded":
		return IconCheckmark, ColorGreen
	case "already_done":
		return IconCheckmark, ColorBlue
	case "failed":
		return IconCross, ColorRed
	case runner.OutcomeSkipped:
		return IconSkip, ColorGray
	default:
		return IconQuestion, ColorYellow
	}
}

// PrintSummary печатает итог прогона. Вызывается всегда, в том числе после прерывания.
func PrintSummary(w io.Writer, sum runner.Summary) {
	c := sum.Counters
	title := "Прогон завершён"
	if sum.Interrupted {
		title = "Прогон прерван"
	}

	fmt.Fprintf(w, "\n"+ColorBold+"=== %s ==="+ColorReset+"\n", title)
	fmt.Fprintf(w, ColorCyan+IconList+" Прогон:"+ColorReset+" %s (%s)\n", sum.RunID, sum.Kind)
	fmt.Fprintf(w, ColorCyan+IconChart+" Страниц:"+ColorReset+" %d, "+ColorCyan+"карточек:"+ColorReset+" %d\n", sum.Pages, c.Seen)
	fmt.Fprintf(w, "  "+ColorGreen+"успешно: %d"+ColorReset+"  "+ColorBlue+"уже было: %d"+ColorReset+
		"  "+ColorGray+"пропущено: %d"+ColorReset+"  "+ColorRed+"ошибок: %d"+ColorReset+
		"  "+ColorYellow+"не определено: %d"+ColorReset+"\n",
		c.Succeeded, c.AlreadyDone, c.Skipped, c.Failed, c.Unknown)
	if !sum.FinishedAt.IsZero() && !sum.StartedAt.IsZero() {
		fmt.Fprintf(w, ColorCyan+IconTime+" Длительность:"+ColorReset+" %s\n", sum.FinishedAt.Sub(sum.StartedAt).Round(time.Second))
	}

	if len(sum.Failed) == 0 {
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "\n"+ColorYellow+"Требуют внимания (%d):"+ColorReset+"\n", len(sum.Failed))
	for _, rec := range sum.Failed {
		icon, color := FormatOutcome(rec.Outcome)
		fmt.Fprintf(w, "  %s%s %s"+ColorReset+" стр. %d %s", color, icon, rec.ItemID, rec.Page, rec.Outcome)
		if rec.Reason != "" {
			fmt.Fprintf(w, ": %s", rec.Reason)
		}
		if rec.URL != "" {
			fmt.Fprintf(w, " "+ColorGray+"%s"+ColorReset, rec.URL)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}
