package ui

import (
	"fmt"
	"io"
)

// PrintBanner выводит заголовок перед началом прогона
func PrintBanner(w io.Writer, kind, target string, dryRun bool) {
	fmt.Fprintln(w, ColorBold+IconRobot+" talentAgent: "+kind+ColorReset)
	if target != "" {
		fmt.Fprintln(w, ColorGray+"Цель: "+target+ColorReset)
	}
	if dryRun {
		fmt.Fprintln(w, ColorYellow+"Пробный прогон: действия не выполняются"+ColorReset)
	}
	fmt.Fprintln(w, ColorGray+"Пауза: создайте файл PAUSE_FILE или вызовите POST /api/pause"+ColorReset)
	fmt.Fprintln(w)
}
