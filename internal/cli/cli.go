// Package cli команды talentAgent: invite, favorite, управление паузой и скоростью, история.
package cli

import (
	"context"
	"fmt"
	"io"

	"talentAgent/internal/cli/ui"
	"talentAgent/internal/config"
	"talentAgent/internal/logger"
	"talentAgent/internal/runner"

	"github.com/spf13/cobra"
)

// Коды завершения процесса.
const (
	ExitOK       = 0
	ExitFailures = 1
	ExitConfig   = 2
)

type App struct {
	cfg  *config.Cfg
	log  *logger.Zap
	out  io.Writer
	code int
}

// Execute разбирает аргументы, выполняет команду и возвращает код завершения.
func Execute(ctx context.Context, cfg *config.Cfg, log *logger.Zap, out io.Writer, args []string) int {
	app := &App{cfg: cfg, log: log, out: out, code: ExitOK}

	root := newRootCommand(app)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(out, ui.ColorRed+ui.IconCross+" "+err.Error()+ui.ColorReset)
		return ExitConfig
	}
	return app.code
}

// exitCode 0, если ни один элемент не закончился неудачей или неопределённым итогом.
func exitCode(sum runner.Summary) int {
	if sum.Counters.Failures() > 0 {
		return ExitFailures
	}
	return ExitOK
}

func newRootCommand(app *App) *cobra.Command {
	cfg := app.cfg
	root := &cobra.Command{
		Use:           "talentAgent",
		Short:         "Массовые приглашения и избранное для карточек исполнителей в уже открытом браузере",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Значения по умолчанию берутся из окружения, флаги их перекрывают.
	pf := root.PersistentFlags()
	pf.StringVar(&cfg.Browser.StartURL, "start-url", cfg.Browser.StartURL, "страница выдачи, с которой начать (пусто: текущая вкладка)")
	pf.StringVar(&cfg.Browser.CDPURL, "cdp-url", cfg.Browser.CDPURL, "адрес отладочного порта Chromium")
	pf.BoolVar(&cfg.Browser.UseCurrentPage, "use-current-page", cfg.Browser.UseCurrentPage, "работать в самой свежей вкладке сайта")
	pf.BoolVar(&cfg.Run.DryRun, "dry-run", cfg.Run.DryRun, "только обойти карточки, ничего не отправляя")
	pf.IntVar(&cfg.Run.MaxPages, "max-pages", cfg.Run.MaxPages, "сколько страниц выдачи обработать")
	pf.DurationVar(&cfg.Run.InitialDelay, "initial-delay", cfg.Run.InitialDelay, "пауза перед первой карточкой")
	pf.StringVar(&cfg.Run.LedgerPath, "ledger", cfg.Run.LedgerPath, "файл журнала обработанных карточек")
	pf.StringVar(&cfg.Run.FailedPath, "failed-out", cfg.Run.FailedPath, "CSV для карточек с ошибкой")
	pf.StringVar(&cfg.Run.EventLog, "event-log", cfg.Run.EventLog, "JSONL файл событий")
	pf.Float64Var(&cfg.Pacing.Speed, "speed", cfg.Pacing.Speed, "скорость 1..5, если файл скорости не задан")
	pf.StringVar(&cfg.Pacing.SpeedFile, "speed-file", cfg.Pacing.SpeedFile, "файл со скоростью, читается на лету")
	pf.StringVar(&cfg.Pacing.PauseFile, "pause-file", cfg.Pacing.PauseFile, "файл-флаг паузы")
	pf.StringVar(&cfg.Selectors.File, "selectors", cfg.Selectors.File, "YAML/JSON с переопределением селекторов")
	pf.StringVar(&cfg.Control.Addr, "control-addr", cfg.Control.Addr, "адрес HTTP API управления (пусто: выключен)")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return cfg.Validate()
	}

	root.AddCommand(
		newInviteCommand(app),
		newFavoriteCommand(app),
		newPauseCommand(app),
		newResumeCommand(app),
		newSpeedCommand(app),
		newRunsCommand(app),
	)
	return root
}
