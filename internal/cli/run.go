package cli

import (
	"context"
	"fmt"

	"talentAgent/internal/browser"
	"talentAgent/internal/catalog"
	"talentAgent/internal/cli/ui"
	"talentAgent/internal/database"
	"talentAgent/internal/events"
	"talentAgent/internal/ledger"
	"talentAgent/internal/llm"
	"talentAgent/internal/migrations"
	"talentAgent/internal/pacing"
	"talentAgent/internal/report"
	"talentAgent/internal/runner"
	"talentAgent/internal/server"
	"talentAgent/internal/site"
	"talentAgent/internal/workflow"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	KindInvite   = "invite"
	KindFavorite = "favorite"
)

// job описание прогона: вид, цель и конструктор сценария сайта.
type job struct {
	kind          string
	target        workflow.Target
	requireTarget bool
	newSite       func(br *browser.PlaywrightBrowser, cat *catalog.Catalog, cfg site.Config, opts []site.Option) runner.Site
}

func newInviteCommand(app *App) *cobra.Command {
	cfg := app.cfg
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Пригласить каждого исполнителя выдачи в существующий проект",
		Example: "  talentAgent invite --job-id 805775\n" +
			"  talentAgent invite --job-query \"Voice actors for radio ad\"\n" +
			"  talentAgent invite --no-job-filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cfg.Run
			target := workflow.ParseTarget(r.JobID, r.JobQuery)
			if !r.NoJobFilter {
				if err := target.Validate(); err != nil {
					return fmt.Errorf("укажите --job-id или --job-query (или --no-job-filter): %w", err)
				}
			}
			return app.run(cmd.Context(), job{
				kind:          KindInvite,
				target:        target,
				requireTarget: !r.NoJobFilter,
				newSite: func(br *browser.PlaywrightBrowser, cat *catalog.Catalog, sc site.Config, opts []site.Option) runner.Site {
					return site.NewInvite(br, br, cat, sc, r.NoJobFilter, app.log.Logger, opts...)
				},
			})
		},
	}
	cmd.Flags().StringVar(&cfg.Run.JobID, "job-id", cfg.Run.JobID, "идентификатор проекта (значение варианта в списке)")
	cmd.Flags().StringVar(&cfg.Run.JobQuery, "job-query", cfg.Run.JobQuery, "фрагмент названия проекта; число из 5+ цифр считается идентификатором")
	cmd.Flags().BoolVar(&cfg.Run.NoJobFilter, "no-job-filter", cfg.Run.NoJobFilter, "отправлять приглашение, не выбирая проект")
	return cmd
}

func newFavoriteCommand(app *App) *cobra.Command {
	cfg := app.cfg
	cmd := &cobra.Command{
		Use:   "favorite",
		Short: "Добавить каждого исполнителя выдачи в список избранного",
		RunE: func(cmd *cobra.Command, args []string) error {
			list := cfg.Run.FavoritesList
			target := workflow.Target{TextFragment: list}
			if err := target.Validate(); err != nil {
				return fmt.Errorf("укажите --list: %w", err)
			}
			return app.run(cmd.Context(), job{
				kind:          KindFavorite,
				target:        target,
				requireTarget: true,
				newSite: func(br *browser.PlaywrightBrowser, cat *catalog.Catalog, sc site.Config, opts []site.Option) runner.Site {
					return site.NewFavorites(br, br, cat, sc, list, app.log.Logger, opts...)
				},
			})
		},
	}
	cmd.Flags().StringVar(&cfg.Run.FavoritesList, "list", cfg.Run.FavoritesList, "название списка избранного")
	return cmd
}

// history открытая история прогонов; без БД все поля пустые.
type history struct {
	repo  *database.RunRepository
	close func()
}

func (a *App) openHistory() (history, error) {
	if !a.cfg.Database.Enabled() {
		return history{close: func() {}}, nil
	}
	if err := migrations.Run(a.cfg, a.log); err != nil {
		return history{}, fmt.Errorf("миграции: %w", err)
	}
	db, err := database.New(a.cfg, a.log)
	if err != nil {
		return history{}, err
	}
	return history{
		repo:  database.NewRunRepository(db.DB),
		close: func() { db.Close(a.log) },
	}, nil
}

func (a *App) run(ctx context.Context, j job) error {
	cfg := a.cfg
	log := a.log.Logger

	cat, err := catalog.Load(cfg.Selectors.File, log)
	if err != nil {
		return fmt.Errorf("каталог селекторов: %w", err)
	}
	led, err := ledger.Load(cfg.Run.LedgerPath)
	if err != nil {
		return fmt.Errorf("журнал обработанных: %w", err)
	}

	runID := uuid.NewString()
	ev, err := events.Open(cfg.Run.EventLog, runID, log)
	if err != nil {
		return fmt.Errorf("журнал событий: %w", err)
	}
	defer ev.Close()

	hist, err := a.openHistory()
	if err != nil {
		return err
	}
	defer hist.close()

	var (
		recorder runner.Recorder = runner.NopRecorder{}
		llmLog   llm.Logger
		api      server.History
	)
	if hist.repo != nil {
		recorder, llmLog, api = hist.repo, hist.repo, hist.repo
	}

	br := browser.New(browser.Config{
		CDPURL:         cfg.Browser.CDPURL,
		RequireCDP:     cfg.Browser.RequireCDP,
		UseCurrentPage: cfg.Browser.UseCurrentPage,
		PreferHost:     cfg.Browser.SiteHost,
		Headless:       cfg.Browser.Headless,
		UserDataDir:    cfg.Browser.UserDataDir,
		Display:        cfg.Browser.Display,
		Timeout:        cfg.Timeouts.Default,
		ActionTimeout:  cfg.Timeouts.Action,
	}, cat, log)
	if cfg.OpenAI.KeyAI != "" {
		client := llm.NewClient(llm.Config{
			APIKey:            cfg.OpenAI.KeyAI,
			Model:             cfg.OpenAI.Model,
			BaseURL:           cfg.OpenAI.BaseURL,
			RequestsPerMinute: cfg.OpenAI.RequestsPerMinute,
			TokensPerHour:     cfg.OpenAI.TokensPerHour,
		}, llmLog, log)
		br.SetPopupDetector(browser.NewLLMPopupDetector(client))
	}

	if err := br.Launch(ctx); err != nil {
		return fmt.Errorf("запуск браузера: %w", err)
	}
	defer func() {
		if err := br.Close(); err != nil {
			log.Warn("Ошибка закрытия браузера", zap.Error(err))
		}
	}()

	if cfg.Browser.StartURL != "" && !cfg.Browser.UseCurrentPage {
		if err := br.Navigate(ctx, cfg.Browser.StartURL); err != nil {
			return fmt.Errorf("переход на %s: %w", cfg.Browser.StartURL, err)
		}
	}

	pacer := pacing.NewPacer(cfg.Pacing.SpeedFile, cfg.Pacing.Speed, log)
	gate := pacing.NewPauseGate(cfg.Pacing.PauseFile, cfg.Pacing.PausePoll, log)

	wf := workflow.New(br, log, workflow.Config{
		OpenTimeout:   cfg.Timeouts.Open,
		SignalTimeout: cfg.Timeouts.Signal,
	}, workflow.WithEvents(ev))

	s := j.newSite(br, cat, site.Config{
		MenuTimeout:  cfg.Timeouts.Menu,
		ModalTimeout: cfg.Timeouts.Modal,
		StepDelay:    cfg.Timeouts.Step,
	}, []site.Option{site.WithEvents(ev), site.WithPopupCloser(br)})

	runCtx, cancel := context.WithCancel(llm.WithRunID(ctx, runID))
	defer cancel()

	progress := runner.NewProgress()
	if cfg.Control.Addr != "" {
		srv := server.New(cfg.Control.Addr, log, progress, gate, pacer, api)
		go func() {
			if err := srv.Run(runCtx); err != nil {
				log.Warn("Сервер управления остановлен с ошибкой", zap.Error(err))
			}
		}()
	}

	r := runner.New(s, wf, runner.RunContext{Pause: gate, Pacer: pacer}, runner.Config{
		Kind:          j.kind,
		Target:        j.target,
		RequireTarget: j.requireTarget,
		MaxPages:      cfg.Run.MaxPages,
		DryRun:        cfg.Run.DryRun,
		InitialDelay:  cfg.Run.InitialDelay,
		ItemPause:     pacing.Range{Min: cfg.Pacing.ItemMin, Max: cfg.Pacing.ItemMax},
		PagePause:     pacing.Range{Min: cfg.Pacing.PageMin, Max: cfg.Pacing.PageMax},
	}, log,
		runner.WithLedger(led),
		runner.WithEvents(ev),
		runner.WithRecorder(recorder),
		runner.WithProgress(progress),
	)

	ui.PrintBanner(a.out, j.kind, j.target.String(), cfg.Run.DryRun)
	sum, runErr := r.RunWithID(runCtx, runID)

	if err := report.AppendFailed(cfg.Run.FailedPath, sum.Failed); err != nil {
		log.Warn("Не удалось записать CSV с ошибками", zap.String("path", cfg.Run.FailedPath), zap.Error(err))
	}
	ui.PrintSummary(a.out, sum)

	if runErr != nil {
		return runErr
	}
	a.code = exitCode(sum)
	return nil
}
