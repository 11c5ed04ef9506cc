// Package runner обходит элементы на страницах сайта и для каждого запускает сценарий выбора
// и подтверждения, ведёт счётчики, журнал обработанных и паузы между действиями.
package runner

import (
	"context"
	"errors"
	"time"

	"talentAgent/internal/pacing"
	"talentAgent/internal/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Item карточка на странице. ID может быть пустым, если его не удалось извлечь.
type Item struct {
	ID    string
	URL   string
	Title string
	Index int
}

// Site операции конкретного сценария сайта.
type Site interface {
	Items(ctx context.Context) ([]Item, error)
	// Open открывает модальное окно действия для элемента и описывает его.
	Open(ctx context.Context, it Item) (workflow.Dialog, error)
	// Dismiss закрывает всё, что осталось открытым после элемента.
	Dismiss(ctx context.Context)
	// NextPage переходит на следующую страницу; false означает, что страниц больше нет.
	NextPage(ctx context.Context) (bool, error)
}

type Selector interface {
	SelectAndConfirm(ctx context.Context, d workflow.Dialog, t workflow.Target) (workflow.Result, error)
}

type Ledger interface {
	Has(id string) bool
	Add(id, sourceURL string, at time.Time) error
}

type Pauser interface {
	Wait(ctx context.Context) error
}

type Pacer interface {
	Sleep(ctx context.Context, r pacing.Range) error
}

// RunContext явные зависимости цикла, которые оператор меняет на лету.
type RunContext struct {
	Pause Pauser
	Pacer Pacer
}

type Config struct {
	Kind   string
	Target workflow.Target
	// RequireTarget false для режима отправки без выбора.
	RequireTarget bool
	MaxPages      int
	DryRun        bool
	InitialDelay  time.Duration
	ItemPause     pacing.Range
	PagePause     pacing.Range
}

// ItemRecord итог одного элемента.
type ItemRecord struct {
	ItemID   string
	URL      string
	Page     int
	Outcome  string
	Phase    string
	Step     string
	Reason   string
	Implicit bool
	At       time.Time
}

const OutcomeSkipped = "skipped"

// ErrAlreadyDone Site.Open сообщает, что действие для элемента уже выполнено и окно не нужно.
var ErrAlreadyDone = errors.New("действие уже выполнено")

// Summary итог прогона; возвращается всегда, даже при прерывании.
type Summary struct {
	RunID       string
	Kind        string
	Pages       int
	Counters    Counters
	Failed      []ItemRecord
	Interrupted bool
	StartedAt   time.Time
	FinishedAt  time.Time
}

type Runner struct {
	site     Site
	wf       Selector
	ledger   Ledger
	rc       RunContext
	cfg      Config
	log      *zap.Logger
	events   workflow.EventRecorder
	recorder Recorder
	progress *Progress
	now      func() time.Time
}

type Option func(*Runner)

func WithLedger(l Ledger) Option {
	return func(r *Runner) {
		if l != nil {
			r.ledger = l
		}
	}
}

func WithEvents(e workflow.EventRecorder) Option {
	return func(r *Runner) {
		if e != nil {
			r.events = e
		}
	}
}

func WithRecorder(rec Recorder) Option {
	return func(r *Runner) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

func WithProgress(p *Progress) Option {
	return func(r *Runner) {
		r.progress = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

func New(site Site, wf Selector, rc RunContext, cfg Config, log *zap.Logger, opts ...Option) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 999
	}
	if rc.Pause == nil {
		rc.Pause = noPause{}
	}
	if rc.Pacer == nil {
		rc.Pacer = noPacer{}
	}
	r := &Runner{
		site:     site,
		wf:       wf,
		ledger:   memLedger{},
		rc:       rc,
		cfg:      cfg,
		log:      log,
		events:   noEvents{},
		recorder: NopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run обходит страницы до MaxPages или пока NextPage не сообщит, что страниц больше нет.
// Ошибку возвращает только некорректная конфигурация цели; итоги элементов прогон не прерывают.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString(), Kind: r.cfg.Kind, StartedAt: r.now()}
	return r.run(ctx, sum)
}

// RunWithID то же, что Run, но с заранее выданным идентификатором прогона.
func (r *Runner) RunWithID(ctx context.Context, runID string) (Summary, error) {
	sum := Summary{RunID: runID, Kind: r.cfg.Kind, StartedAt: r.now()}
	return r.run(ctx, sum)
}

func (r *Runner) run(ctx context.Context, sum Summary) (Summary, error) {
	if r.cfg.RequireTarget {
		if err := r.cfg.Target.Validate(); err != nil {
			sum.FinishedAt = r.now()
			return sum, err
		}
	}

	log := r.log.With(zap.String("run_id", sum.RunID), zap.String("kind", sum.Kind))
	r.progress.update(func(s *Snapshot) {
		*s = Snapshot{RunID: sum.RunID, Kind: sum.Kind, Running: true, StartedAt: sum.StartedAt}
	})
	if err := r.recorder.StartRun(ctx, sum.RunID, r.cfg.Kind, r.cfg.Target.String(), r.cfg.DryRun); err != nil {
		log.Warn("Не удалось записать начало прогона", zap.Error(err))
	}
	r.events.Record("run_start", zap.String("target", r.cfg.Target.String()), zap.Bool("dry_run", r.cfg.DryRun))

	fatal := r.loop(ctx, log, &sum)

	sum.FinishedAt = r.now()
	sum.Interrupted = ctx.Err() != nil
	r.progress.update(func(s *Snapshot) {
		s.Running = false
		s.Counters = sum.Counters
	})
	r.events.Record("run_end", zap.Int("pages", sum.Pages), zap.Int("seen", sum.Counters.Seen),
		zap.Int("failed", sum.Counters.Failed), zap.Int("unknown", sum.Counters.Unknown),
		zap.Bool("interrupted", sum.Interrupted))

	// Запись итога не должна зависеть от отменённого контекста прогона.
	if err := r.recorder.FinishRun(context.WithoutCancel(ctx), sum); err != nil {
		log.Warn("Не удалось записать итог прогона", zap.Error(err))
	}
	log.Info("Прогон завершён", zap.Stringer("counters", sum.Counters), zap.Int("pages", sum.Pages))
	return sum, fatal
}

func (r *Runner) loop(ctx context.Context, log *zap.Logger, sum *Summary) error {
	if r.cfg.InitialDelay > 0 {
		if err := r.rc.Pacer.Sleep(ctx, pacing.Range{Min: r.cfg.InitialDelay, Max: r.cfg.InitialDelay}); err != nil {
			return nil
		}
	}

	for page := 1; page <= r.cfg.MaxPages; page++ {
		if ctx.Err() != nil {
			return nil
		}
		r.progress.update(func(s *Snapshot) { s.Page = page })

		items, err := r.site.Items(ctx)
		if err != nil {
			log.Warn("Не удалось получить элементы страницы", zap.Int("page", page), zap.Error(err))
			return nil
		}
		log.Info("Страница", zap.Int("page", page), zap.Int("items", len(items)))
		r.events.Record("page_scan_start", zap.Int("page", page), zap.Int("count", len(items)))

		var pc Counters
		stop, fatal := r.page(ctx, log, page, items, &pc, sum)
		sum.Counters.Add(pc)
		sum.Pages++
		r.events.Record("page_scan_end", zap.Int("page", page), zap.Int("seen", pc.Seen),
			zap.Int("succeeded", pc.Succeeded), zap.Bool("dry_run", r.cfg.DryRun))
		if stop || fatal != nil {
			return fatal
		}

		if page == r.cfg.MaxPages {
			log.Info("Достигнут лимит страниц", zap.Int("max_pages", r.cfg.MaxPages))
			return nil
		}
		more, err := r.site.NextPage(ctx)
		if err != nil {
			log.Warn("Переход на следующую страницу не удался", zap.Error(err))
			return nil
		}
		if !more {
			log.Info("Следующей страницы нет", zap.Int("page", page))
			return nil
		}
		if err := r.rc.Pacer.Sleep(ctx, r.cfg.PagePause); err != nil {
			return nil
		}
	}
	return nil
}

// page обрабатывает элементы одной страницы. stop=true означает, что прогон надо прекратить.
func (r *Runner) page(ctx context.Context, log *zap.Logger, page int, items []Item, pc *Counters, sum *Summary) (bool, error) {
	for _, it := range items {
		if ctx.Err() != nil {
			return true, nil
		}
		if err := r.rc.Pause.Wait(ctx); err != nil {
			return true, nil
		}

		rec, err := r.item(ctx, log, page, it)
		if err != nil {
			return true, err
		}

		if rec.Outcome == OutcomeSkipped {
			pc.Skip()
		} else {
			pc.Record(outcomeOf(rec.Outcome))
		}
		if rec.Outcome == workflow.Failed.String() || rec.Outcome == workflow.Unknown.String() {
			sum.Failed = append(sum.Failed, rec)
		}

		total := sum.Counters
		total.Add(*pc)
		r.progress.update(func(s *Snapshot) {
			s.Item = it.ID
			s.LastOutcome = rec.Outcome
			s.Counters = total
		})
		if err := r.recorder.RecordItem(context.WithoutCancel(ctx), sum.RunID, rec); err != nil {
			log.Debug("Не удалось записать итог элемента", zap.Error(err))
		}

		if ctx.Err() != nil {
			return true, nil
		}
		if err := r.rc.Pacer.Sleep(ctx, r.cfg.ItemPause); err != nil {
			return true, nil
		}
	}
	return false, nil
}

func (r *Runner) item(ctx context.Context, log *zap.Logger, page int, it Item) (ItemRecord, error) {
	rec := ItemRecord{ItemID: it.ID, URL: it.URL, Page: page, At: r.now()}
	ilog := log.With(zap.String("item", it.ID), zap.Int("page", page))

	if it.ID != "" && r.ledger.Has(it.ID) {
		ilog.Debug("Уже обработан ранее, пропуск")
		r.events.Record("item_skip", zap.String("item", it.ID), zap.String("reason", "ledger"))
		rec.Outcome, rec.Reason = OutcomeSkipped, "уже в журнале"
		return rec, nil
	}
	if r.cfg.DryRun {
		ilog.Info("Пробный прогон: элемент не открывается")
		r.events.Record("item_skip", zap.String("item", it.ID), zap.String("reason", "dry_run"))
		rec.Outcome, rec.Reason = OutcomeSkipped, "пробный прогон"
		return rec, nil
	}

	// Начатый элемент доводится до итога: остановка проверяется только между элементами,
	// а каждое ожидание адаптера ограничено собственным таймаутом.
	ctx = context.WithoutCancel(ctx)

	dlg, err := r.site.Open(ctx, it)
	if errors.Is(err, ErrAlreadyDone) {
		ilog.Info("Действие уже выполнено ранее")
		r.events.Record("item_already_done", zap.String("item", it.ID))
		r.site.Dismiss(ctx)
		rec.Outcome, rec.Phase = workflow.AlreadyDone.String(), string(workflow.PhaseEntry)
		return rec, nil
	}
	if err != nil {
		ilog.Warn("Не удалось открыть окно действия", zap.Error(err))
		r.events.Record("item_open_failed", zap.String("item", it.ID), zap.String("error", err.Error()))
		r.site.Dismiss(ctx)
		rec.Outcome, rec.Phase, rec.Reason = OutcomeSkipped, string(workflow.PhaseEntry), err.Error()
		return rec, nil
	}

	res, err := r.wf.SelectAndConfirm(ctx, dlg, r.cfg.Target)
	r.site.Dismiss(ctx)
	switch {
	case workflow.IsKind(err, workflow.KindConfiguration):
		ilog.Error("Некорректная цель", zap.Error(err))
		return rec, err
	case err != nil:
		ilog.Warn("Элемент пропущен", zap.Error(err))
		rec.Outcome, rec.Phase, rec.Reason = OutcomeSkipped, string(workflow.PhaseEntry), err.Error()
		return rec, nil
	}

	rec.Outcome = res.Outcome.String()
	rec.Phase = string(res.Phase)
	rec.Step = res.Step
	rec.Reason = res.Reason
	rec.Implicit = res.Implicit
	ilog.Info("Итог элемента", zap.String("outcome", rec.Outcome), zap.String("phase", rec.Phase),
		zap.String("step", rec.Step), zap.Bool("implicit", rec.Implicit))

	if res.Outcome == workflow.Succeeded && it.ID != "" {
		if err := r.ledger.Add(it.ID, it.URL, r.now()); err != nil {
			ilog.Warn("Не удалось обновить журнал", zap.Error(err))
		} else {
			r.events.Record("ledger_add", zap.String("item", it.ID), zap.String("url", it.URL))
		}
	}
	return rec, nil
}

func outcomeOf(s string) workflow.Outcome {
	for _, o := range []workflow.Outcome{workflow.Succeeded, workflow.AlreadyDone, workflow.Failed} {
		if o.String() == s {
			return o
		}
	}
	return workflow.Unknown
}

type noPause struct{}

func (noPause) Wait(ctx context.Context) error { return ctx.Err() }

type noPacer struct{}

func (noPacer) Sleep(ctx context.Context, _ pacing.Range) error { return ctx.Err() }

type noEvents struct{}

func (noEvents) Record(string, ...zap.Field) {}

type memLedger struct{}

func (memLedger) Has(string) bool                     { return false }
func (memLedger) Add(string, string, time.Time) error { return nil }
