package workflow

// Outcome итог обработки одного элемента.
type Outcome int

const (
	Unknown Outcome = iota
	Succeeded
	AlreadyDone
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case AlreadyDone:
		return "already_done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Phase этап, на котором определился итог.
type Phase string

const (
	PhaseEntry     Phase = "entry"
	PhaseSelection Phase = "selection"
	PhaseSubmit    Phase = "submit"
)

type Result struct {
	Outcome Outcome
	Phase   Phase
	Step    string // стратегия, после которой выбор прошёл проверку
	Reason  string
	// Implicit итог выведен из закрытия модального окна без явного сигнала.
	Implicit bool
	State    ControlState
}
