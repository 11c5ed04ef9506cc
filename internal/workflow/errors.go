package workflow

import (
	"context"
	"errors"
	"fmt"

	"talentAgent/internal/dom"
)

// Kind класс ошибки сценария.
type Kind int

const (
	KindAdapterTimeout Kind = iota
	KindVerificationMismatch
	KindPreconditionViolation
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindAdapterTimeout:
		return "adapter_timeout"
	case KindVerificationMismatch:
		return "verification_mismatch"
	case KindPreconditionViolation:
		return "precondition_violation"
	case KindConfiguration:
		return "configuration_error"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind сообщает, что в цепочке err есть *Error нужного класса.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// classify переводит ошибку адаптера в таксономию сценария.
// Любой сбой адаптера (таймаут, неудачный клик, пропавший элемент) считается
// восстановимым и лишь продвигает лестницу запасных вариантов.
func classify(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	msg := "операция не завершилась"
	switch {
	case errors.Is(err, dom.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		msg = "таймаут ожидания"
	case errors.Is(err, dom.ErrClickFailed):
		msg = "клик не прошёл"
	case errors.Is(err, dom.ErrNotFound):
		msg = "элемент не найден"
	}

	return &Error{Kind: KindAdapterTimeout, Op: op, Message: msg, Err: err}
}

func mismatch(op string, state ControlState) *Error {
	return &Error{
		Kind:    KindVerificationMismatch,
		Op:      op,
		Message: fmt.Sprintf("значение не закрепилось (committed=%q, label=%q)", state.Committed, state.Label),
	}
}
