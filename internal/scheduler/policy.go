package scheduler

import (
	"fmt"
	"strings"
)

type State int32

const (
	StateIdle State = iota
	StateInSession
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateInSession:
		return "IN_SESSION"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// RunPolicy: работать непрерывно или остановиться после одного периода.
type RunPolicy int

const (
	RunContinuous RunPolicy = iota
	RunSinglePeriod
)

func ParseRunPolicy(s string) (RunPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continuous":
		return RunContinuous, nil
	case "single":
		return RunSinglePeriod, nil
	}
	return 0, fmt.Errorf("режим %q: ожидается continuous|single", s)
}

func (p RunPolicy) String() string {
	if p == RunSinglePeriod {
		return "single"
	}
	return "continuous"
}

// ErrorPolicy решает, что делать с ошибкой итерации: остановиться или ждать следующего опроса.
type ErrorPolicy int

const (
	StopOnError ErrorPolicy = iota
	ContinueOnError
)

func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stop":
		return StopOnError, nil
	case "continue":
		return ContinueOnError, nil
	}
	return 0, fmt.Errorf("политика ошибок %q: ожидается stop|continue", s)
}

func (p ErrorPolicy) String() string {
	if p == ContinueOnError {
		return "continue"
	}
	return "stop"
}
