package app

import (
	"sync"
	"time"

	"github.com/bft-labs/aq2rdb/internal/domain"
	"github.com/bft-labs/aq2rdb/internal/ports"
)

// ShutdownTimeout is the maximum time to wait for graceful shutdown.
const ShutdownTimeout = 30 * time.Second

// State represents the lifecycle state of a long-running command.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateServing
	StateStopping
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateServing:
		return "Serving"
	case StateStopping:
		return "Stopping"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// StateObserver is called when the lifecycle state changes.
type StateObserver interface {
	OnStateChange(previous, current State, reason string)
}

// Lifecycle is the state machine of the serve and watch commands.
type Lifecycle struct {
	mu       sync.RWMutex
	state    State
	logger   ports.Logger
	observer StateObserver
}

// NewLifecycle creates a lifecycle in StateStopped. observer may be nil.
func NewLifecycle(logger ports.Logger, observer StateObserver) *Lifecycle {
	return &Lifecycle{
		state:    StateStopped,
		logger:   logger,
		observer: observer,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Serving reports whether requests are being accepted.
func (l *Lifecycle) Serving() bool {
	return l.State() == StateServing
}

// TransitionTo moves to next. It returns domain.ErrNotRunning or
// domain.ErrAlreadyRunning when the transition is not allowed.
func (l *Lifecycle) TransitionTo(next State, reason string) error {
	l.mu.Lock()
	prev := l.state
	if err := checkTransition(prev, next); err != nil {
		l.mu.Unlock()
		return err
	}
	l.state = next
	l.mu.Unlock()

	if l.observer != nil {
		l.observer.OnStateChange(prev, next, reason)
	}
	l.logger.Info("state transition",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
	return nil
}

func checkTransition(from, to State) error {
	switch from {
	case StateStopped, StateFailed:
		if to != StateStarting {
			return domain.ErrNotRunning
		}
	case StateStarting:
		if to != StateServing && to != StateStopping && to != StateFailed {
			return domain.ErrAlreadyRunning
		}
	case StateServing:
		if to != StateStopping && to != StateFailed {
			return domain.ErrAlreadyRunning
		}
	case StateStopping:
		if to != StateStopped && to != StateFailed {
			return domain.ErrAlreadyRunning
		}
	}
	return nil
}

// CanStart returns true if the command can be started.
func (l *Lifecycle) CanStart() bool {
	s := l.State()
	return s == StateStopped || s == StateFailed
}

// CanStop returns true if the command can be stopped.
func (l *Lifecycle) CanStop() bool {
	s := l.State()
	return s == StateServing || s == StateStarting
}
