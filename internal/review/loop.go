// Package review runs the human-in-the-loop review of a commit proposal and
// hands accepted messages to the version-control collaborator.
package review

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gitsensei/sensei/internal/commitmsg"
	"github.com/gitsensei/sensei/pkg/models"
)

// State is a review loop state
type State int

const (
	StatePresenting State = iota
	StateEditing
	StateRetrying
	StateAccepted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StatePresenting:
		return "presenting"
	case StateEditing:
		return "editing"
	case StateRetrying:
		return "retrying"
	case StateAccepted:
		return "accepted"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateAborted
}

// DefaultMaxRetries caps retries per review
const DefaultMaxRetries = 5

var (
	// ErrRetryExhausted is returned when a retry is requested after the cap
	ErrRetryExhausted = errors.New("retry limit reached")
	// ErrInvalidTransition is returned for a decision the current state cannot take
	ErrInvalidTransition = errors.New("invalid review transition")
)

// Loop is the review state machine. The proposal is a value replaced
// wholesale on each transition; nothing mutates it in place.
type Loop struct {
	state      State
	proposal   models.CommitProposal
	retries    int
	maxRetries int
}

// NewLoop starts in Presenting with the first proposal
func NewLoop(initial models.CommitProposal, maxRetries int) *Loop {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Loop{state: StatePresenting, proposal: initial, maxRetries: maxRetries}
}

func (l *Loop) State() State                    { return l.state }
func (l *Loop) Proposal() models.CommitProposal { return l.proposal }
func (l *Loop) Retries() int                    { return l.retries }

// RetriesLeft is how many retries can still be requested
func (l *Loop) RetriesLeft() int {
	return max(l.maxRetries-l.retries, 0)
}

// CanRetry reports whether retry is still offered
func (l *Loop) CanRetry() bool {
	return l.RetriesLeft() > 0
}

// Options lists the decisions offered in the current state
func (l *Loop) Options() []models.DecisionKind {
	if l.state != StatePresenting {
		return nil
	}
	opts := []models.DecisionKind{models.DecisionAccept, models.DecisionEdit}
	if l.CanRetry() {
		opts = append(opts, models.DecisionRetry)
	}
	return append(opts, models.DecisionAbort)
}

// Decide applies a user decision in Presenting.
//
// Edit validates the replacement text and returns to Presenting: an invalid
// edit leaves the proposal and retry count untouched and returns a
// *models.ValidationError. Text that parses to the current proposal keeps it
// unchanged. Retry moves to Retrying until CompleteRetry delivers the new
// proposal.
func (l *Loop) Decide(d models.ReviewDecision) (State, error) {
	if l.state != StatePresenting {
		return l.state, fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, d.Kind, l.state)
	}
	if !slices.Contains(l.Options(), d.Kind) {
		if d.Kind == models.DecisionRetry {
			return l.state, ErrRetryExhausted
		}
		return l.state, fmt.Errorf("%w: %s", ErrInvalidTransition, d.Kind)
	}

	switch d.Kind {
	case models.DecisionAccept:
		l.state = StateAccepted
	case models.DecisionAbort:
		l.state = StateAborted
	case models.DecisionEdit:
		l.state = StateEditing
		err := l.applyEdit(d.Text)
		l.state = StatePresenting
		if err != nil {
			return l.state, err
		}
	case models.DecisionRetry:
		l.retries++
		l.state = StateRetrying
	}
	return l.state, nil
}

func (l *Loop) applyEdit(text string) error {
	edited, err := commitmsg.ParseValid(text)
	if err != nil {
		return err
	}
	if sameMessage(edited, l.proposal) {
		return nil
	}
	edited.Source = models.SourceUser
	l.proposal = edited
	return nil
}

// CompleteRetry delivers the regenerated proposal and returns to Presenting
func (l *Loop) CompleteRetry(p models.CommitProposal) error {
	if l.state != StateRetrying {
		return fmt.Errorf("%w: retry result in state %s", ErrInvalidTransition, l.state)
	}
	l.proposal = p
	l.state = StatePresenting
	return nil
}

// CancelRetry returns to Presenting with the previous proposal, keeping the
// retry counted
func (l *Loop) CancelRetry() {
	if l.state == StateRetrying {
		l.state = StatePresenting
	}
}

func sameMessage(a, b models.CommitProposal) bool {
	return a.String() == b.String()
}
