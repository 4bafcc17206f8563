package workflow

import (
	"errors"
	"fmt"
)

// Mode tells the remote store how a transition was chosen.
type Mode string

const (
	// ModeProcess transitions follow the guided graph.
	ModeProcess Mode = "process"
	// ModeManual transitions are operator overrides to any other status.
	ModeManual Mode = "manual"
)

func (m Mode) Valid() bool { return m == ModeProcess || m == ModeManual }

// ErrIllegalTransition is returned when a target status is not reachable from
// the current one under the requested mode.
var ErrIllegalTransition = errors.New("illegal status transition")

// Action is a guided transition offered to the operator.
type Action struct {
	Next  Status `json:"next_status"`
	Label string `json:"label"`
	Hint  string `json:"hint"`
	Icon  string `json:"icon"`
}

var primary = map[Status]Action{
	StatusDraft:             {Next: StatusSent, Label: "Send to client", Hint: "Mark the quote as delivered to the client", Icon: "send"},
	StatusSent:              {Next: StatusApproved, Label: "Mark approved", Hint: "The client accepted the quote", Icon: "check-circle"},
	StatusRevisionRequested: {Next: StatusSent, Label: "Resend", Hint: "Send the revised quote back to the client", Icon: "refresh"},
	StatusApproved:          {Next: StatusScheduled, Label: "Schedule job", Hint: "Pick a date for the work", Icon: "calendar"},
	StatusScheduled:         {Next: StatusInProgress, Label: "Start job", Hint: "Work has started on site", Icon: "play"},
	StatusInProgress:        {Next: StatusCompleted, Label: "Complete job", Hint: "Work is finished", Icon: "flag"},
	StatusCompleted:         {Next: StatusPaid, Label: "Register payment", Hint: "The client paid the quote", Icon: "cash"},
}

var (
	requestChanges = Action{Next: StatusRevisionRequested, Label: "Changes requested", Hint: "The client asked for changes", Icon: "edit"}
	cancel         = Action{Next: StatusCancelled, Label: "Cancel", Hint: "Stop the quote", Icon: "x-circle"}
)

var secondary = map[Status][]Action{
	StatusSent:       {requestChanges, cancel},
	StatusApproved:   {cancel},
	StatusScheduled:  {cancel},
	StatusInProgress: {cancel},
}

// PrimaryAction returns the single guided forward transition, or nil for
// terminal statuses.
func PrimaryAction(raw string) *Action {
	a, ok := primary[Normalize(raw)]
	if !ok {
		return nil
	}
	return &a
}

// SecondaryActions returns the side transitions available next to the
// primary one.
func SecondaryActions(raw string) []Action {
	acts := secondary[Normalize(raw)]
	out := make([]Action, len(acts))
	copy(out, acts)
	return out
}

// ManualOptions returns every canonical status except the current one.
func ManualOptions(raw string) []Status {
	cur := Normalize(raw)
	out := make([]Status, 0, len(definitions)-1)
	for _, d := range definitions {
		if d.status != cur {
			out = append(out, d.status)
		}
	}
	return out
}

// ProcessTargets lists the statuses reachable through guided actions.
func ProcessTargets(raw string) []Status {
	var out []Status
	if a := PrimaryAction(raw); a != nil {
		out = append(out, a.Next)
	}
	for _, a := range SecondaryActions(raw) {
		out = append(out, a.Next)
	}
	return out
}

// CanTransition reports whether to is reachable from the raw current status
// under mode.
func CanTransition(from string, to Status, mode Mode) bool {
	if !to.Valid() {
		return false
	}
	var targets []Status
	switch mode {
	case ModeProcess:
		targets = ProcessTargets(from)
	case ModeManual:
		targets = ManualOptions(from)
	default:
		return false
	}
	for _, t := range targets {
		if t == to {
			return true
		}
	}
	return false
}

// CheckTransition is CanTransition returning a wrapped ErrIllegalTransition.
func CheckTransition(from string, to Status, mode Mode) error {
	if CanTransition(from, to, mode) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s (%s)", ErrIllegalTransition, Normalize(from), to, mode)
}
