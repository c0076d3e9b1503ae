// Package contact implements the contact form: its three fields, per-field
// validation errors and the time-limited success acknowledgment.
package contact

import "time"

// SuccessWindow is how long the success banner stays up after a submit.
const SuccessWindow = 6000 * time.Millisecond

// State is the whole form state.
type State struct {
	Fields    Fields
	Errors    Errors
	Submitted bool
}

// Phase is the form's observable mode.
type Phase int

const (
	PhaseEditing Phase = iota
	PhaseInvalid
	PhaseSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseInvalid:
		return "invalid"
	case PhaseSubmitted:
		return "submitted"
	}
	return "editing"
}

// Phase derives the mode from the state.
func (s State) Phase() Phase {
	switch {
	case s.Submitted:
		return PhaseSubmitted
	case len(s.Errors) > 0:
		return PhaseInvalid
	}
	return PhaseEditing
}

// Error returns the message for the named input, or "".
func (s State) Error(name string) string {
	return s.Errors[Field(name)]
}

// Value returns the value of the named input.
func (s State) Value(name string) string {
	return s.Fields.Get(Field(name))
}

// Action is an input to Reduce.
type Action interface {
	isAction()
}

// UpdateField records a keystroke.
type UpdateField struct {
	Field Field
	Value string
}

// Submit validates and, when valid, accepts the form.
type Submit struct{}

// ResetSuccess hides the success banner once the window has passed.
type ResetSuccess struct{}

func (UpdateField) isAction()  {}
func (Submit) isAction()       {}
func (ResetSuccess) isAction() {}

// Effect is work the owner of the state must perform after a reduction.
type Effect int

const (
	EffectNone Effect = iota
	EffectScheduleReset
)

// Reduce is the form's only state transition function. The input state is
// never modified.
func Reduce(s State, a Action) (State, Effect) {
	switch a := a.(type) {
	case UpdateField:
		if _, ok := ParseField(string(a.Field)); !ok {
			return s, EffectNone
		}
		next := State{
			Fields:    s.Fields.With(a.Field, a.Value),
			Errors:    copyErrors(s.Errors),
			Submitted: s.Submitted,
		}
		delete(next.Errors, a.Field)
		return next, EffectNone

	case Submit:
		errs := Validate(s.Fields)
		if len(errs) > 0 {
			return State{Fields: s.Fields, Errors: errs, Submitted: false}, EffectNone
		}
		return State{Errors: Errors{}, Submitted: true}, EffectScheduleReset

	case ResetSuccess:
		next := s
		next.Errors = copyErrors(s.Errors)
		next.Submitted = false
		return next, EffectNone
	}
	return s, EffectNone
}

func copyErrors(e Errors) Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
