// Package preference owns the visitor's dark/light display choice.
//
// The state is a single boolean. It is initialised from a stored value when
// one exists, otherwise from the environment's color-scheme signal, otherwise
// false. Every change, including initialisation, is settled: persisted to the
// store and applied to the page root. NewDeferred is the one exception; it
// leaves an unresolved fallback unpersisted.
package preference

// Key is the storage key holding "true" or "false".
const Key = "darkMode"

// State is the preference controller's entire state.
type State struct {
	DarkMode bool
}

// Store is durable per-visitor storage. Load reports ok=false when nothing is
// stored or the stored value cannot be read.
type Store interface {
	Load() (value bool, ok bool)
	Save(value bool)
}

// Signal is the environment's "prefers dark" hint. ok=false means the signal
// is unavailable.
type Signal interface {
	PrefersDark() (dark bool, ok bool)
}

// Root receives the visual flag for the page root element.
type Root interface {
	SetDark(dark bool)
}

// Action is a user intent reduced into a new State.
type Action int

const (
	ActionToggle Action = iota + 1
)

// Source records where an initial value came from.
type Source int

const (
	SourceDefault Source = iota
	SourceStored
	SourceSignal
)

// Resolve returns the starting preference and its source. It has no side
// effects.
func Resolve(store Store, signal Signal) (bool, Source) {
	if store != nil {
		if v, ok := store.Load(); ok {
			return v, SourceStored
		}
	}
	if signal != nil {
		if dark, ok := signal.PrefersDark(); ok {
			return dark, SourceSignal
		}
	}
	return false, SourceDefault
}

// Initialize resolves the starting preference. It has no side effects.
func Initialize(store Store, signal Signal) bool {
	v, _ := Resolve(store, signal)
	return v
}

// Toggle flips the preference.
func Toggle(current bool) bool {
	return !current
}

// Reduce applies an action. Unknown actions leave the state unchanged.
func Reduce(s State, a Action) State {
	switch a {
	case ActionToggle:
		return State{DarkMode: Toggle(s.DarkMode)}
	}
	return s
}

// OnChange persists value and applies the root flag.
func OnChange(store Store, root Root, value bool) {
	if store != nil {
		store.Save(value)
	}
	if root != nil {
		root.SetDark(value)
	}
}

// Controller ties the state to its store and root sink. The settle hook runs
// once on creation and after every Dispatch.
type Controller struct {
	state    State
	source   Source
	deferred bool
	store    Store
	root     Root
}

// New initialises the preference and settles it.
func New(store Store, signal Signal, root Root) *Controller {
	v, src := Resolve(store, signal)
	c := &Controller{state: State{DarkMode: v}, source: src, store: store, root: root}
	c.settle()
	return c
}

// NewDeferred is New for a caller that can resolve the signal elsewhere.
// When neither a stored value nor the signal is available, the fallback is
// applied to the root but not persisted; Deferred reports true and the
// caller must finish settling (the page does it in the browser).
func NewDeferred(store Store, signal Signal, root Root) *Controller {
	v, src := Resolve(store, signal)
	c := &Controller{state: State{DarkMode: v}, source: src, store: store, root: root}
	if src == SourceDefault {
		c.deferred = true
		OnChange(nil, root, v)
		return c
	}
	c.settle()
	return c
}

// Source reports where the initial value came from.
func (c *Controller) Source() Source {
	return c.source
}

// Deferred reports whether settling the initial value was left to the caller.
// It becomes false once an action settles the state.
func (c *Controller) Deferred() bool {
	return c.deferred
}

// Dispatch reduces a into the current state and settles the result.
func (c *Controller) Dispatch(a Action) State {
	c.state = Reduce(c.state, a)
	c.deferred = false
	c.settle()
	return c.state
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) settle() {
	OnChange(c.store, c.root, c.state.DarkMode)
}
