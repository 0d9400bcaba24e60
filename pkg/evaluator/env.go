package evaluator

import (
	"errors"
	"fmt"
)

// ErrStaleHandle is returned when a handle outlives the scope that owned it.
var ErrStaleHandle = errors.New("stale value handle")

// Handle addresses one value cell of an Environment. A handle stays valid
// while the scope frame that declared it is on the stack.
type Handle struct {
	index int
	gen   uint32
}

// String renders the handle for debugging.
func (h Handle) String() string {
	return fmt.Sprintf("#%d@%d", h.index, h.gen)
}

type cell struct {
	value Value
	gen   uint32
	live  bool
}

// frame maps names to cell indices, remembering declaration order.
type frame struct {
	names []string
	slots map[string]int
}

func newFrame() *frame {
	return &frame{slots: make(map[string]int)}
}

// Environment is a stack of scope frames over an arena of value cells.
// The innermost frame is last. The stack always holds at least the global
// frame. An Environment is not safe for concurrent use.
type Environment struct {
	cells  []cell
	free   []int
	frames []*frame
}

// NewEnvironment creates an environment holding just the global frame.
func NewEnvironment() *Environment {
	return &Environment{frames: []*frame{newFrame()}}
}

// Depth returns the number of frames on the stack, global frame included.
func (e *Environment) Depth() int {
	return len(e.frames)
}

// Live returns the number of cells currently in use.
func (e *Environment) Live() int {
	return len(e.cells) - len(e.free)
}

// Push opens a new innermost frame.
func (e *Environment) Push() {
	e.frames = append(e.frames, newFrame())
}

// Pop closes the innermost frame, releases its cells and returns its
// bindings as a scope value. Popping the global frame is a programming
// error and panics.
func (e *Environment) Pop() ScopeValue {
	if len(e.frames) <= 1 {
		panic("evaluator: pop of global scope")
	}
	top := e.frames[len(e.frames)-1]
	e.frames[len(e.frames)-1] = nil
	e.frames = e.frames[:len(e.frames)-1]

	scope := e.snapshot(top)
	for _, name := range top.names {
		idx := top.slots[name]
		c := &e.cells[idx]
		c.value = nil
		c.live = false
		c.gen++
		e.free = append(e.free, idx)
	}
	return scope
}

func (e *Environment) alloc(v Value) int {
	if n := len(e.free); n > 0 {
		idx := e.free[n-1]
		e.free = e.free[:n-1]
		e.cells[idx].value = v
		e.cells[idx].live = true
		return idx
	}
	e.cells = append(e.cells, cell{value: v, live: true})
	return len(e.cells) - 1
}

// Declare binds name to v in the innermost frame. Declaring a name the
// frame already holds overwrites that binding in place.
func (e *Environment) Declare(name string, v Value) Handle {
	top := e.frames[len(e.frames)-1]
	if idx, ok := top.slots[name]; ok {
		e.cells[idx].value = v
		return Handle{index: idx, gen: e.cells[idx].gen}
	}
	idx := e.alloc(v)
	top.slots[name] = idx
	top.names = append(top.names, name)
	return Handle{index: idx, gen: e.cells[idx].gen}
}

// Resolve finds the innermost binding of name.
func (e *Environment) Resolve(name string) (Handle, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if idx, ok := e.frames[i].slots[name]; ok {
			return Handle{index: idx, gen: e.cells[idx].gen}, true
		}
	}
	return Handle{}, false
}

// Lookup returns the value of the innermost binding of name.
func (e *Environment) Lookup(name string) (Value, bool) {
	h, ok := e.Resolve(name)
	if !ok {
		return nil, false
	}
	return e.cells[h.index].value, true
}

func (e *Environment) valid(h Handle) bool {
	return h.index >= 0 && h.index < len(e.cells) && e.cells[h.index].live && e.cells[h.index].gen == h.gen
}

// Load reads the cell h addresses.
func (e *Environment) Load(h Handle) (Value, error) {
	if !e.valid(h) {
		return nil, ErrStaleHandle
	}
	return e.cells[h.index].value, nil
}

// Store writes v into the cell h addresses. Every name bound to that cell
// observes the new value.
func (e *Environment) Store(h Handle, v Value) error {
	if !e.valid(h) {
		return ErrStaleHandle
	}
	e.cells[h.index].value = v
	return nil
}

func (e *Environment) snapshot(f *frame) ScopeValue {
	bindings := make([]Binding, len(f.names))
	for i, name := range f.names {
		bindings[i] = Binding{Name: name, Value: e.cells[f.slots[name]].value}
	}
	return ScopeValue{Bindings: bindings}
}

// Frame returns frame i as a scope value, 0 being the global frame.
func (e *Environment) Frame(i int) ScopeValue {
	return e.snapshot(e.frames[i])
}

// Global returns the global frame as a scope value.
func (e *Environment) Global() ScopeValue {
	return e.Frame(0)
}
