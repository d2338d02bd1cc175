// Package bufview keeps renderer-side views over kernel-owned buffers valid
// across kernel reallocation.
//
// A view is only safe to read while its cached address matches the address
// the kernel currently reports. Refresh must run after every structural edit
// and before the next read.
package bufview

import (
	"errors"
	"fmt"
	"log/slog"

	"voro-editor/internal/kernel"
)

// ErrStaleView is returned when a view is read after the kernel moved the
// buffer it was taken from.
var ErrStaleView = errors.New("bufview: stale view")

// ErrNoView is returned when a buffer class has no bound view.
var ErrNoView = errors.New("bufview: no view")

// Source reports the current state of kernel buffers.
type Source interface {
	Buffer(c kernel.BufferClass) kernel.BufferInfo
	BufferData(c kernel.BufferClass) []float32
	HasColors() bool
}

// Binder is the renderer side of a view. Bind attaches (or replaces) the
// attribute backing a class; Unbind removes it entirely.
type Binder interface {
	Bind(c kernel.BufferClass, data []float32, itemSize int)
	Unbind(c kernel.BufferClass)
	SetDrawRange(c kernel.BufferClass, count int)
	MarkNeedsUpdate(c kernel.BufferClass)
}

// View is a typed window into a kernel buffer.
type View struct {
	Class    kernel.BufferClass
	Addr     uint64
	Data     []float32
	Capacity int
	Count    int
}

func (v View) bound() bool { return v.Addr != 0 }

// Manager owns one view per buffer class.
type Manager struct {
	src       Source
	binder    Binder
	views     [kernel.NumBufferClasses]View
	rebuilds  [kernel.NumBufferClasses]int
	onRebuild func(kernel.BufferClass)
	logger    *slog.Logger
}

// NewManager creates a manager with no bound views.
func NewManager(src Source, binder Binder, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if binder == nil {
		binder = nopBinder{}
	}
	return &Manager{src: src, binder: binder, logger: logger}
}

// OnRebuild installs a hook called after each view rebuild.
func (m *Manager) OnRebuild(fn func(kernel.BufferClass)) { m.onRebuild = fn }

// Refresh brings the views of the given classes, or of every class when
// none are given, in line with the kernel. A view is rebuilt only when the
// kernel's address changed; otherwise only the draw range is updated.
func (m *Manager) Refresh(classes ...kernel.BufferClass) {
	if len(classes) == 0 {
		classes = allClasses
	}
	for _, c := range classes {
		m.refresh(c)
	}
}

var allClasses = func() []kernel.BufferClass {
	out := make([]kernel.BufferClass, kernel.NumBufferClasses)
	for i := range out {
		out[i] = kernel.BufferClass(i)
	}
	return out
}()

func (m *Manager) refresh(c kernel.BufferClass) {
	if c < 0 || int(c) >= kernel.NumBufferClasses {
		return
	}
	v := &m.views[c]
	info := m.src.Buffer(c)

	if info.Addr == 0 || (c == kernel.TriangleColors && !m.src.HasColors()) {
		if v.bound() {
			m.binder.Unbind(c)
			*v = View{Class: c}
			m.logger.Debug("view detached", "buffer", c.String())
		}
		return
	}

	if info.Addr != v.Addr {
		data := m.src.BufferData(c)
		capacity := min(info.Capacity, len(data)/c.ItemSize())
		*v = View{Class: c, Addr: info.Addr, Data: data[:capacity*c.ItemSize()], Capacity: capacity}
		m.binder.Bind(c, v.Data, c.ItemSize())
		m.rebuilds[c]++
		if m.onRebuild != nil {
			m.onRebuild(c)
		}
		m.logger.Debug("view rebuilt", "buffer", c.String(), "addr", fmt.Sprintf("%#x", info.Addr), "capacity", capacity)
	}

	count := info.Count
	if count > v.Capacity {
		m.logger.Warn("draw range exceeds capacity", "buffer", c.String(), "count", count, "capacity", v.Capacity)
		count = v.Capacity
	}
	v.Count = count
	m.binder.SetDrawRange(c, count)
	m.binder.MarkNeedsUpdate(c)
}

// Read returns the draw-range prefix of a view. It fails with ErrStaleView
// if the kernel reallocated the buffer since the last Refresh.
func (m *Manager) Read(c kernel.BufferClass) ([]float32, error) {
	if c < 0 || int(c) >= kernel.NumBufferClasses {
		return nil, fmt.Errorf("%w: %s", ErrNoView, c)
	}
	v := m.views[c]
	if !v.bound() {
		return nil, fmt.Errorf("%w: %s", ErrNoView, c)
	}
	if cur := m.src.Buffer(c).Addr; cur != v.Addr {
		m.logger.Warn("stale view read", "buffer", c.String(),
			"cached", fmt.Sprintf("%#x", v.Addr), "current", fmt.Sprintf("%#x", cur))
		return nil, fmt.Errorf("%w: %s", ErrStaleView, c)
	}
	return v.Data[:v.Count*c.ItemSize()], nil
}

// View returns a copy of the view descriptor for c.
func (m *Manager) View(c kernel.BufferClass) View {
	if c < 0 || int(c) >= kernel.NumBufferClasses {
		return View{Class: c}
	}
	return m.views[c]
}

// Rebuilds returns how many times the view for c was rebuilt.
func (m *Manager) Rebuilds(c kernel.BufferClass) int {
	if c < 0 || int(c) >= kernel.NumBufferClasses {
		return 0
	}
	return m.rebuilds[c]
}

// Detach unbinds every view.
func (m *Manager) Detach() {
	for i := range m.views {
		if m.views[i].bound() {
			m.binder.Unbind(kernel.BufferClass(i))
		}
		m.views[i] = View{Class: kernel.BufferClass(i)}
	}
}

// Reset detaches every view and switches to a new source.
func (m *Manager) Reset(src Source) {
	m.Detach()
	m.src = src
}

// Bounds returns the bounding sphere of a position buffer's draw range. A
// non-finite radius is logged and reported as not ok.
func (m *Manager) Bounds(c kernel.BufferClass) (Sphere, bool) {
	data, err := m.Read(c)
	if err != nil || c.ItemSize() != 3 {
		return Sphere{}, false
	}
	s := BoundingSphere(data, len(data)/3)
	if !s.Finite() {
		m.logger.Warn("bounding sphere radius is not finite; positions likely contain NaN", "buffer", c.String())
		return s, false
	}
	return s, true
}

type nopBinder struct{}

func (nopBinder) Bind(kernel.BufferClass, []float32, int) {}
func (nopBinder) Unbind(kernel.BufferClass)               {}
func (nopBinder) SetDrawRange(kernel.BufferClass, int)    {}
func (nopBinder) MarkNeedsUpdate(kernel.BufferClass)      {}
