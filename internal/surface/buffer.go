// Package surface provides an in-memory double-buffered drawing surface for
// the engine. Hosts size it, subscribe to presented frames and read the front
// buffer.
package surface

import (
	"sync"

	"github.com/vovakirdan/arcadeloop/internal/core"
)

// Buffer is a double-buffered engine.Surface. Frames are drawn into the back
// buffer and copied to the front buffer when they end.
//
// The buffer becomes ready on the first SetSize. Later size changes notify
// resize listeners right away; a frame already in progress keeps its size.
type Buffer struct {
	mu       sync.Mutex
	width    int
	height   int
	ready    bool
	released bool
	inFrame  bool

	back  *core.Screen
	front *core.Screen

	frames    uint64
	presented chan struct{}

	nextID   int
	onReady  map[int]func(width, height int)
	onResize map[int]func(newW, newH, oldW, oldH int)
}

// New creates an unsized buffer.
func New() *Buffer {
	return &Buffer{
		back:      core.NewScreen(0, 0),
		front:     core.NewScreen(0, 0),
		presented: make(chan struct{}, 1),
		onReady:   make(map[int]func(int, int)),
		onResize:  make(map[int]func(int, int, int, int)),
	}
}

// SetSize sets the surface dimensions. The first call makes the surface
// ready. Listeners run on the caller's goroutine after the buffer is unlocked.
func (b *Buffer) SetSize(width, height int) {
	width, height = max(width, 0), max(height, 0)

	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return
	}

	oldW, oldH := b.width, b.height
	b.width, b.height = width, height

	if !b.ready {
		b.ready = true
		fns := make([]func(int, int), 0, len(b.onReady))
		for _, fn := range b.onReady {
			fns = append(fns, fn)
		}
		clear(b.onReady)
		b.mu.Unlock()

		for _, fn := range fns {
			fn(width, height)
		}
		return
	}

	if oldW == width && oldH == height {
		b.mu.Unlock()
		return
	}
	fns := make([]func(int, int, int, int), 0, len(b.onResize))
	for _, fn := range b.onResize {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(width, height, oldW, oldH)
	}
}

// BeginFrame clears the back buffer at the current size and returns it.
func (b *Buffer) BeginFrame() *core.Screen {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.back.Resize(b.width, b.height)
	b.back.Clear()
	b.inFrame = true
	return b.back
}

// EndFrame publishes the back buffer. Without a frame in progress it does
// nothing.
func (b *Buffer) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inFrame {
		return
	}
	b.inFrame = false
	if b.released {
		return
	}

	b.front.CopyFrom(b.back)
	b.frames++
	select {
	case b.presented <- struct{}{}:
	default:
	}
}

// FrameInProgress reports whether BeginFrame was called without EndFrame.
func (b *Buffer) FrameInProgress() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inFrame
}

// Dimensions returns the current size.
func (b *Buffer) Dimensions() (width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

// Ready reports whether SetSize has been called.
func (b *Buffer) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// OnReady registers fn for the first SetSize, or calls it at once if the
// buffer is already ready.
func (b *Buffer) OnReady(fn func(width, height int)) (cancel func()) {
	b.mu.Lock()
	if b.ready && !b.released {
		w, h := b.width, b.height
		b.mu.Unlock()
		fn(w, h)
		return func() {}
	}

	id := b.nextID
	b.nextID++
	b.onReady[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.onReady, id)
	}
}

// OnResize registers fn for size changes after the buffer is ready.
func (b *Buffer) OnResize(fn func(newW, newH, oldW, oldH int)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.onResize[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.onResize, id)
	}
}

// Release drops all listeners and closes the presented channel. Frames ended
// afterwards are not published.
func (b *Buffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return
	}
	b.released = true
	clear(b.onReady)
	clear(b.onResize)
	close(b.presented)
}

// Released reports whether Release was called.
func (b *Buffer) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// Presented receives a value after frames are published. Notifications
// coalesce, and the channel is closed on Release.
func (b *Buffer) Presented() <-chan struct{} {
	return b.presented
}

// View returns a copy of the front buffer.
func (b *Buffer) View() *core.Screen {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := core.NewScreen(0, 0)
	s.CopyFrom(b.front)
	return s
}

// Frames returns the number of frames published so far.
func (b *Buffer) Frames() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}
