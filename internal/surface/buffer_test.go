package surface

import (
	"testing"
)

func TestOnReadyFiresOnFirstSize(t *testing.T) {
	b := New()

	var got [][2]int
	b.OnReady(func(w, h int) { got = append(got, [2]int{w, h}) })
	if len(got) != 0 {
		t.Fatal("OnReady fired before the buffer was sized")
	}

	b.SetSize(40, 12)
	b.SetSize(50, 12)
	if len(got) != 1 || got[0] != [2]int{40, 12} {
		t.Fatalf("ready calls = %v, expected one call with 40x12", got)
	}

	// Already ready: fires immediately.
	var late [2]int
	b.OnReady(func(w, h int) { late = [2]int{w, h} })
	if late != [2]int{50, 12} {
		t.Errorf("late OnReady got %v, expected [50 12]", late)
	}
}

func TestOnReadyCancel(t *testing.T) {
	b := New()
	called := false
	cancel := b.OnReady(func(int, int) { called = true })
	cancel()

	b.SetSize(10, 10)
	if called {
		t.Error("cancelled ready listener fired")
	}
}

func TestOnResize(t *testing.T) {
	b := New()
	var events [][4]int
	b.OnResize(func(nw, nh, ow, oh int) { events = append(events, [4]int{nw, nh, ow, oh}) })

	b.SetSize(20, 10) // ready, not a resize
	b.SetSize(20, 10) // unchanged
	b.SetSize(30, 15)

	if len(events) != 1 || events[0] != [4]int{30, 15, 20, 10} {
		t.Errorf("resize events = %v, expected [[30 15 20 10]]", events)
	}
}

func TestFramePublishing(t *testing.T) {
	b := New()
	b.SetSize(8, 2)

	dst := b.BeginFrame()
	if !b.FrameInProgress() {
		t.Fatal("frame should be in progress")
	}
	dst.DrawText(0, 0, "hello")

	if v := b.View(); v.Row(0) == "hello   " {
		t.Error("front buffer changed before EndFrame")
	}

	b.EndFrame()
	if b.FrameInProgress() {
		t.Error("frame should have ended")
	}
	if v := b.View(); v.Row(0) != "hello   " {
		t.Errorf("front row 0 = %q, expected %q", v.Row(0), "hello   ")
	}
	if b.Frames() != 1 {
		t.Errorf("Frames() = %d, expected 1", b.Frames())
	}

	select {
	case <-b.Presented():
	default:
		t.Error("Presented() should have a pending notification")
	}

	// Ending without a frame is a no-op.
	b.EndFrame()
	if b.Frames() != 1 {
		t.Errorf("Frames() = %d after stray EndFrame, expected 1", b.Frames())
	}
}

func TestResizeDuringFrame(t *testing.T) {
	b := New()
	b.SetSize(10, 5)

	dst := b.BeginFrame()
	b.SetSize(20, 8)
	if dst.Width() != 10 {
		t.Errorf("back buffer width changed mid-frame to %d", dst.Width())
	}
	b.EndFrame()

	dst = b.BeginFrame()
	if dst.Width() != 20 || dst.Height() != 8 {
		t.Errorf("next frame size = %dx%d, expected 20x8", dst.Width(), dst.Height())
	}
	b.EndFrame()
}

func TestRelease(t *testing.T) {
	b := New()
	b.SetSize(4, 1)
	resized := false
	b.OnResize(func(int, int, int, int) { resized = true })

	b.Release()
	b.Release()

	if _, ok := <-b.Presented(); ok {
		t.Error("Presented() should be closed after Release")
	}

	b.SetSize(8, 8)
	if resized {
		t.Error("resize listener fired after Release")
	}

	b.BeginFrame()
	b.EndFrame()
	if b.Frames() != 0 {
		t.Errorf("Frames() = %d, frames after Release must not publish", b.Frames())
	}
	if !b.Released() {
		t.Error("Released() = false")
	}
}
