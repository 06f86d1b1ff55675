package interp

import (
	"errors"
	"testing"
)

type vec struct {
	n      int
	values []float64
	loaded []float64
}

func newVec(values ...float64) *vec {
	return &vec{n: len(values), values: values}
}

func (v *vec) Channels() int { return v.n }

func (v *vec) SaveChannels(out []float64) { copy(out, v.values) }

func (v *vec) LoadChannels(in []float64) {
	v.loaded = append(v.loaded[:0], in...)
}

func TestRegisterRemove(t *testing.T) {
	r := NewRegistry()

	a := r.Register(newVec(1, 2))
	b := r.Register(newVec(3))

	if a == 0 || b == 0 || a == b {
		t.Fatalf("handles should be distinct and non-zero, got %d and %d", a, b)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, expected 2", r.Len())
	}

	if err := r.Remove(a); err != nil {
		t.Fatalf("Remove(a) failed: %v", err)
	}
	if r.Has(a) {
		t.Error("a should no longer be registered")
	}
	if !r.Has(b) {
		t.Error("b should still be registered")
	}

	// Removing twice is a usage error
	if err := r.Remove(a); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("second Remove should return ErrUnknownHandle, got %v", err)
	}
}

func TestMembersKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	h1 := r.Register(newVec(1))
	h2 := r.Register(newVec(2))
	h3 := r.Register(newVec(3))

	if err := r.Remove(h2); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	h4 := r.Register(newVec(4))

	members := r.Members()
	expected := []Handle{h1, h3, h4}
	if len(members) != len(expected) {
		t.Fatalf("expected %d members, got %d", len(expected), len(members))
	}
	for i, m := range members {
		if m.Handle != expected[i] {
			t.Errorf("member %d: handle %d, expected %d", i, m.Handle, expected[i])
		}
	}
}

func TestSaveCopiesValues(t *testing.T) {
	r := NewRegistry()
	v := newVec(1, 2, 3, 4)
	h := r.Register(v)

	saved := map[Handle][]float64{}
	err := r.Save(func(m Member, values []float64) {
		saved[m.Handle] = values
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Mutating the object afterwards must not change the captured values
	v.values[0] = 100

	got := saved[h]
	if len(got) != 4 || got[0] != 1 || got[3] != 4 {
		t.Errorf("saved values = %v, expected [1 2 3 4]", got)
	}
}

func TestSaveDetectsChannelChange(t *testing.T) {
	r := NewRegistry()
	v := newVec(1, 2)
	r.Register(v)

	v.n = 3
	err := r.Save(func(Member, []float64) {})
	if !errors.Is(err, ErrChannelMismatch) {
		t.Errorf("expected ErrChannelMismatch, got %v", err)
	}
}

func TestCheckEmpty(t *testing.T) {
	r := NewRegistry()
	if err := r.CheckEmpty(); err != nil {
		t.Errorf("empty registry: unexpected error %v", err)
	}

	h := r.Register(newVec(1))
	if err := r.CheckEmpty(); !errors.Is(err, ErrRegistryNotEmpty) {
		t.Errorf("expected ErrRegistryNotEmpty, got %v", err)
	}

	r.Remove(h)
	if err := r.CheckEmpty(); err != nil {
		t.Errorf("after remove: unexpected error %v", err)
	}
}

func TestLerp(t *testing.T) {
	tests := []struct {
		past, current, ratio, expected float64
	}{
		{0, 10, 0, 0},
		{0, 10, 0.5, 5},
		{0, 10, 0.25, 2.5},
		{4, 8, 0.5, 6},
		{10, 0, 0.5, 5},
		{0, 10, -0.5, -5}, // not clamped
	}

	for _, tc := range tests {
		if got := Lerp(tc.past, tc.current, tc.ratio); got != tc.expected {
			t.Errorf("Lerp(%v, %v, %v) = %v, expected %v", tc.past, tc.current, tc.ratio, got, tc.expected)
		}
	}
}

func TestLerpInto(t *testing.T) {
	dst := make([]float64, 4)
	err := LerpInto(dst, []float64{1, 2, 3, 4}, []float64{5, 6, 7, 8}, 0.5)
	if err != nil {
		t.Fatalf("LerpInto failed: %v", err)
	}

	expected := []float64{3, 4, 5, 6}
	for i := range expected {
		if dst[i] != expected[i] {
			t.Errorf("dst[%d] = %v, expected %v", i, dst[i], expected[i])
		}
	}

	if err := LerpInto(dst, []float64{1}, []float64{1, 2, 3, 4}, 0.5); !errors.Is(err, ErrChannelMismatch) {
		t.Errorf("expected ErrChannelMismatch for mismatched lengths, got %v", err)
	}
}

func TestPoint(t *testing.T) {
	p := NewPoint(1, 2)
	if x, y := p.Shown(); x != 1 || y != 2 {
		t.Errorf("Shown() = %v, %v; expected 1, 2", x, y)
	}

	p.X, p.Y = 3, 4
	out := make([]float64, p.Channels())
	p.SaveChannels(out)
	if out[0] != 3 || out[1] != 4 {
		t.Errorf("SaveChannels() = %v, expected [3 4]", out)
	}
	if x, _ := p.Shown(); x != 1 {
		t.Error("moving the simulation state must not move the shown position")
	}

	p.LoadChannels([]float64{2, 3})
	if x, y := p.Shown(); x != 2 || y != 3 {
		t.Errorf("Shown() after load = %v, %v; expected 2, 3", x, y)
	}

	p.Teleport(9, 9)
	if x, y := p.Shown(); x != 9 || y != 9 || p.X != 9 {
		t.Errorf("Teleport() left shown at %v, %v", x, y)
	}
}
