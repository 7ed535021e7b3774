package macro

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func setWith(k Kind, c Curve) *Set {
	s := NewSet()
	s.Curves[k] = c
	return s
}

func TestCursor_TerminatesAfterLength(t *testing.T) {
	var in Interpreter
	in.Init(setWith(Vol, NewCurve([]int{10, 20, 30}, -1, -1)))
	cur := in.Get(Vol)

	for i, want := range []int{10, 20, 30} {
		in.Next()
		assert.True(t, cur.Had())
		assert.Equal(t, want, cur.Val())
		assert.Equal(t, i < 2, cur.Has())
	}

	for range 10 {
		in.Next()
		assert.False(t, cur.Has())
		assert.False(t, cur.Had())
	}
}

func TestCursor_FinishedPulse(t *testing.T) {
	var in Interpreter
	in.Init(setWith(Arp, NewCurve([]int{1, 2}, -1, -1)))
	cur := in.Get(Arp)

	assert.True(t, cur.Finished(), "binding raises the pulse")
	in.Next()
	assert.False(t, cur.Finished())
	in.Next()
	assert.False(t, cur.Finished())
	in.Next()
	assert.True(t, cur.Finished(), "pulse when the curve stops producing values")
	in.Next()
	assert.False(t, cur.Finished(), "pulse lasts one tick")
}

func TestCursor_SustainLoop(t *testing.T) {
	var in Interpreter
	in.Init(setWith(Vol, NewCurve([]int{0, 1, 2, 3}, 2, -1)))
	cur := in.Get(Vol)

	var got []int
	for range 10 {
		in.Next()
		assert.True(t, cur.Has())
		assert.True(t, cur.Pos() >= 2 || len(got) < 2)
		got = append(got, cur.Val())
	}
	assert.Equal(t, []int{0, 1, 2, 3, 2, 3, 2, 3, 2, 3}, got)
}

func TestCursor_ReleaseHold(t *testing.T) {
	var in Interpreter
	in.Init(setWith(Vol, NewCurve([]int{5, 6, 7, 8, 9}, -1, 2)))
	cur := in.Get(Vol)

	var got []int
	for range 8 {
		in.Next()
		assert.True(t, cur.Pos() <= 2)
		got = append(got, cur.Val())
	}
	assert.Equal(t, []int{5, 6, 7, 7, 7, 7, 7, 7}, got)

	in.Release()
	in.Next()
	assert.Equal(t, 7, cur.Val())
	assert.Equal(t, 3, cur.Pos())
	in.Next()
	assert.Equal(t, 8, cur.Val())
	in.Next()
	assert.Equal(t, 9, cur.Val())
	assert.False(t, cur.Has())
}

func TestCursor_LoopBeforeRelease(t *testing.T) {
	var in Interpreter
	in.Init(setWith(Vol, NewCurve([]int{1, 2, 3, 4, 5}, 1, 3)))
	cur := in.Get(Vol)

	var got []int
	for range 9 {
		in.Next()
		got = append(got, cur.Val())
	}
	assert.Equal(t, []int{1, 2, 3, 4, 2, 3, 4, 2, 3}, got)

	in.Release()
	for range 4 {
		in.Next()
	}
	assert.Equal(t, 5, cur.Val())
	assert.False(t, cur.Has(), "loop precedes release so the tail terminates")
}

func TestCursor_LoopAfterRelease(t *testing.T) {
	var in Interpreter
	in.Init(setWith(Vol, NewCurve([]int{1, 2, 3, 4}, 2, 1)))
	cur := in.Get(Vol)

	in.Release()
	var got []int
	for range 8 {
		in.Next()
		got = append(got, cur.Val())
	}
	assert.Equal(t, []int{1, 2, 3, 4, 3, 4, 3, 4}, got)
	assert.True(t, cur.Has())
}

func TestInterpreter_SkipsAbsentCurves(t *testing.T) {
	var in Interpreter
	s := NewSet()
	s.Curves[Pitch] = NewCurve([]int{3}, -1, -1)
	s.Op[2][OpTL] = NewCurve([]int{40, 41}, -1, -1)
	in.Init(s)

	assert.False(t, in.Get(Vol).Bound())
	assert.True(t, in.Get(Pitch).Bound())
	assert.True(t, in.Op(2, OpTL).Bound())

	in.Next()
	assert.False(t, in.Get(Vol).Had())
	assert.Equal(t, 40, in.Op(2, OpTL).Val())
}

func TestInterpreter_NextWithoutInstrument(t *testing.T) {
	var in Interpreter
	in.Next()
	in.Release()
	in.Next()
	assert.True(t, in.Set() == nil)
	assert.False(t, in.Get(Vol).Had())
}

func TestInterpreter_NotifyDeletion(t *testing.T) {
	var in Interpreter
	a := setWith(Vol, NewCurve([]int{1}, 0, -1))
	b := setWith(Vol, NewCurve([]int{1}, 0, -1))
	in.Init(a)

	in.NotifyDeletion(b)
	assert.True(t, in.Set() == a)

	in.NotifyDeletion(a)
	assert.True(t, in.Set() == nil)
	assert.False(t, in.Get(Vol).Bound())
}

func TestInterpreter_TypedModes(t *testing.T) {
	var in Interpreter
	assert.Equal(t, ArpRelative, in.ArpMode())

	s := NewSet()
	s.ArpMode = ArpFixed
	s.Ex2Mode = ValueOffset
	in.Init(s)
	assert.Equal(t, ArpFixed, in.ArpMode())
	assert.Equal(t, ValueAbsolute, in.Ex1Mode())
	assert.Equal(t, ValueOffset, in.Ex2Mode())
}

func TestCurve_Validate(t *testing.T) {
	c := NewCurve([]int{1, 2}, 0, -1)
	assert.NoError(t, c.Validate())

	c.Loop = -2
	assert.True(t, errors.Is(c.Validate(), ErrBadCurve))

	s := NewSet()
	s.Curves[Duty].Rel = MaxLen
	err := s.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duty")
}

func TestKindByName(t *testing.T) {
	k, ok := KindByName("panR")
	assert.True(t, ok)
	assert.Equal(t, PanR, k)
	_, ok = KindByName("nope")
	assert.False(t, ok)
}
