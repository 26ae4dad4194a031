package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keepmark/internal/classfile"
)

func node() *classfile.Utf8Constant {
	return &classfile.Utf8Constant{Value: "n"}
}

// =============================================================================
// ShortestUsageMark
// =============================================================================

func TestShortestUsageMark_IsShorter(t *testing.T) {
	root := NewRootMark(RootReason)
	one := NewMark(root, "is referenced by", nil, nil)
	two := NewMark(one, "is referenced by", nil, nil)

	assert.True(t, root.IsShorter(one))
	assert.False(t, one.IsShorter(root))
	assert.True(t, one.IsShorter(two))
	assert.True(t, one.IsShorter(nil))

	// Certain beats uncertain at equal depth.
	assert.True(t, one.IsShorter(one.Uncertain()))
	assert.False(t, one.Uncertain().IsShorter(one))

	// Ties are not shorter.
	assert.False(t, one.IsShorter(NewMark(root, "is invoked by", nil, nil)))
}

func TestShortestUsageMark_Depth(t *testing.T) {
	root := NewRootMark(RootReason)
	assert.Equal(t, 0, root.Depth())
	assert.Nil(t, root.Cause())

	m := NewMark(NewMark(root, "a", nil, nil), "b", nil, nil)
	assert.Equal(t, 2, m.Depth())
	assert.Equal(t, "a", m.Cause().Reason())

	assert.Equal(t, 1, NewMark(nil, "orphan", nil, nil).Depth())
}

func TestShortestUsageMark_String(t *testing.T) {
	b := classfile.NewBuilder("com/example/Main", "", classfile.AccPublic)
	main := b.Method(classfile.AccPublic|classfile.AccStatic, "main", "([Ljava/lang/String;)V")
	class := b.Build()

	root := NewRootMark(RootReason)
	assert.Equal(t, "certain=true, depth=0: is kept by a directive in the configuration(none): none", root.String())

	m := NewMark(root, "is invoked by", class, main)
	assert.Equal(t, "certain=true, depth=1: is invoked by(com.example.Main): main([Ljava/lang/String;)V", m.String())
	assert.Equal(t, "certain=false, depth=1: is invoked by(com.example.Main): main([Ljava/lang/String;)V", m.Uncertain().String())
}

// =============================================================================
// ShortestMarker
// =============================================================================

func TestShortestMarker_RootMarks(t *testing.T) {
	s := NewShortestMarker()
	n := node()

	s.MarkAsUsed(n)

	mark := s.GetShortestMark(n)
	require.NotNil(t, mark)
	assert.Equal(t, 0, mark.Depth())
	assert.Equal(t, RootReason, mark.Reason())
	assert.True(t, s.IsUsed(n))
	assert.Equal(t, 1, s.UsedTransitions())
}

func TestShortestMarker_EnterChainsCauses(t *testing.T) {
	s := NewShortestMarker()
	a, b := node(), node()

	s.MarkAsUsed(a)
	restore := s.Enter(a, nil, nil, "is referenced by")
	s.MarkAsUsed(b)
	restore()

	mark := s.GetShortestMark(b)
	require.NotNil(t, mark)
	assert.Equal(t, 1, mark.Depth())
	assert.Same(t, s.GetShortestMark(a), mark.Cause())

	// After restore the root template is back.
	c := node()
	s.MarkAsUsed(c)
	assert.Equal(t, 0, s.GetShortestMark(c).Depth())
}

func TestShortestMarker_NilEnterStartsRoot(t *testing.T) {
	s := NewShortestMarker()
	n := node()

	restore := s.Enter(nil, nil, nil, "is a seed")
	defer restore()
	s.MarkAsUsed(n)

	assert.Equal(t, 0, s.GetShortestMark(n).Depth())
	assert.Equal(t, "is a seed", s.GetShortestMark(n).Reason())
}

func TestShortestMarker_CertaintyDominance(t *testing.T) {
	s := NewShortestMarker()
	a, deep, n := node(), node(), node()
	s.MarkAsUsed(a)

	// n possibly used at depth 1.
	restore := s.Enter(a, nil, nil, "overrides or implements")
	require.True(t, s.ShouldBeMarkedAsPossiblyUsed(n))
	s.MarkAsPossiblyUsed(n)
	restore()
	assert.False(t, s.IsUsed(n))
	assert.True(t, s.IsPossiblyUsed(n))

	// A deeper certain mark still replaces the uncertain one.
	restore = s.Enter(a, nil, nil, "is referenced by")
	s.MarkAsUsed(deep)
	restore()
	restore = s.Enter(deep, nil, nil, "is invoked by")
	require.True(t, s.ShouldBeMarkedAsUsed(n))
	s.MarkAsUsed(n)
	restore()

	assert.True(t, s.IsUsed(n))
	assert.Equal(t, 2, s.GetShortestMark(n).Depth())

	// Certain is never replaced by uncertain, even a shallower one.
	assert.False(t, s.ShouldBeMarkedAsPossiblyUsed(n))
	err := recoverFrom(func() { s.MarkAsPossiblyUsed(n) })
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, ErrCodeMarkDowngrade, e.Code)
	assert.Equal(t, Describe(n), e.Node)
	assert.True(t, s.GetShortestMark(n).Certain())
}

func TestShortestMarker_DepthMinimality(t *testing.T) {
	s := NewShortestMarker()
	a, b, n := node(), node(), node()
	s.MarkAsUsed(a)
	restore := s.Enter(a, nil, nil, "r")
	s.MarkAsUsed(b)
	restore()

	// Depth 2 first.
	restore = s.Enter(b, nil, nil, "long")
	s.MarkAsUsed(n)
	restore()
	require.Equal(t, 2, s.GetShortestMark(n).Depth())

	// Depth 1 replaces it without counting a new transition.
	transitions := s.UsedTransitions()
	restore = s.Enter(a, nil, nil, "short")
	assert.True(t, s.ShouldBeMarkedAsUsed(n))
	s.MarkAsUsed(n)
	restore()
	assert.Equal(t, 1, s.GetShortestMark(n).Depth())
	assert.Equal(t, "short", s.GetShortestMark(n).Reason())
	assert.Equal(t, transitions, s.UsedTransitions())

	// Equal depth keeps the first writer.
	restore = s.Enter(a, nil, nil, "other")
	assert.False(t, s.ShouldBeMarkedAsUsed(n))
	s.MarkAsUsed(n)
	restore()
	assert.Equal(t, "short", s.GetShortestMark(n).Reason())

	// Longer never replaces shorter.
	restore = s.Enter(b, nil, nil, "long")
	assert.False(t, s.ShouldBeMarkedAsUsed(n))
	restore()
}

func TestShortestMarker_MarkAsUnused(t *testing.T) {
	s := NewShortestMarker()
	used, possibly := node(), node()
	s.MarkAsUsed(used)
	s.MarkAsPossiblyUsed(possibly)

	s.MarkAsUnused(used)
	s.MarkAsUnused(possibly)

	assert.True(t, s.IsUsed(used))
	assert.False(t, s.IsPossiblyUsed(possibly))
}

func TestShortestMarker_ForeignMark(t *testing.T) {
	n := node()
	NewSimpleMarker().MarkAsUsed(n)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		e, ok := r.(*Error)
		require.True(t, ok)
		assert.Equal(t, ErrCodeMixedMarks, e.Code)
	}()
	NewShortestMarker().IsUsed(n)
}

func TestStateOf(t *testing.T) {
	s := NewShortestMarker()
	used, possibly, none := node(), node(), node()
	s.MarkAsUsed(used)
	s.MarkAsPossiblyUsed(possibly)

	assert.Equal(t, Used, StateOf(s, used))
	assert.Equal(t, PossiblyUsed, StateOf(s, possibly))
	assert.Equal(t, Unused, StateOf(s, none))
	assert.Equal(t, "possibly_used", PossiblyUsed.String())
}
