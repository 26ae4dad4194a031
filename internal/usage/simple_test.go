package usage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleMarker_Transitions(t *testing.T) {
	s := NewSimpleMarker()
	n := node()

	assert.False(t, s.IsUsed(n))
	assert.False(t, s.IsPossiblyUsed(n))
	assert.True(t, s.ShouldBeMarkedAsPossiblyUsed(n))

	s.MarkAsPossiblyUsed(n)
	assert.False(t, s.IsUsed(n))
	assert.True(t, s.IsPossiblyUsed(n))
	assert.False(t, s.ShouldBeMarkedAsPossiblyUsed(n))
	assert.True(t, s.ShouldBeMarkedAsUsed(n))
	assert.Equal(t, 0, s.UsedTransitions())

	s.MarkAsUsed(n)
	assert.True(t, s.IsUsed(n))
	assert.True(t, s.IsPossiblyUsed(n))
	assert.False(t, s.ShouldBeMarkedAsUsed(n))
	assert.Equal(t, 1, s.UsedTransitions())

	// Idempotent.
	s.MarkAsUsed(n)
	assert.Equal(t, 1, s.UsedTransitions())
}

func TestSimpleMarker_Monotonic(t *testing.T) {
	s := NewSimpleMarker()
	n := node()
	s.MarkAsUsed(n)

	s.MarkAsUnused(n)
	assert.True(t, s.IsUsed(n))

	assert.Panics(t, func() { s.MarkAsPossiblyUsed(n) })
	assert.True(t, s.IsUsed(n))
}

func TestSimpleMarker_MarkAsUnusedClearsTentative(t *testing.T) {
	s := NewSimpleMarker()
	n := node()
	s.MarkAsPossiblyUsed(n)

	s.MarkAsUnused(n)
	assert.False(t, s.IsPossiblyUsed(n))
	assert.Nil(t, n.ProcessingInfo())
}

func TestSimpleMarker_EnterIsNoop(t *testing.T) {
	s := NewSimpleMarker()
	a, b := node(), node()
	s.MarkAsUsed(a)

	restore := s.Enter(a, nil, nil, "is referenced by")
	s.MarkAsUsed(b)
	restore()

	assert.Same(t, a.ProcessingInfo(), b.ProcessingInfo())
}

func TestSimpleMarker_ForeignMark(t *testing.T) {
	n := node()
	NewShortestMarker().MarkAsUsed(n)

	assert.Panics(t, func() { NewSimpleMarker().IsUsed(n) })
}

// =============================================================================
// Errors
// =============================================================================

func TestError_Format(t *testing.T) {
	e := NewCycleError("com.example.A", 12)
	assert.Equal(t, "CAUSE_CYCLE: explanation chain exceeds 12 hops (node=com.example.A)", e.Error())

	e = &Error{Code: ErrCodeMarkDowngrade, Message: "boom"}
	assert.Equal(t, "MARK_DOWNGRADE: boom", e.Error())
}

func TestError_Helpers(t *testing.T) {
	wrapped := fmt.Errorf("explain: %w", NewCycleError("x", 3))

	assert.True(t, IsFatal(wrapped))
	assert.True(t, IsCycleError(wrapped))
	assert.False(t, IsCycleError(NewDowngradeError("x")))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.False(t, IsCycleError(nil))
}

func recoverFrom(fn func()) (err error) {
	defer Recover(&err)
	fn()
	return nil
}

func TestRecover(t *testing.T) {
	err := recoverFrom(func() { panic(NewUnresolvedClassVariantError("<nil>")) })
	require.Error(t, err)
	assert.True(t, IsFatal(err))

	assert.NoError(t, recoverFrom(func() {}))

	assert.PanicsWithValue(t, "other", func() {
		_ = recoverFrom(func() { panic("other") })
	})
}
