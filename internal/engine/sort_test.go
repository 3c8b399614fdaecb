package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coffersTech/tierlog/internal/model"
)

func tiedLog() *Log {
	src := fakeExporter{
		model.Info:  {raw(20, 0, "i0"), raw(10, 1, "i1")},
		model.Debug: {raw(10, 0, "d0"), raw(30, 1, "d1")},
		model.Error: {raw(10, 0, "e0")},
	}
	l := NewLog(src)
	l.PushAll()
	return l
}

func TestSort_AscendingKeepsTies(t *testing.T) {
	l := tiedLog()
	l.Sort(model.Ascending)
	assert.Equal(t, []string{"i1", "d0", "e0", "i0", "d1"}, messages(l))
}

func TestSort_DescendingKeepsTies(t *testing.T) {
	l := tiedLog()
	l.Sort(model.Descending)
	assert.Equal(t, []string{"d1", "i0", "i1", "d0", "e0"}, messages(l))
}

func TestSort_Idempotent(t *testing.T) {
	for _, order := range []model.SortOrder{model.Ascending, model.Descending} {
		l := tiedLog()
		l.Sort(order)
		once := messages(l)
		l.Sort(order)
		assert.Equal(t, once, messages(l), order.String())
	}
}

func TestSort_AscDescAscReproduces(t *testing.T) {
	src := fakeExporter{
		model.Info:  {raw(4, 0, "a"), raw(1, 1, "b")},
		model.Error: {raw(3, 0, "c"), raw(2, 1, "d")},
	}
	l := NewLog(src)
	l.PushAll()

	l.SortAscending()
	first := messages(l)
	l.SortDescending()
	assert.Equal(t, []string{"a", "c", "d", "b"}, messages(l))
	l.SortAscending()
	assert.Equal(t, first, messages(l))
}

func TestSort_AscDescAscReproducesWithTies(t *testing.T) {
	l := tiedLog()

	l.SortAscending()
	first := messages(l)
	assert.Equal(t, []string{"i1", "d0", "e0", "i0", "d1"}, first)

	for i := 0; i < 3; i++ {
		l.SortDescending()
		assert.Equal(t, []string{"d1", "i0", "i1", "d0", "e0"}, messages(l))
		l.SortAscending()
		assert.Equal(t, first, messages(l))
	}
}

func TestSortWithTieBreak(t *testing.T) {
	src := fakeExporter{
		model.Error: {raw(10, 0, "e0")},
		model.Debug: {raw(10, 2, "d2"), raw(10, 1, "d1")},
		model.Info:  {raw(10, 5, "i5")},
	}

	l := NewLog(src)
	l.PushTier(model.Error)
	l.PushTier(model.Debug)
	l.PushTier(model.Info)

	l.SortWithTieBreak(model.Ascending)
	assert.Equal(t, []string{"i5", "d1", "d2", "e0"}, messages(l))

	l.SortWithTieBreak(model.Descending)
	assert.Equal(t, []string{"e0", "d2", "d1", "i5"}, messages(l))
}
