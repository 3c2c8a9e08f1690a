package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJoins(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryJoins()

	got, err := m.Joined(ctx, "ana@lab.cl")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, m.Sync(ctx, " Ana@Lab.cl ", map[int64]int64{7: 70, 8: 80}, nil))
	got, err = m.Joined(ctx, "ana@lab.cl")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{7: 70, 8: 80}, got)

	require.NoError(t, m.Sync(ctx, "ana@lab.cl", map[int64]int64{9: 90}, []int64{7}))
	got, err = m.Joined(ctx, "ana@lab.cl")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{8: 80, 9: 90}, got)

	// the returned map is a copy
	got[100] = 1
	again, _ := m.Joined(ctx, "ana@lab.cl")
	assert.NotContains(t, again, int64(100))

	other, _ := m.Joined(ctx, "beto@lab.cl")
	assert.Empty(t, other)
}

func TestMemoryJoins_EmptyEmail(t *testing.T) {
	m := NewMemoryJoins()
	require.NoError(t, m.Sync(context.Background(), "", map[int64]int64{1: 1}, nil))
	got, _ := m.Joined(context.Background(), "")
	assert.Empty(t, got)
}
