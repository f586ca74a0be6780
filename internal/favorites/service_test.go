package favorites

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kopikita/backend-kopi/internal/kv"
)

func TestFavoritesSetSemantics(t *testing.T) {
	s := &Service{Store: kv.NewMemory()}
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "u_001", "m_latte"))
	require.NoError(t, s.Add(ctx, "u_001", "m_espresso"))
	require.NoError(t, s.Add(ctx, "u_001", "m_latte"), "double add is a no-op")

	ids, err := s.List(ctx, "u_001")
	require.NoError(t, err)
	require.Equal(t, []string{"m_espresso", "m_latte"}, ids)

	has, err := s.Has(ctx, "u_001", "m_latte")
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, s.Remove(ctx, "u_001", "m_latte"))
	require.NoError(t, s.Remove(ctx, "u_001", "m_missing"), "absent remove is a no-op")

	ids, err = s.List(ctx, "u_001")
	require.NoError(t, err)
	require.Equal(t, []string{"m_espresso"}, ids)

	// per-user isolation
	ids, err = s.List(ctx, "u_002")
	require.NoError(t, err)
	require.Empty(t, ids)
}
