package access

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ternder001/AutoRebalancingHook/internal/types"
)

func TestOwnerSeedsTheList(t *testing.T) {
	l := New("owner")
	require.True(t, l.Authorized("owner"))
	require.False(t, l.Authorized("stranger"))
}

func TestAddRequiresMembership(t *testing.T) {
	l := New("owner")

	require.ErrorIs(t, l.Add("stranger", "friend"), types.ErrUnauthorized)
	require.False(t, l.Authorized("friend"))

	require.NoError(t, l.Add("owner", "friend"))
	require.True(t, l.Authorized("friend"))

	// Newly added members can extend the chain themselves.
	require.NoError(t, l.Add("friend", "third"))
	require.True(t, l.Authorized("third"))
}

func TestRemoveRequiresMembership(t *testing.T) {
	l := New("owner")
	require.NoError(t, l.Add("owner", "friend"))

	require.ErrorIs(t, l.Remove("stranger", "friend"), types.ErrUnauthorized)
	require.True(t, l.Authorized("friend"))

	require.NoError(t, l.Remove("owner", "friend"))
	require.False(t, l.Authorized("friend"))
}

func TestOwnerCanBeRemoved(t *testing.T) {
	l := New("owner")
	require.NoError(t, l.Add("owner", "friend"))

	require.NoError(t, l.Remove("friend", "owner"))
	require.False(t, l.Authorized("owner"))

	// A lockout is equally possible: the last member removing itself
	// leaves the list empty for good.
	require.NoError(t, l.Remove("friend", "friend"))
	require.Empty(t, l.Members())
	require.ErrorIs(t, l.Add("friend", "friend"), types.ErrUnauthorized)
}
