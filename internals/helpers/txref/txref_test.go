package txref

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransactionReferencesAreUniqueAndPrefixed(t *testing.T) {
	g, err := New(7)
	require.NoError(t, err)

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		ref := g.Transaction()
		require.True(t, strings.HasPrefix(ref, "TXN-"), ref)
		_, dup := seen[ref]
		require.False(t, dup, "duplicate reference %s", ref)
		seen[ref] = struct{}{}
	}
}

func TestAccountNumberFormat(t *testing.T) {
	ref := Default().AccountNumber()
	require.True(t, strings.HasPrefix(ref, "ACC-"))
	require.Equal(t, strings.ToUpper(ref), ref)
}

func TestNewRejectsOutOfRangeNode(t *testing.T) {
	_, err := New(5000)
	require.Error(t, err)
}
