package directory

import (
	"testing"

	"github.com/nfrund/mochachat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	d := Default()
	assert.Equal(t, 7, d.Len())
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7"}, d.IDs())

	alice, ok := d.Lookup("1")
	require.True(t, ok)
	assert.Equal(t, "Alice Johnson", alice.DisplayName)

	_, ok = d.Lookup("99")
	assert.False(t, ok)
}

func TestLookup_LocalAlwaysResolves(t *testing.T) {
	local := domain.User{ID: "ignored", DisplayName: "Me"}
	d := New([]domain.User{
		{ID: domain.LocalUserID, DisplayName: "Impostor"},
		{ID: "1", DisplayName: "Alice"},
		{ID: "1", DisplayName: "Alice again"},
	}, local)

	assert.Equal(t, 1, d.Len())
	assert.False(t, d.Contains(domain.LocalUserID))

	u, ok := d.Lookup(domain.LocalUserID)
	require.True(t, ok)
	assert.Equal(t, "Me", u.DisplayName)
	assert.Equal(t, domain.LocalUserID, u.ID)

	first, _ := d.Lookup("1")
	assert.Equal(t, "Alice", first.DisplayName)
}

func TestAll_ReturnsCopy(t *testing.T) {
	d := Default()
	all := d.All()
	all[0].DisplayName = "mutated"

	alice, _ := d.Lookup("1")
	assert.Equal(t, "Alice Johnson", alice.DisplayName)
}
