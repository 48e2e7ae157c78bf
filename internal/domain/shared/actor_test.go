package shared

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewActor(t *testing.T) {
	t.Run("accepts known role", func(t *testing.T) {
		a, err := NewActor(uuid.New(), RoleKOL)
		require.NoError(t, err)
		assert.False(t, a.IsAdmin())
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := NewActor(uuid.New(), Role("guest"))
		assert.True(t, errors.Is(err, ErrValidation))
	})
}

func TestActor_RequireAdmin(t *testing.T) {
	admin := Actor{ID: uuid.New(), Role: RoleAdmin}
	shop := Actor{ID: uuid.New(), Role: RoleShopOwner}

	assert.NoError(t, admin.RequireAdmin("createRelationship"))
	err := shop.RequireAdmin("createRelationship")
	assert.True(t, errors.Is(err, ErrForbidden))

	assert.NoError(t, shop.RequireAny("getStats", RoleShopOwner, RoleKOL))
	assert.Error(t, shop.RequireAny("getStats", RoleKOL))
}
