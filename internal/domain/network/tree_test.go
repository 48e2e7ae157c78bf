package network

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entity(name string, role shared.Role) Entity {
	return Entity{ID: uuid.New(), Name: name, Role: role, Status: EntityStatusApproved}
}

func TestBuildForest(t *testing.T) {
	kd := entity("kol-d", shared.RoleKOL)
	kc := entity("kol-c", shared.RoleKOL)
	s3 := entity("shop-3", shared.RoleShopOwner)
	s4 := entity("shop-4", shared.RoleShopOwner)
	lone := entity("lone", shared.RoleShopOwner)

	t.Run("builds nested forest", func(t *testing.T) {
		res := BuildForest(
			[]Entity{kd, kc, s3, s4, lone},
			[]Edge{{ParentID: kd.ID, ChildID: kc.ID}, {ParentID: kc.ID, ChildID: s3.ID}, {ParentID: kc.ID, ChildID: s4.ID}},
			10,
		)
		assert.False(t, res.Truncated)
		require.Len(t, res.Roots, 2)

		root := res.Roots[0]
		assert.Equal(t, kd.ID, root.Entity.ID)
		require.Len(t, root.Children, 1)
		assert.Equal(t, 1, root.Children[0].Depth)
		require.Len(t, root.Children[0].Children, 2)
		assert.Equal(t, "shop-3", root.Children[0].Children[0].Entity.Name)
		assert.Equal(t, 4, root.CountNodes())

		assert.Equal(t, lone.ID, res.Roots[1].Entity.ID)
		assert.Empty(t, res.Roots[1].Children)
	})

	t.Run("cycle is cut", func(t *testing.T) {
		a := entity("a", shared.RoleKOL)
		b := entity("b", shared.RoleKOL)
		res := BuildForest([]Entity{a, b}, []Edge{{ParentID: a.ID, ChildID: b.ID}, {ParentID: b.ID, ChildID: a.ID}}, 10)
		assert.Empty(t, res.Roots)
		assert.True(t, res.Truncated)
	})

	t.Run("depth limit", func(t *testing.T) {
		entities := make([]Entity, 14)
		var edges []Edge
		for i := range entities {
			entities[i] = entity("n", shared.RoleKOL)
			if i > 0 {
				edges = append(edges, Edge{ParentID: entities[i-1].ID, ChildID: entities[i].ID})
			}
		}
		res := BuildForest(entities, edges, 10)
		require.Len(t, res.Roots, 1)
		assert.Equal(t, 11, res.Roots[0].CountNodes())
		assert.True(t, res.Truncated)
	})

	t.Run("parent missing from store makes child a root", func(t *testing.T) {
		res := BuildForest([]Entity{s3}, []Edge{{ParentID: uuid.New(), ChildID: s3.ID}}, 10)
		require.Len(t, res.Roots, 1)
		assert.Equal(t, s3.ID, res.Roots[0].Entity.ID)
	})
}
