//go:build integration

package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/application/transaction"
	"github.com/kolnet/backend/internal/domain/network"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/kolnet/backend/internal/infrastructure/migration"
	"github.com/kolnet/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDB starts a disposable Postgres container and applies the
// embedded migrations.
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("kolnet_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), newGormConfig(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)

	m, err := migration.NewEmbedded(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}

func TestPostgres_ConcurrentCreateKeepsOneActive(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	scope := NewGormTransactionScope(db)

	shop := seedProfile(t, db, "Shop", "shop_owner")
	parents := make([]uuid.UUID, 8)
	for i := range parents {
		parents[i] = seedProfile(t, db, "KOL", "kol")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for _, p := range parents {
		wg.Add(1)
		go func(parent uuid.UUID) {
			defer wg.Done()
			err := scope.Execute(ctx, func(repos transaction.Repositories) error {
				existing, err := repos.Relationships().FindActiveByChildForUpdate(ctx, shop)
				if err != nil {
					return err
				}
				if existing != nil {
					return shared.NewConflictError("already attached")
				}
				rel, err := network.NewRelationship(shop, &parent, time.Now(), "", "")
				if err != nil {
					return err
				}
				return repos.Relationships().Create(ctx, rel)
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case shared.CodeOf(err) == shared.CodeConflict:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, len(parents)-1, conflicts)

	rows, err := NewGormRelationshipRepository(db).List(ctx, network.RelationshipFilter{ChildID: &shop, ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestPostgres_ForeignKeysBlockOrphans(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()

	shop := seedProfile(t, db, "Shop", "shop_owner")
	registry := NewGormTableRegistry(db)

	rel, err := network.NewRelationship(shop, nil, time.Now(), "", "")
	require.NoError(t, err)
	require.NoError(t, NewGormRelationshipRepository(db).Create(ctx, rel))

	profiles, err := registry.Accessor("profiles")
	require.NoError(t, err)
	_, err = profiles.Delete(ctx, shop)
	require.Error(t, err, "child_id references must be removed first")
}

func TestPostgres_EndedRelationshipCheck(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()

	kol := seedProfile(t, db, "KOL", "kol")
	shop := seedProfile(t, db, "Shop", "shop_owner")
	started := time.Now().UTC().Add(-time.Hour)

	insert := func(endedAt time.Time, active bool) error {
		return db.WithContext(ctx).Exec(
			`INSERT INTO shop_relationships (id, child_id, parent_id, started_at, ended_at, is_active)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New(), shop, kol, started, endedAt, active,
		).Error
	}

	// the store rejects these even when the domain checks are bypassed
	assert.Error(t, insert(started.Add(time.Minute), true), "ended but active")
	assert.Error(t, insert(started.Add(-time.Minute), false), "ended before it started")
	assert.Error(t, insert(started, false), "ended when it started")

	require.NoError(t, insert(started.Add(time.Minute), false))
}
