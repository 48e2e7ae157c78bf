// Package transaction defines the unit-of-work boundary shared by the
// application services.
package transaction

import (
	"context"

	"github.com/kolnet/backend/internal/domain/commission"
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/kolnet/backend/internal/domain/integrity"
	"github.com/kolnet/backend/internal/domain/network"
)

// Scope runs a function inside one database transaction.
// A returned error rolls the transaction back, success commits it.
type Scope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to every repository bound to the current
// transaction. All of them share the same underlying connection.
type Repositories interface {
	Relationships() network.RelationshipRepository
	Entities() network.EntityStore
	Accumulators() device.AccumulatorRepository
	DeviceSales() device.SaleRepository
	CommissionEntries() commission.EntryRepository
	// Tables resolves the typed accessors used by integrity checks
	Tables() integrity.Registry
}

// Set is a plain bundle of repositories. It backs NoOpScope.
type Set struct {
	RelationshipRepo network.RelationshipRepository
	EntityStore      network.EntityStore
	AccumulatorRepo  device.AccumulatorRepository
	SaleRepo         device.SaleRepository
	EntryRepo        commission.EntryRepository
	Registry         integrity.Registry
}

// NoOpScope runs the function without a transaction. Used in tests.
type NoOpScope struct {
	set Set
}

// NewNoOpScope creates a NoOpScope over the given repositories.
func NewNoOpScope(set Set) *NoOpScope {
	return &NoOpScope{set: set}
}

// Execute calls fn directly.
func (s *NoOpScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s)
}

func (s *NoOpScope) Relationships() network.RelationshipRepository { return s.set.RelationshipRepo }
func (s *NoOpScope) Entities() network.EntityStore                  { return s.set.EntityStore }
func (s *NoOpScope) Accumulators() device.AccumulatorRepository     { return s.set.AccumulatorRepo }
func (s *NoOpScope) DeviceSales() device.SaleRepository             { return s.set.SaleRepo }
func (s *NoOpScope) CommissionEntries() commission.EntryRepository  { return s.set.EntryRepo }
func (s *NoOpScope) Tables() integrity.Registry                     { return s.set.Registry }

var _ Scope = (*NoOpScope)(nil)
var _ Repositories = (*NoOpScope)(nil)
