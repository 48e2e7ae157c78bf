// Package models contains GORM persistence models. Domain types stay free of
// ORM tags; each model converts to and from its domain counterpart.
//
//   - base.go: shared columns (BaseModel, AggregateModel)
//   - network.go: profiles and shop_relationships
//   - device.go: device_accumulators and device_sales
//   - commission.go: commission_entries
//   - collaborator.go: tables owned by neighbouring services that take part
//     in referential integrity checks
package models
