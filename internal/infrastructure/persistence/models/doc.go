// Package models contains GORM-specific persistence models that map to
// database tables. These models are separate from domain entities where the
// domain shape and the storage shape diverge, keeping the domain layer free
// from ORM concerns.
//
// Catalog entities (Nomenklatura, Client, Project, Integration) carry their
// own GORM tags and are persisted directly; SyncJob goes through SyncJobModel
// because its wire status and counters are updated with partial writes.
package models
