// Package integration contains the Integration bounded context.
// This context manages connections to external 1C ERP systems and the
// synchronization jobs that reconcile their catalogs into ours.
//
// Key concepts:
//   - Integration: Entity holding one external-system connection (endpoint,
//     credentials, remote procedure names, batch granularity)
//   - SyncJob: Entity tracking the progress and outcome of one sync run
//   - ExternalRecord: Value object carrying one loosely-typed record from
//     the remote system, pre-normalization
//   - RecordSource: Port interface for fetching records from the remote system
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
