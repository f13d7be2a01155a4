// Package ports defines the interfaces (ports) that connect the aq2rdb core
// to its external collaborators.
//
// # Port Interfaces
//
//   - [StationMetadataService]: station name, time zone and DST flag
//   - [PrimaryDDResolver]: primary descriptor id for a parameter code
//   - [Formatter]: per-datatype RDB report writer
//   - [InteractivePrompter]: completion of missing single-request fields
//   - [RunObserver]: per-row and per-run outcome notifications
//   - [SummaryRepository]: persistence of the last run summary
//   - [Logger]: structured logging abstraction
//
// # Usage
//
// The core packages (resolve, output, dispatch) depend only on these
// interfaces. Infrastructure adapters (internal/adapters) implement them
// with concrete implementations (SQL catalog, zerolog, Prometheus, etc.).
package ports
