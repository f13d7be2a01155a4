// Package domain contains the core entities and value objects for aq2rdb.
//
// This package is the innermost layer of the application. It has no
// dependencies on infrastructure concerns (files, HTTP, databases, logging)
// and holds only the retrieval vocabulary and its invariants.
//
// # Entities
//
//   - [RawRequest]: the uninterpreted fields of a single retrieval request
//   - [ControlFileRow]: the seven raw columns of one control-file data row
//   - [RequestSpec]: a fully resolved, canonical retrieval request
//   - [Station]: station metadata supplied by the catalog collaborator
//
// # Errors and status
//
// Error classes ([ErrControlFileFormat], [ErrFieldValidation], [ErrSubtype],
// [ErrResource], [ErrCollaborator], [ErrConfiguration]) are sentinels checked
// with errors.Is. [StatusOf] maps any error to the process exit [Status].
package domain
