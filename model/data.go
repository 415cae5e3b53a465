// Package model contains the records and events of the notification directory.
//
// Every record lives at a deterministic Location derived from its Kind and the
// identities that key it, so callers address records without an index.
package model
