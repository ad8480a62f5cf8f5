// Package store persists OSCORE parameters and bootstrap configurations in
// a SQLite database.
//
// A [DB] is both an [oscore.ParameterStore] and a [bootstrap.ConfigStore],
// so one database file can back a whole bootstrap server. Parameters are
// stored CBOR encoded and configurations as JSON documents, one per client
// endpoint.
package store
