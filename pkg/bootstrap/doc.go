// Package bootstrap implements the bootstrap server side of the LwM2M
// bootstrap interface: it turns a per-client [Config] into the ordered
// Delete, Write and Discover requests that provision a device, and drives
// a bootstrap session through its lifecycle.
//
// # Task Sequencing
//
// A [TaskProvider] hands out one batch of requests per turn. The
// [ConfigStoreTaskProvider] knows two flows:
//
//   - Plain: the first turn returns the whole batch, written at the
//     instance ids taken from the configuration.
//   - Auto id: the first turn is a single Discover on "/". The second turn
//     reads the Security instance the client uses to reach this bootstrap
//     server out of the Discover response, writes the bootstrap server
//     Security entry over it and numbers the other Security entries around
//     it.
//
// Within a batch, requests are ordered: deletes in configuration order,
// then Security, Server, ACL and OSCORE instances each by ascending id,
// then extension collections in declaration order.
//
// # Sessions
//
// A [Manager] authorizes a client, asks the provider for batches, feeds
// responses back and ends the session with a Bootstrap-Finish. Every
// milestone is reported to a [Listener]. [ListenerAdapter] provides no-op
// defaults, [Listeners] fans out to several listeners, and
// [OSCOREContextCleaner] drops the symmetric context of an OSCORE client
// once its session is over. [EventLogger] records sessions as log events.
//
// # Configuration Stores
//
// Configurations are looked up per session through a [ConfigStore].
// [MemoryStore] keeps them in memory; [FileStore] loads YAML or JSON (with
// comments) files from a directory.
package bootstrap
