// Package node provides the LwM2M object tree values exchanged during
// bootstrap: paths, resources and object instances.
//
// # Paths
//
// A [Path] addresses the root, an object, an object instance or a resource:
//
//	/          root
//	/0         Security object
//	/0/1       Security instance 1
//	/0/1/0     LwM2M Server URI resource of instance 1
//
// Paths are comparable values and can be used as map keys.
//
// # Resources
//
// A [Resource] is either single-valued or multiple (a set of resource
// instances keyed by id). Every value carries its [Type]; constructors
// reject values that do not match the declared type.
package node
