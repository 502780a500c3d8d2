// Package engine defines the pluggable keyed-storage capability backing the
// session registry, plus two implementations: an in-process memory engine
// (the default) and a Redis engine for shared or durable deployments.
//
// An engine stores opaque byte values by key and additionally indexes keys
// under a secondary group key for bulk enumeration. Implementations must keep
// the primary entry and its index membership atomic with respect to each
// other for PutIndexed and DeleteIndexed: no reader may observe one updated
// and the other stale.
package engine
