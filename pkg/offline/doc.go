// Package offline keeps the queue of mutations that a client made while it
// could not reach the recipe service, and tracks the network status that
// decides when those mutations should be replayed.
//
// Every operation lives in exactly one of two ordered collections, pending or
// failed. Operations enter pending through Add or AddBatch, move to failed
// when a replay attempt is reported as failed, and return to pending through
// Retry while they still have retry budget. Exhausted operations stay parked in
// failed until they are removed explicitly.
//
// Lookups by an unknown id are no-ops everywhere: concurrent removal (a UI
// dismiss racing a background sync) is expected, so mutators report whether
// they found the operation instead of failing.
//
// The queue does not replay anything itself. It publishes typed events through
// Subscribe; a sync driver listens for EventNetworkRestored, which fires once
// when the network moves from offline to online while pending is non-empty.
//
// With WithPersistence every mutation writes a versioned snapshot holding the
// pending and failed operations, the offline-capable flag and the last online
// time. Network status and the sync-in-progress flag are not persisted; they
// are re-derived by InitializeNetworkDetection.
//
// Basic usage:
//
//	q := offline.New(offline.WithPersistence(storage), offline.WithLogger(log))
//	defer q.Close()
//
//	if err := q.Load(ctx); err != nil {
//		log.Error("restore offline queue", logger.Error(err))
//	}
//	if err := q.InitializeNetworkDetection(ctx, detector); err != nil {
//		return err
//	}
//
//	id := q.Add(offline.NewOperation{
//		Type:         offline.OperationUpdate,
//		ResourceType: "recipe",
//		ResourceID:   "42",
//		Payload:      payload,
//	})
package offline
