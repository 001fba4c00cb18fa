// Package syncdriver replays queued offline operations against the service.
//
// A Driver owns no state of its own beyond a circuit breaker: it reads the
// pending operations from an offline.Queue, marks each one syncing, hands it
// to a Replayer and reports the outcome back to the queue (Complete on
// success, MoveToFailed on error). Run listens for the queue's
// network_restored event so replay starts as soon as the client reconnects.
//
// The driver refuses to start while the queue is offline or while another
// run is in flight, stops early when the network drops or the breaker opens,
// and puts an operation back to pending if its replay was cancelled.
package syncdriver
