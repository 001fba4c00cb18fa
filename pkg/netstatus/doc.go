// Package netstatus tracks whether the backing recipe service is reachable.
//
// Status is one of online, offline or slow. slow is a degraded-quality signal
// on a live connection, so it is only reachable from online, and it still
// counts as online for IsOnline. The allowed moves are
//
//	online  -> offline, slow
//	slow    -> online, offline
//	offline -> online
//
// A Detector combines two inputs: explicit platform signals passed to Set
// (connectivity or connection-quality events) and a periodic reachability probe
// started with Start. Every accepted change is published as a Change through
// Subscribe.
//
// The probe never fails loudly: Check and Refresh fold network errors,
// non-2xx answers and timeouts into "unreachable".
package netstatus
