// Package debugapi exposes the offline queue, network status and feature
// store over HTTP for developers and support tooling, plus a /healthz
// readiness endpoint for the agent itself.
//
// Routes:
//
//	GET    /healthz
//	GET    /queue
//	POST   /queue/sync
//	POST   /queue/failed/retry
//	POST   /queue/failed/{id}/retry
//	DELETE /queue/failed
//	DELETE /queue/failed/{id}
//	GET    /network
//	PUT    /network
//	GET    /features
//	PUT    /features/segment
//	PUT    /features/development-mode
//	PUT    /features/{key}/override
//	DELETE /features/{key}/override
//	DELETE /features/overrides
package debugapi
