// Package feature decides which features are active for the current client.
//
// A Store holds flag definitions supplied per session by a Source, plus the
// client's own state: its user segment, the experiments it joined, developer
// overrides and the developer-mode switch. Only the client state is
// persisted; flag definitions are always loaded fresh.
//
// # Evaluation
//
// IsEnabled short-circuits in this order:
//
//  1. In developer mode an override for the key wins outright.
//  2. Unknown keys are disabled.
//  3. Flags whose ExpiresAt is in the past are disabled.
//  4. Flags with Enabled set to false are disabled.
//  5. Flags restricted to user segments are disabled unless the client's
//     segment is listed or the list contains "all".
//  6. Flags with a RolloutPercentage are enabled for the clients whose
//     bucket falls under it; all other flags are enabled.
//
// Rollout bucketing is delegated to package rollout and keyed by the client
// id, so a client keeps its decision across sessions and raising the
// percentage only ever adds clients.
//
// # Usage
//
//	clientID, err := feature.LoadOrCreateClientID(ctx, storage)
//	if err != nil {
//		log.Warn("client id not persisted", logger.Error(err))
//	}
//
//	flags := feature.New(
//		feature.WithClientID(clientID),
//		feature.WithPersistence(storage),
//		feature.WithLogger(log),
//	)
//	_ = flags.Load(ctx)
//	if err := flags.Refresh(ctx, feature.FileSource{Path: "flags.yaml"}); err != nil {
//		return err
//	}
//
//	if flags.IsEnabled("NEW_UI") {
//		variant, _ := flags.Variant("NEW_UI")
//		// render variant
//	}
//
// # Flag file
//
// FileSource reads a YAML document:
//
//	flags:
//	  - key: NEW_UI
//	    enabled: true
//	    rollout_percentage: 50
//	  - key: BETA
//	    enabled: true
//	    user_segments: [beta-testers]
//	    expires_at: 2027-01-01T00:00:00Z
package feature
