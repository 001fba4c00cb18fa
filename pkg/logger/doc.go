// Package logger builds *slog.Logger instances for recipekit processes and
// provides attribute helpers that keep key names consistent across the
// offline queue, the feature store and the sync driver.
//
// # Usage
//
//	log := logger.New(
//		logger.WithEnvironment(environment.Production, "recipesync"),
//		logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	log.Info("operation queued",
//		logger.OperationID(id),
//		logger.ResourceType("recipe"),
//	)
//
// Libraries in this module never log through the global default logger; they
// accept a *slog.Logger option and fall back to Discard.
//
// Error and Errors return an empty attribute for nil errors, so
//
//	log.Warn("snapshot save finished", logger.Error(err))
//
// needs no nil check.
package logger
