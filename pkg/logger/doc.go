// Package logger builds configured slog.Logger instances and provides
// typed attribute helpers for the delivery engine's structured logs.
//
// Production defaults are JSON at Info level for log aggregation;
// development gets human-readable text at Debug level.
//
//	log := logger.New(logger.WithProduction("notify"))
//	log.LogAttrs(ctx, slog.LevelInfo, "notification sent",
//	    logger.MessageID(ref),
//	    logger.Channel("email"),
//	)
package logger
