// Package logger is a small factory around log/slog used by every component
// in this module.
//
// It produces JSON output by default (for log aggregation) and supports a
// human-readable text format for local development. Static attributes such as
// the service name can be attached so every record carries them:
//
//	log := logger.New(
//	    logger.WithFormat(logger.FormatText),
//	    logger.WithLevel(slog.LevelDebug),
//	    logger.WithAttr(slog.String("service", "quotakitd")),
//	)
//
// Components that take an optional *slog.Logger should fall back to
// logger.Noop() so logging never has to be nil-checked on hot paths.
package logger
