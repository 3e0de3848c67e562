// Package logging provides structured logging configuration for billingmock.
//
// It wraps log/slog so the store, the request engine and the strategies log
// the same way:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})
//	store := stateful.NewStore(registry, stateful.WithLogger(logger))
//
// Components accept a *slog.Logger through an option. When none is given they
// fall back to Nop so library users see no output unless they ask for it.
package logging
