// Package logging provides structured logging for Mercator Saturn.
//
// It wraps log/slog with configurable level and format (json, text,
// console) and per-component child loggers. All Saturn components obtain
// their logger through this package so that output format and level are
// controlled in one place.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	log := logger.Component("ledger")
//	log.Info("usage recorded", "model", rec.Model, "cost", rec.Cost)
package logging
