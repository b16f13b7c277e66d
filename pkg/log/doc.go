// Package log provides the logging abstraction used by adapterkit components.
//
// The framework logs through the [Logger] interface so that hosts can plug in
// their own logging infrastructure. A zerolog-backed implementation is
// provided for hosts, and a no-op logger is the default everywhere a logger
// is optional.
//
//	logger := log.NewZerolog(log.ZerologOptions{Level: "debug"})
//	logger.Info("adapter started", log.String("adapter", "sim-1"))
package log
