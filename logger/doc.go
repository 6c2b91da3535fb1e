// Package logger wraps zerolog with the conventions used across poolstream:
// a process-wide logger configured from Config or the environment, named
// component loggers, and map-based structured fields.
//
//	log := logger.Get("workpool")
//	log.Debug("task handed off", logger.Fields("pool", name, "worker", id))
package logger
