// Package logging provides structured logging for the dna command surface.
//
// It wraps Go's log/slog to write JSON lines to a size-rotated file under the
// project's state directory. Stdout belongs to command output and to the stdio
// tool server, so the logger never writes there.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(logDir, "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	cmdLogger := logger.WithCommand("set").WithNode("DEC-002")
//	cmdLogger.Info("field updated", "field", "state", "to", "committed")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"field updated","command":"set","node":"DEC-002","field":"state","to":"committed"}
//
// # Thread Safety
//
// [Logger] and [RotatingWriter] are safe for concurrent use. Child loggers share
// the parent's writer.
package logging
