// Package log provides the logging abstraction used across linetap.
//
// It defines a small structured Logger interface so the transport packages
// never depend on a concrete logging library. A zerolog-backed adapter is
// provided for real use and a no-op implementation for tests and embedders
// that want silence.
//
// Implement the Logger interface to plug in an existing logging setup:
//
//	type myLogger struct{ ... }
//
//	func (l *myLogger) Debug(msg string, fields ...log.Field) { ... }
//	func (l *myLogger) Info(msg string, fields ...log.Field)  { ... }
//	func (l *myLogger) Warn(msg string, fields ...log.Field)  { ... }
//	func (l *myLogger) Error(msg string, fields ...log.Field) { ... }
package log
