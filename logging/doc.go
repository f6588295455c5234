/*
Package logging sends log entries to the Tarmac host logging capability.

Client offers one method per host log level. NewCore adapts a Client into a
zapcore.Core so the zap loggers used across this module can forward their
entries to the host alongside, or instead of, local sinks.
*/
package logging
