// Package logger wraps zap for the agent and the CLI:
//   - a global sugared logger writing console-encoded lines to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing for the settings file,
//   - leveled helpers (Info, DebugKV, WarnKV, ErrorKV, ...).
//
// Services take a context and pull the logger out of it, so a device
// pipeline can carry its nickname and host on every line it writes.
package logger
