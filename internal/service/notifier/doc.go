// Package notifier delivers alarm messages on a best-effort basis.
//
// Gateway posts a message to an SMS gateway, ConsoleSink echoes it to a
// terminal, and Notifier combines the two without ever returning an error:
// failures are logged and dropped.
package notifier
