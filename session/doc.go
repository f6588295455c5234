/*
Package session manages the single database handle behind a Database.

A Session is either Disconnected or Connected. EnsureConnected dials exactly
once when the session is disconnected, with the settings stored at
construction, and returns the live handle otherwise. Close releases the
handle and returns the session to Disconnected, so the next operation
reconnects. There is no retry and no backoff: a failed dial is reported to
the caller as an ErrorSet joined with sqlsrv.ErrConnect.

A Session is not safe for concurrent use. Callers needing concurrency use one
Session per goroutine or serialize access.
*/
package session
