/*
Package sqlsrv provides the shared settings and error model for a small SQL
Server access layer.

The package exposes Settings, which carries the credentials and transport
options used by the session and database packages, and the error taxonomy
every operation reports through: ErrorSet for structured driver errors and
the sentinel errors used to classify them. DefaultNamespace is used when the
Tarmac host transport is selected without an explicit namespace.
*/
package sqlsrv
