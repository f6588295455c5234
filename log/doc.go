// Package log builds the zap logger used by the database package from
// sqlsrv.LogSettings. Entries can go to the console, a rotating file, the
// Tarmac host logging capability, or any combination of them.
package log
