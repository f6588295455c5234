/*
Package sql executes statements through the Tarmac host sql capability.

Client is the thin waPC client: Exec and Query send protobuf SQLExec and
SQLQuery payloads and validate the host status. Dialer adapts a Client into a
session transport for the database package. The host cannot bind
parameters, so statements are inlined with statement.Inline before they are
sent; row-returning statements go to the query function and their JSON row
data is decoded into a cursor row stream, everything else goes to exec.
*/
package sql
