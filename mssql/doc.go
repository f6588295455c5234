/*
Package mssql is the native SQL Server transport.

Dialer opens one dedicated connection through sqlx and go-mssqldb and keeps
it for the life of the session, so session state such as #temp tables
survives between statements. Statements are sent with their `?`
placeholders rebound to the @pN form and their values bound by the driver.

Driver failures are translated into sqlsrv.ErrorSet, one record per server
message. Failures that leave the connection unusable are additionally
joined with sqlsrv.ErrConnectionLost.
*/
package mssql
