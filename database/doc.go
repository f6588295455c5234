/*
Package database is the entry point for applications.

A Database owns one session with SQL Server, reached either natively through
go-mssqldb or through the Tarmac host sql capability. Every operation builds a
statement, funnels it through Execute and returns a cursor or an error:

	db, err := database.New(ctx, database.Config{Settings: settings})
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Select(ctx, "id, name", "Users", statement.Where("id = ?", 7))
	if err != nil {
		return err
	}
	defer rows.Release()

Driver failures carry a sqlsrv.ErrorSet. Expected reasons for an operation not
to proceed, such as inserting into a missing table, are reported with errors
wrapping sqlsrv.ErrPrecondition and never reach the server.

A Database is not safe for concurrent use; use one per goroutine or
serialize access.
*/
package database
