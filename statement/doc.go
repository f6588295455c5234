/*
Package statement builds the SQL text sent by the database package.

Builders are pure functions: they validate identifiers, place a `?`
placeholder wherever a caller value belongs and return a Statement carrying
the text and its arguments. Transports that can bind parameters rebind the
placeholders for their driver; transports that cannot use Inline, which
renders every argument through Literal, the only place values are escaped.

WHERE fragments are caller-composed SQL. They are written without the WHERE
keyword for every verb (a leading keyword is tolerated and stripped) and
values inside them must be passed as arguments:

	stmt, err := statement.Select("id, name", "Users", statement.Where("id = ?", 1))
*/
package statement
