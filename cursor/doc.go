/*
Package cursor wraps the result of a successful statement execution.

A Cursor is created in one of two modes. Static cursors read the whole
result set when they are created and release the driver rows immediately;
they know their row count. Forward cursors stream rows from the driver and
hold its resources until they are exhausted or released.

Callers release every cursor they receive, on every exit path.
*/
package cursor
