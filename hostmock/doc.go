/*
Package hostmock provides a pretend Tarmac host for waPC calls.

It is used to test the host transport, host logging and host metrics without
a real host: calls are recorded, routed by function name and answered with
scripted bytes or errors.

Quick start

	m, _ := hostmock.New(hostmock.Config{
	  ExpectedNamespace:  "tarmac",
	  ExpectedCapability: "sql",
	  Routes: map[string]hostmock.Handler{
	    "query": func(p []byte) ([]byte, error) {
	      // Unmarshal the SQLQuery, assert on it, return a SQLQueryResponse
	      return resp, nil
	    },
	  },
	})

	client, _ := sql.New(sql.Config{HostCall: m.HostCall})

Behavior

  - Every call is recorded first; Calls and CallCount expose them.
  - If Fail is true, HostCall returns Error, or ErrOperationFailed when Error is nil.
  - ExpectedNamespace and ExpectedCapability are enforced when set.
  - With Routes set, the handler for the function answers the call and
    functions without a route fail with ErrUnexpectedFunction.
  - Without Routes, ExpectedFunction is enforced when set, PayloadValidator
    runs when provided and Response (when set) provides the return bytes.
*/
package hostmock
