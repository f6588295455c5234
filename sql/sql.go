package sql

import (
	"errors"
	"fmt"

	sdkproto "github.com/tarmac-project/protobuf-go/sdk"
	proto "github.com/tarmac-project/protobuf-go/sdk/sql"
	"github.com/tarmac-project/sqlsrv"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const (
	capabilityName = "sql"
	fnExec         = "exec"
	fnQuery        = "query"

	hostStatusOK       = int32(200)
	hostStatusPartial  = int32(206)
	hostStatusBadInput = int32(400)
	hostStatusMissing  = int32(404)
	hostStatusError    = int32(500)
)

var (
	// ErrInvalidQuery indicates an empty SQL query.
	ErrInvalidQuery = errors.New("query is invalid")

	// ErrMarshalRequest wraps failures while encoding the request payload.
	ErrMarshalRequest = errors.New("failed to marshal request")

	// ErrUnmarshalResponse wraps failures while decoding the host response.
	ErrUnmarshalResponse = errors.New("failed to unmarshal response")
)

// HostCall defines the waPC host function signature used by SQL operations.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Config controls how a Client instance interacts with the host runtime.
type Config struct {
	// Runtime provides the namespace used for host calls.
	Runtime sqlsrv.RuntimeConfig

	// HostCall overrides the waPC host function used for SQL operations.
	HostCall HostCall
}

// ExecResult mirrors the SQLExecResponse payload fields.
type ExecResult struct {
	// LastInsertID is the ID of the last inserted row, when available.
	LastInsertID int64
	// RowsAffected is the number of rows affected by the statement.
	RowsAffected int64
}

// QueryResult mirrors the SQLQueryResponse payload fields.
type QueryResult struct {
	// Columns are the column names returned by the query.
	Columns []string
	// Data is a JSON array holding one object per row.
	Data []byte
}

// Client sends SQL text to the host sql capability.
type Client struct {
	runtime  sqlsrv.RuntimeConfig
	hostCall HostCall
}

// New creates a host SQL client.
func New(config Config) (*Client, error) {
	runtime := config.Runtime
	if runtime.Namespace == "" {
		runtime.Namespace = sqlsrv.DefaultNamespace
	}

	hostCall := config.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &Client{runtime: runtime, hostCall: hostCall}, nil
}

// Exec executes a SQL statement that does not return rows.
func (c *Client) Exec(query string) (ExecResult, error) {
	if query == "" {
		return ExecResult{}, ErrInvalidQuery
	}

	b, err := (&proto.SQLExec{Query: []byte(query)}).MarshalVT()
	if err != nil {
		return ExecResult{}, errors.Join(ErrMarshalRequest, err)
	}

	respBytes, callErr := c.hostCall(c.runtime.Namespace, capabilityName, fnExec, b)
	if callErr != nil && len(respBytes) == 0 {
		return ExecResult{}, errors.Join(sqlsrv.ErrHostCall, callErr)
	}

	var resp proto.SQLExecResponse
	if unmarshalErr := resp.UnmarshalVT(respBytes); unmarshalErr != nil {
		return ExecResult{}, invalidResponse(callErr, unmarshalErr)
	}

	if statusErr := validateStatus(resp.GetStatus(), callErr); statusErr != nil {
		return ExecResult{}, statusErr
	}

	return ExecResult{
		LastInsertID: resp.GetLastInsertId(),
		RowsAffected: resp.GetRowsAffected(),
	}, nil
}

// Query executes a SQL statement that returns rows.
func (c *Client) Query(query string) (QueryResult, error) {
	if query == "" {
		return QueryResult{}, ErrInvalidQuery
	}

	b, err := (&proto.SQLQuery{Query: []byte(query)}).MarshalVT()
	if err != nil {
		return QueryResult{}, errors.Join(ErrMarshalRequest, err)
	}

	respBytes, callErr := c.hostCall(c.runtime.Namespace, capabilityName, fnQuery, b)
	if callErr != nil && len(respBytes) == 0 {
		return QueryResult{}, errors.Join(sqlsrv.ErrHostCall, callErr)
	}

	var resp proto.SQLQueryResponse
	if unmarshalErr := resp.UnmarshalVT(respBytes); unmarshalErr != nil {
		return QueryResult{}, invalidResponse(callErr, unmarshalErr)
	}

	if statusErr := validateStatus(resp.GetStatus(), callErr); statusErr != nil {
		return QueryResult{}, statusErr
	}

	return QueryResult{
		Columns: resp.GetColumns(),
		Data:    resp.GetData(),
	}, nil
}

// Close releases resources held by the client. The host owns the database
// connection, so there is nothing to release.
func (c *Client) Close() error {
	return nil
}

func invalidResponse(callErr, unmarshalErr error) error {
	if callErr != nil {
		return errors.Join(sqlsrv.ErrHostCall, callErr, sqlsrv.ErrHostResponseInvalid, ErrUnmarshalResponse, unmarshalErr)
	}
	return errors.Join(sqlsrv.ErrHostResponseInvalid, ErrUnmarshalResponse, unmarshalErr)
}

// validateStatus maps the host status to an error. Failure statuses carry an
// ErrorSet holding the status code and message.
func validateStatus(status *sdkproto.Status, callErr error) error {
	if status == nil {
		if callErr != nil {
			return errors.Join(sqlsrv.ErrHostCall, callErr, sqlsrv.ErrHostResponseInvalid)
		}
		return sqlsrv.ErrHostResponseInvalid
	}

	code := status.GetCode()
	switch code {
	case hostStatusOK, hostStatusPartial:
		return nil
	case hostStatusBadInput, hostStatusMissing, hostStatusError:
		msg := status.GetStatus()
		if msg == "" {
			msg = fmt.Sprintf("host status %d", code)
		}
		set := sqlsrv.ErrorSet{{Code: code, State: "host", Message: msg}}
		if callErr != nil {
			return errors.Join(sqlsrv.ErrHostCall, callErr, sqlsrv.ErrHostError, set)
		}
		return errors.Join(sqlsrv.ErrHostError, set)
	default:
		statusErr := fmt.Errorf("unexpected host status code %d", code)
		if callErr != nil {
			return errors.Join(sqlsrv.ErrHostCall, callErr, sqlsrv.ErrHostResponseInvalid, statusErr)
		}
		return errors.Join(sqlsrv.ErrHostResponseInvalid, statusErr)
	}
}
