package apiclient

import (
	"encoding/json"
	"fmt"
)

// Error codes shared with the API. NetworkError and BadResponse are produced
// locally when no usable envelope came back.
const (
	CodeNetworkError       = "NETWORK_ERROR"
	CodeBadResponse        = "BAD_RESPONSE"
	CodeUnknownRoute       = "UNKNOWN_ROUTE"
	CodeSessionExpired     = "SESSION_EXPIRED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeUserBlocked        = "USER_BLOCKED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInvalidState       = "INVALID_STATE"
	CodeInternal           = "INTERNAL"
)

type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type PageMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// Envelope is the normalized result of every call. Binary downloads leave
// Data empty and carry the payload in Raw.
type Envelope struct {
	StatusCode  int             `json:"-"`
	Success     bool            `json:"success"`
	Data        json.RawMessage `json:"data,omitempty"`
	Meta        *PageMeta       `json:"meta,omitempty"`
	Error       *APIError       `json:"error,omitempty"`
	Raw         []byte          `json:"-"`
	ContentType string          `json:"-"`
	FileName    string          `json:"-"`
}

// Err returns the envelope error, or nil on success.
func (e Envelope) Err() error {
	if e.Success {
		return nil
	}
	if e.Error != nil {
		return e.Error
	}
	return &APIError{StatusCode: e.StatusCode, Code: CodeBadResponse, Message: "request failed"}
}

// Decode unmarshals Data into out. A failed envelope returns its error.
func (e Envelope) Decode(out any) error {
	if err := e.Err(); err != nil {
		return err
	}
	if len(e.Data) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return &APIError{StatusCode: e.StatusCode, Code: CodeBadResponse, Message: fmt.Sprintf("decode data: %v", err)}
	}
	return nil
}

func failure(status int, code, message string) Envelope {
	return Envelope{
		StatusCode: status,
		Error:      &APIError{StatusCode: status, Code: code, Message: message},
	}
}
