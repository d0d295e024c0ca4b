package shopify

import (
	"encoding/json"
	"fmt"
)

// RequestInfo echoes the attempted call for diagnostics.
type RequestInfo struct {
	Method string          `json:"method"`
	URL    string          `json:"url"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// Envelope is the result of a single Execute call.
//
// Exactly one of Response and Err is set once a call was attempted. A call
// rejected before any request was built (unsupported method) leaves the zero
// envelope: no request, no status, no failure, and Success() is false.
type Envelope struct {
	Request  *RequestInfo    `json:"request,omitempty"`
	HTTPCode int             `json:"http_code,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Err      Failure         `json:"error,omitempty"`
}

func (e Envelope) Success() bool {
	return e.Err == nil && e.Response != nil && e.HTTPCode >= 200 && e.HTTPCode < 300
}

// Decode unmarshals the successful response body into v.
func (e Envelope) Decode(v any) error {
	if !e.Success() {
		return fmt.Errorf("decode unsuccessful envelope")
	}
	return json.Unmarshal(e.Response, v)
}

type FailureKind string

const (
	KindTransport FailureKind = "TRANSPORT"
	KindDecode    FailureKind = "DECODE"
	KindAPI       FailureKind = "API"
)

// Failure is implemented only by *TransportError, *DecodeError and *APIError.
type Failure interface {
	error
	Kind() FailureKind
	isFailure()
}

// TransportError means no complete response was received.
type TransportError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("shopify transport error: %s: %s", e.Code, e.Message)
}
func (e *TransportError) Unwrap() error     { return e.Err }
func (e *TransportError) Kind() FailureKind { return KindTransport }
func (e *TransportError) isFailure()        {}

func (e *TransportError) MarshalJSON() ([]byte, error) {
	return marshalFailure(e.Kind(), e.Code, e.Message, nil)
}

// DecodeError means a 2xx response body was not valid JSON, or the request
// body could not be encoded.
type DecodeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("shopify decode error: %s: %s", e.Code, e.Message)
}
func (e *DecodeError) Unwrap() error     { return e.Err }
func (e *DecodeError) Kind() FailureKind { return KindDecode }
func (e *DecodeError) isFailure()        {}

func (e *DecodeError) MarshalJSON() ([]byte, error) {
	return marshalFailure(e.Kind(), e.Code, e.Message, nil)
}

// APIError is a non-2xx answer from the Admin API. Details carries the
// body's "errors" member when the body was JSON.
type APIError struct {
	Status  int             `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("shopify api error: status=%d %s details=%s", e.Status, e.Message, string(e.Details))
	}
	return fmt.Sprintf("shopify api error: status=%d %s", e.Status, e.Message)
}
func (e *APIError) Kind() FailureKind { return KindAPI }
func (e *APIError) isFailure()        {}

func (e *APIError) MarshalJSON() ([]byte, error) {
	return marshalFailure(e.Kind(), e.Status, e.Message, e.Details)
}

func marshalFailure(kind FailureKind, code any, message string, details json.RawMessage) ([]byte, error) {
	return json.Marshal(struct {
		Type    FailureKind     `json:"type"`
		Code    any             `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details,omitempty"`
	}{kind, code, message, details})
}
