package proxy

import "fmt"

// StatusError is an error that carries the HTTP/1.0 status the proxy should
// report to the client: 400 for a malformed request, 501 for an
// unsupported method, 502 for an origin connect/IO failure.
type StatusError struct {
	Code   int
	Reason string
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%d %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("%d %s: %s", e.Code, e.Reason, e.Detail)
}

func badRequest(detail string) error {
	return &StatusError{Code: 400, Reason: "Bad Request", Detail: detail}
}

func notImplemented(method string) error {
	return &StatusError{Code: 501, Reason: "Not Implemented", Detail: "unsupported method " + method}
}

func badGateway(detail string) error {
	return &StatusError{Code: 502, Reason: "Bad Gateway", Detail: detail}
}

// htmlBody renders the minimal diagnostic page shown to the client on a
// proxy-level failure.
func (e *StatusError) htmlBody() string {
	return fmt.Sprintf("<html><body><h1>%d %s</h1><p>%s</p></body></html>", e.Code, e.Reason, e.Detail)
}
