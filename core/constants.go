package core

import "errors"

// Form endpoint and the fields it reports
const (
	ParamsInfoTarget = "/params_info.html"
	FieldMessage     = "message"
	FieldLoveCN      = "loveCN"
)

// Content types produced by the dispatcher itself
const (
	ContentTypeHTML  = "text/html"
	ContentTypeText  = "text/plain"
	ContentTypeTrace = "message/http"
)

const badPathMessage = "Bad Request: The requested path is not allowed."

// Error definitions
var (
	ErrServerClosed = errors.New("server closed")
)
