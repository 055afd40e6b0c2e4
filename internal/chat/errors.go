package chat

import "errors"

// ErrNoQuestion indicates the conversation's final turn carries no user
// question. Fatal precondition: surfaced before any external call, not
// retried.
// Used by: internal/api for HTTP status mapping.
var ErrNoQuestion = errors.New("conversation has no pending user question")
