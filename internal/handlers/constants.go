package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgInvalidID          = "Invalid ID"
	ErrMsgUnauthorized       = "Unauthorized"
)
