package response

// Error — тело любой ошибки HTTP API.
type Error struct {
	Message string `json:"message"`
}

func NewError(message string) Error {
	return Error{Message: message}
}
