package utils

// Response is the standard envelope for every endpoint: a status code, a
// human-readable message, and the payload (null for errors).
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ListData is the payload shape of paginated list endpoints.
type ListData struct {
	Count   int64       `json:"count"`
	Results interface{} `json:"results"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
}

func NewResponse(status int, message string, data interface{}) Response {
	return Response{
		Status:  status,
		Message: message,
		Data:    data,
	}
}

// NewSuccessResponse creates a success Response with status 200.
func NewSuccessResponse(message string, data interface{}) Response {
	return Response{
		Status:  200,
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse creates an error Response. Data is explicitly nil.
func NewErrorResponse(status int, message string) Response {
	return Response{
		Status:  status,
		Message: message,
		Data:    nil,
	}
}
