package schemas

// ErrorResponse struct
type ErrorResponse struct {
	Error       bool
	Problem     string
	Description string
}

// Message struct
type Message struct {
	Message string
}

// DataResponse wraps the payload of a successful request
type DataResponse struct {
	Message string `json:",omitempty"`
	Data    interface{}
}
