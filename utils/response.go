package utils

import "github.com/developia-II/storefront-backend/internal/models"

// Response is the JSON envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ListResponse is the envelope of list endpoints. Count is the size of this
// page, Total the number of matching records.
type ListResponse struct {
	Success    bool              `json:"success"`
	Count      int               `json:"count"`
	Total      int64             `json:"total"`
	Pagination models.Pagination `json:"pagination"`
	Data       any               `json:"data"`
}

func SuccessResponse(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

func CodedErrorResponse(code, message string) Response {
	return Response{Success: false, Code: code, Message: message}
}

func ListPage(count int, total int64, pagination models.Pagination, data any) ListResponse {
	return ListResponse{Success: true, Count: count, Total: total, Pagination: pagination, Data: data}
}
