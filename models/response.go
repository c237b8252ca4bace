package models

type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

func SuccessResponse(data any) ApiResponse {
	return ApiResponse{Success: true, Data: data}
}
