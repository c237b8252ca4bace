package utils

import (
	"encoding/json"
	"net/http"

	"github.com/skotte/skyfall/skyfall-server/models"
	"github.com/skotte/skyfall/skyfall-server/responses"
)

func HandleSuccess(w http.ResponseWriter, response models.ApiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// HandleError maps the error onto an HTTP status and writes the JSON
// body. Unknown error types become a 500.
func HandleError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	errorMsg := "Internal Server Error"

	if apiErr, ok := err.(responses.APIError); ok {
		statusCode = apiErr.StatusCode()
		errorMsg = apiErr.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ApiResponse{Success: false, Data: nil, Error: errorMsg})
}
