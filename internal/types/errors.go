package types

// Error codes returned by the editor API.
const (
	CodeInvalidDevice   = "DEVICE_400"
	CodeDeviceNotFound  = "DEVICE_404"
	CodeInvalidSettings = "SETTINGS_400"
	CodeInvalidCommand  = "COMMAND_400"
	CodeSwitchSimulator = "SWITCH_409"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewErrorResponse builds the error envelope used by every API handler.
func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}
