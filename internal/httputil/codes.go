package httputil

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeInternalError      = "INTERNAL_ERROR"

	CodeEmailRequired      = "EMAIL_REQUIRED"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"
	CodePasswordRequired   = "PASSWORD_REQUIRED"
	CodePasswordTooShort   = "PASSWORD_TOO_SHORT"

	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeEmailNotFound      = "EMAIL_NOT_FOUND"
	CodeWrongPassword      = "WRONG_PASSWORD"
	CodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	CodeVerificationFailed = "VERIFICATION_FAILED"

	CodeTokenRequired = "TOKEN_REQUIRED"
	CodeInvalidToken  = "INVALID_TOKEN"
	CodeTokenExpired  = "TOKEN_EXPIRED"

	CodeInvalidAuthHeader = "INVALID_AUTH_HEADER"
	CodeMissingAuth       = "MISSING_AUTH"
)
