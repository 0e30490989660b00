package api

// Error taxonomy codes carried in the response envelope. Identity failures
// (UNAUTHORIZED, INVALID_TOKEN, USER_NOT_FOUND) are written by the auth
// middleware; everything else originates here.
const (
	CodeAccessDenied        = "ACCESS_DENIED"
	CodeForbidden           = "FORBIDDEN"
	CodeMissingFields       = "MISSING_FIELDS"
	CodeMissingProjectID    = "MISSING_PROJECT_ID"
	CodeNotFound            = "NOT_FOUND"
	CodeProjectNotFound     = "PROJECT_NOT_FOUND"
	CodeCardNotFound        = "CARD_NOT_FOUND"
	CodeDuplicateEntry      = "DUPLICATE_ENTRY"
	CodeForeignKeyViolation = "FOREIGN_KEY_VIOLATION"
	CodeNotNullViolation    = "NOT_NULL_VIOLATION"
	CodeCreateError         = "CREATE_ERROR"
	CodeUpdateError         = "UPDATE_ERROR"
	CodeDeleteError         = "DELETE_ERROR"
	CodeFetchError          = "FETCH_ERROR"
	CodeGrantError          = "GRANT_ERROR"
	CodeRevokeError         = "REVOKE_ERROR"
	CodeMoveError           = "MOVE_ERROR"
	CodePartialCreate       = "PARTIAL_CREATE"
	CodeInternalError       = "INTERNAL_ERROR"
)
