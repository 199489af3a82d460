package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument      = 1000
	ErrCodeInvalidJSON          = 1001
	ErrCodeRequestTooLarge      = 1002
	ErrCodeInvalidID            = 1003
	ErrCodeMissingRequired      = 1004
	ErrCodeUnsupportedMediaKind = 1005
	ErrCodeInvalidVersion       = 1006

	// Domain state (2xxx)
	ErrCodeRecordNotFound  = 2001
	ErrCodeMediaNotFound   = 2002
	ErrCodeVersionConflict = 2101

	// Auth (3xxx)
	ErrCodeUnauthorized = 3001

	// Internal/system (4xxx)
	ErrCodeInternal           = 4001
	ErrCodeStorageFailure     = 4002
	ErrCodePersistenceFailure = 4003
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 401:
		return ErrCodeUnauthorized
	case 404:
		return ErrCodeRecordNotFound
	case 409:
		return ErrCodeVersionConflict
	case 500:
		return ErrCodeInternal
	default:
		return 0
	}
}
