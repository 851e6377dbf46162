package e

import "fmt"

var (
	// Внутренние ошибки конфигурации
	ErrIncorrectEnvVariable  = fmt.Errorf("incorrect environment variable")
	ErrUnknownStorageDriver  = fmt.Errorf("unknown storage driver")
	ErrOutboxRequiresPostgre = fmt.Errorf("outbox requires postgres storage")

	// 400 Bad Request
	ErrStatusBadRequest    = fmt.Errorf("bad request")
	ErrInvalidJSON         = fmt.Errorf("invalid json body")
	ErrProductNameRequired = fmt.Errorf("product name is required")
	ErrProductNameTooLong  = fmt.Errorf("product name is too long")
	ErrInvalidPrice        = fmt.Errorf("invalid price")
	ErrPricePrecision      = fmt.Errorf("price must have at most 2 decimal places")
	ErrVersionRequired     = fmt.Errorf("version is required")
	ErrInvalidVersion      = fmt.Errorf("invalid version")
	ErrInvalidPaging       = fmt.Errorf("invalid paging parameters")
	ErrInvalidID           = fmt.Errorf("invalid product id")

	// 404 Not Found
	ErrProductNotFound = fmt.Errorf("product not found")

	// 409 Conflict
	ErrVersionConflict = fmt.Errorf("version conflict")

	// 415 Unsupported Media Type
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
