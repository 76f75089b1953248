package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a network-related error that may be retriable
type NetworkError struct {
	Op        string // Operation that failed (e.g., "markets", "coin_detail")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// StorageError describes a failed access to the durable watchlist medium.
// Kind is ErrStorageUnavailable or ErrCorruptData; Err is the underlying cause.
type StorageError struct {
	Op   string // "load" or "save"
	Key  string
	Kind error
	Err  error
}

func (e *StorageError) Error() string {
	msg := "storage " + e.Op + " [" + e.Key + "]: " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is lets errors.Is match the error kind as well as the cause
func (e *StorageError) Is(target error) bool {
	return target == e.Kind
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageUnavailable wraps a medium failure
func NewStorageUnavailable(op, key string, err error) *StorageError {
	return &StorageError{Op: op, Key: key, Kind: ErrStorageUnavailable, Err: err}
}

// NewCorruptData wraps a parse failure of stored content
func NewCorruptData(key string, err error) *StorageError {
	return &StorageError{Op: "load", Key: key, Kind: ErrCorruptData, Err: err}
}

var (
	// ErrStorageUnavailable is returned when the durable medium cannot be read or written.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrCorruptData is returned when stored content does not parse as a JSON string array.
	ErrCorruptData = errors.New("corrupt stored data")

	// ErrInvalidCoinID is returned for an empty coin identifier. Not retriable.
	ErrInvalidCoinID = errors.New("invalid coin id")

	// ErrCoinNotFound is returned when the market API has no coin with the given id
	ErrCoinNotFound = errors.New("coin not found")

	// ErrRateLimited is returned when the market API keeps answering 429
	ErrRateLimited = errors.New("rate limited")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)

