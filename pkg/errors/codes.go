package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeDatabaseError      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeStorageError       ErrorCode = "COMMON_012"
	ErrCodeMessageQueueError  ErrorCode = "COMMON_013"
)

// Extraction error codes.
const (
	// ErrCodeEmptyDocument signals a text file whose decoded content is all
	// whitespace.
	ErrCodeEmptyDocument ErrorCode = "DOC_001"

	// ErrCodeEmptyContent signals that extraction produced no usable text at
	// the orchestrator boundary.
	ErrCodeEmptyContent ErrorCode = "DOC_002"

	// ErrCodeExtractionFailed is the generic extraction failure of unknown cause.
	ErrCodeExtractionFailed ErrorCode = "EXT_001"

	// ErrCodeDocumentCorrupt signals structural corruption of the source file.
	ErrCodeDocumentCorrupt ErrorCode = "EXT_002"

	// ErrCodeEngineFailure signals a rendering-engine or worker failure, as
	// opposed to a bad input document.
	ErrCodeEngineFailure ErrorCode = "EXT_003"

	// ErrCodeExtractionTimeout signals that the extraction stage exceeded its
	// deadline.
	ErrCodeExtractionTimeout ErrorCode = "EXT_004"

	// ErrCodeOCRFailed signals an OCR engine failure for a single page. It is
	// always absorbed by the extractor and must never cross a package boundary.
	ErrCodeOCRFailed ErrorCode = "OCR_001"
)

// Analysis error codes.
const (
	ErrCodeAnalysisTimeout ErrorCode = "AN_001"
	ErrCodeAnalysisService ErrorCode = "AN_002"
	ErrCodeAnalysisInvalid ErrorCode = "AN_003"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeMessageQueueError:  http.StatusInternalServerError,

	ErrCodeEmptyDocument:     http.StatusUnprocessableEntity,
	ErrCodeEmptyContent:      http.StatusUnprocessableEntity,
	ErrCodeExtractionFailed:  http.StatusUnprocessableEntity,
	ErrCodeDocumentCorrupt:   http.StatusUnprocessableEntity,
	ErrCodeEngineFailure:     http.StatusInternalServerError,
	ErrCodeExtractionTimeout: http.StatusGatewayTimeout,
	ErrCodeOCRFailed:         http.StatusInternalServerError,

	ErrCodeAnalysisTimeout: http.StatusGatewayTimeout,
	ErrCodeAnalysisService: http.StatusBadGateway,
	ErrCodeAnalysisInvalid: http.StatusBadGateway,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeStorageError:       "object storage error",
	ErrCodeMessageQueueError:  "message queue error",

	ErrCodeEmptyDocument:     "document contains no text",
	ErrCodeEmptyContent:      "extracted content is empty",
	ErrCodeExtractionFailed:  "text extraction failed",
	ErrCodeDocumentCorrupt:   "document structure is corrupt or unreadable",
	ErrCodeEngineFailure:     "document engine failure",
	ErrCodeExtractionTimeout: "text extraction timed out",
	ErrCodeOCRFailed:         "OCR failed",

	ErrCodeAnalysisTimeout: "document analysis timed out",
	ErrCodeAnalysisService: "analysis service returned an error",
	ErrCodeAnalysisInvalid: "analysis service returned an unusable response",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}
