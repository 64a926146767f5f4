package errors

// Stable error codes used across the pipeline. Codes are machine-readable
// and surface in logs, metrics labels, and command output.
const (
	CodeInputError          = "input_error"
	CodeUnsupportedMedia    = "unsupported_media"
	CodeInvalidLocator      = "invalid_locator"
	CodeTimeout             = "timeout"
	CodeRateLimit           = "rate_limit"
	CodeAuthError           = "auth_error"
	CodeTransportError      = "transport_error"
	CodeParseDegraded       = "parse_degraded"
	CodePartialDistribution = "partial_distribution"
	CodeContextCancelled    = "context_cancelled"
	CodeProcessingError     = "processing_error"
)

// ErrorCodeInfo describes the metadata for a stable error code.
type ErrorCodeInfo struct {
	Code            string
	Retryable       bool
	Description     string
	SuggestedAction string
}

// ErrorCodeRegistry maps error codes to their metadata.
var ErrorCodeRegistry = map[string]ErrorCodeInfo{
	CodeInputError: {
		Code:            CodeInputError,
		Retryable:       false,
		Description:     "Input failed validation",
		SuggestedAction: "Check the input file or arguments and retry",
	},
	CodeUnsupportedMedia: {
		Code:            CodeUnsupportedMedia,
		Retryable:       false,
		Description:     "Input media format is not supported",
		SuggestedAction: "Supply an mp4, mp3, wav, txt or vtt file",
	},
	CodeInvalidLocator: {
		Code:            CodeInvalidLocator,
		Retryable:       false,
		Description:     "Repository locator could not be parsed",
		SuggestedAction: "Use the owner/name form or a full repository URL",
	},
	CodeTimeout: {
		Code:            CodeTimeout,
		Retryable:       true,
		Description:     "Operation exceeded its deadline",
		SuggestedAction: "Retry, or raise the timeout in ~/.recap/config.yaml",
	},
	CodeRateLimit: {
		Code:            CodeRateLimit,
		Retryable:       true,
		Description:     "Remote service rejected the request due to rate limiting",
		SuggestedAction: "Wait and retry the command",
	},
	CodeAuthError: {
		Code:            CodeAuthError,
		Retryable:       false,
		Description:     "Authentication with a remote service failed",
		SuggestedAction: "Run 'recap auth set' to update the stored credential",
	},
	CodeTransportError: {
		Code:            CodeTransportError,
		Retryable:       true,
		Description:     "Remote service was unreachable or returned a server error",
		SuggestedAction: "Check connectivity and retry",
	},
	CodeParseDegraded: {
		Code:            CodeParseDegraded,
		Retryable:       false,
		Description:     "Analysis response could not be parsed as structured JSON",
		SuggestedAction: "Inspect the raw response with 'recap analyze --show-raw'",
	},
	CodePartialDistribution: {
		Code:            CodePartialDistribution,
		Retryable:       true,
		Description:     "One or more distribution destinations failed",
		SuggestedAction: "Re-run 'recap distribute' for the failed destinations",
	},
	CodeContextCancelled: {
		Code:            CodeContextCancelled,
		Retryable:       false,
		Description:     "Operation was cancelled",
		SuggestedAction: "No action needed if cancellation was intentional",
	},
	CodeProcessingError: {
		Code:            CodeProcessingError,
		Retryable:       false,
		Description:     "Unclassified processing failure",
		SuggestedAction: "Inspect the error detail and logs",
	},
}

// IsRetryable reports whether the given error code represents a condition
// that may succeed on retry. Unknown codes are not retryable.
func IsRetryable(code string) bool {
	info, ok := ErrorCodeRegistry[code]
	return ok && info.Retryable
}

// GetSuggestedAction returns the suggested remediation for a code, or an
// empty string for unknown codes.
func GetSuggestedAction(code string) string {
	return ErrorCodeRegistry[code].SuggestedAction
}

// GetDescription returns the human description for a code, or an empty
// string for unknown codes.
func GetDescription(code string) string {
	return ErrorCodeRegistry[code].Description
}
