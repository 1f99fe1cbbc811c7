package errors

// ─────────────────────────────────────────────────────────────────────────────
// Error codes
// ─────────────────────────────────────────────────────────────────────────────

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every layer.
const (
	ErrCodeInternal       ErrorCode = "COMMON_001"
	ErrCodeBadRequest     ErrorCode = "COMMON_002"
	ErrCodeNotFound       ErrorCode = "COMMON_003"
	ErrCodeValidation     ErrorCode = "COMMON_004"
	ErrCodeTimeout        ErrorCode = "COMMON_005"
	ErrCodeSerialization  ErrorCode = "COMMON_006"
	ErrCodeExternalService ErrorCode = "COMMON_007"
	ErrCodeNotImplemented ErrorCode = "COMMON_008"
)

// Omics data model error codes.
//
// These cover the alignment and shape failure classes: empty sample
// intersections across blocks, mismatched sample counts between data and
// labels, duplicate identifiers, and molecule-identifier collisions when
// concatenating blocks column-wise.
const (
	ErrCodeEmptyIntersection ErrorCode = "OMX_001"
	ErrCodeShapeMismatch     ErrorCode = "OMX_002"
	ErrCodeColumnCollision   ErrorCode = "OMX_003"
	ErrCodeDuplicateSample   ErrorCode = "OMX_004"
	ErrCodeDuplicateColumn   ErrorCode = "OMX_005"
	ErrCodeUnknownSample     ErrorCode = "OMX_006"
)

// Pathway catalog error codes.
const (
	ErrCodePathwayNotFound ErrorCode = "PWY_001"
	ErrCodeCoverageEmpty   ErrorCode = "PWY_002"
	ErrCodeGMTParse        ErrorCode = "PWY_003"
)

// Model / estimator capability error codes.
const (
	ErrCodeCapabilityMissing ErrorCode = "MDL_001"
	ErrCodeInvalidComponents ErrorCode = "MDL_002"
	ErrCodeNotFitted         ErrorCode = "MDL_003"
	ErrCodeFitFailed         ErrorCode = "MDL_004"
)

// Synthetic enrichment simulation error codes.
const (
	ErrCodeEnrichmentNoMolecules ErrorCode = "SIM_001"
	ErrCodeInvalidEffect         ErrorCode = "SIM_002"
	ErrCodeInvalidClusterCount   ErrorCode = "SIM_003"
)

// Compound search collaborator error codes.
const (
	ErrCodeSearchUnavailable ErrorCode = "SRCH_001"
	ErrCodeSearchFailed      ErrorCode = "SRCH_002"
	ErrCodeEmbeddingFailed   ErrorCode = "SRCH_003"
)
