package apperrors

import "errors"

// Session errors represent missing or incomplete session state.
// These errors indicate that a requested resource does not exist or is not ready yet.
var (
	// ErrSessionNotFound indicates that a session with the given ID does not exist or has expired.
	ErrSessionNotFound = errors.New("session not found")

	// ErrDataNotPrepared indicates that the session has an upload but no column mapping was applied.
	ErrDataNotPrepared = errors.New("data has not been prepared")

	// ErrAnalysisNotRun indicates that no forecast has been run for the session yet.
	ErrAnalysisNotRun = errors.New("forecast analysis has not been run")

	// ErrProductNotFound indicates that the product has no forecast in the last analysis,
	// usually because it had too little data.
	ErrProductNotFound = errors.New("product not found in analysis results")
)

// Upload errors represent problems with the raw sales file.
var (
	// ErrEmptyUpload indicates that the uploaded file contains no header row.
	ErrEmptyUpload = errors.New("uploaded file is empty")

	// ErrInvalidCSVHeaders indicates that the header row has empty or duplicate column names.
	ErrInvalidCSVHeaders = errors.New("invalid CSV headers")

	// ErrUploadTooLarge indicates that the upload exceeded the configured size limit.
	ErrUploadTooLarge = errors.New("upload exceeds maximum size")
)

// Mapping errors represent failures to resolve the canonical sales table.
// These are fatal to the prepare operation; no partial table is returned.
var (
	// ErrColumnNotFound indicates that a mapped column does not exist in the upload.
	ErrColumnNotFound = errors.New("column not found")

	// ErrNoValidRows indicates that every row was dropped during cleaning.
	ErrNoValidRows = errors.New("no valid rows after cleaning")

	// ErrInvalidMapping indicates that the mapping configuration itself is incomplete.
	ErrInvalidMapping = errors.New("invalid column mapping")
)

// Forecast errors are local to a single product and never abort a portfolio analysis.
var (
	// ErrInsufficientData indicates fewer aggregated daily points than the minimum.
	ErrInsufficientData = errors.New("insufficient data for forecast")

	// ErrModelFit indicates that the statistical model could not be fitted.
	ErrModelFit = errors.New("model fit failed")

	// ErrModelNotFitted indicates Predict was called before a successful Fit.
	ErrModelNotFitted = errors.New("model has not been fitted")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
var (
	ErrFailedToStageRecords    = errors.New("failed to stage sales records")
	ErrFailedToRetrieveRecords = errors.New("failed to retrieve sales records")
	ErrFailedToBuildDashboard  = errors.New("failed to build dashboard")
	ErrFailedToRunForecast     = errors.New("failed to run forecast")
)
