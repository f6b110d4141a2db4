// Package reconcile implements the batch import-reconciliation and
// pricing-resolution engine. For each staging record imported from the
// plant-control export it resolves the recipe, the referenced materials, the
// contractual unit price (and with it the client), and the construction site,
// collecting validation errors instead of failing the batch.
package reconcile

import "github.com/rmxops/plantctl/internal/catalog"

// RecordStatus is the engine's verdict on one staging record.
type RecordStatus string

const (
	// StatusValid means the record resolved a recipe, client, and price
	// with no blocking errors.
	StatusValid RecordStatus = "valid"
	// StatusWarning means the record resolved fully but carries
	// recoverable material defects a reviewer should look at.
	StatusWarning RecordStatus = "warning"
	// StatusError means the record could not be fully resolved.
	StatusError RecordStatus = "error"
)

// MaterialUsage holds the theoretical and actual quantity readings the
// plant-control system reported for one material code.
type MaterialUsage struct {
	Theoretical float64 `json:"theoretical"`
	Actual      float64 `json:"actual"`
}

// Referenced reports whether the readings constitute a real material
// reference. Zero usage is not evidence of one.
func (u MaterialUsage) Referenced() bool {
	return u.Theoretical > 0 || u.Actual > 0
}

// StagingRecord is one imported delivery ticket. The upstream parser fills
// the input fields; the engine fills the resolved fields and error list in
// place. Records are never dropped, only enriched or error-tagged.
type StagingRecord struct {
	RowNumber      int                      `json:"row_number"`
	ProductCode    string                   `json:"product_code"`
	ProductCodeAlt string                   `json:"product_code_alt,omitempty"`
	ClientName     string                   `json:"client_name"`
	SiteName       string                   `json:"site_name"`
	Materials      map[string]MaterialUsage `json:"materials,omitempty"`

	// Resolved by the engine.
	RecipeID    string              `json:"recipe_id,omitempty"`
	ClientID    string              `json:"client_id,omitempty"`
	SiteID      string              `json:"site_id,omitempty"`
	UnitPrice   float64             `json:"unit_price,omitempty"`
	PriceSource catalog.PriceSource `json:"price_source,omitempty"`
	QuoteID     string              `json:"quote_id,omitempty"`
	QuoteLineID string              `json:"quote_line_id,omitempty"`
	Status      RecordStatus        `json:"status,omitempty"`
	Errors      []ValidationError   `json:"errors,omitempty"`
}

// ErrorType classifies a validation error.
type ErrorType string

const (
	ErrRecipeNotFound   ErrorType = "RecipeNotFound"
	ErrRecipeNoPrice    ErrorType = "RecipeNoPrice"
	ErrMaterialNotFound ErrorType = "MaterialNotFound"
	ErrDataType         ErrorType = "DataTypeError"
)

// ValidationError describes one defect on one record. Domain errors are
// recoverable: the review workflow lets a human fix the record and
// re-validate. Recoverable=false is reserved for unexpected failures at the
// row boundary.
type ValidationError struct {
	RowNumber   int       `json:"row_number"`
	Type        ErrorType `json:"error_type"`
	Field       string    `json:"field_name"`
	Value       string    `json:"field_value"`
	Message     string    `json:"message"`
	Recoverable bool      `json:"recoverable"`
	Suggestion  any       `json:"suggestion,omitempty"`
}

// CodeSuggestion is one near-miss recipe code offered to the reviewer when a
// product code cannot be resolved.
type CodeSuggestion struct {
	Code     string `json:"code"`
	RecipeID string `json:"recipe_id"`
	Distance int    `json:"distance"`
}

// BatchResult is the terminal output of ValidateBatch. Every input record
// appears exactly once in Validated; Errors concatenates the records' errors
// in record order.
type BatchResult struct {
	BatchID   string            `json:"batch_id"`
	Validated []*StagingRecord  `json:"validated"`
	Errors    []ValidationError `json:"errors"`
}
