package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rmxops/plantctl/internal/normalize"
)

// ResolveMaterials checks every material code the record actually references
// (strictly positive theoretical or actual quantity) against the materials
// catalog. Missing codes produce one MaterialNotFound error listing them all;
// inactive codes produce a second, separate error. Both are recoverable and
// do not block pricing.
func ResolveMaterials(ctx context.Context, lk Lookup, rec *StagingRecord) ([]ValidationError, error) {
	codes := referencedMaterialCodes(rec)
	if len(codes) == 0 {
		return nil, nil
	}

	found, err := lk.MaterialsByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}

	var missing, inactive []string
	for _, code := range codes {
		m, ok := found[normalize.Text(code)]
		switch {
		case !ok:
			missing = append(missing, code)
		case !m.Active:
			inactive = append(inactive, code)
		}
	}

	var errs []ValidationError
	if len(missing) > 0 {
		errs = append(errs, ValidationError{
			RowNumber:   rec.RowNumber,
			Type:        ErrMaterialNotFound,
			Field:       "materials",
			Value:       strings.Join(missing, ", "),
			Message:     fmt.Sprintf("materials not in catalog: %s", strings.Join(missing, ", ")),
			Recoverable: true,
		})
	}
	if len(inactive) > 0 {
		errs = append(errs, ValidationError{
			RowNumber:   rec.RowNumber,
			Type:        ErrMaterialNotFound,
			Field:       "materials",
			Value:       strings.Join(inactive, ", "),
			Message:     fmt.Sprintf("materials inactive in catalog: %s", strings.Join(inactive, ", ")),
			Recoverable: true,
		})
	}
	return errs, nil
}

// referencedMaterialCodes returns the record's material codes with a strictly
// positive reading, sorted for deterministic lookups and error messages.
func referencedMaterialCodes(rec *StagingRecord) []string {
	var codes []string
	for code, usage := range rec.Materials {
		if usage.Referenced() {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}
