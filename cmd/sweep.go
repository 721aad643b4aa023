package cmd

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"salon-booking/internal/usecase"
)

// Sweep runs the expiry sweep once and writes the result as JSON to out.
func Sweep(ctx context.Context, expiry usecase.ExpiryService, olderThan time.Duration, dryRun bool, out io.Writer) error {
	result, err := expiry.Sweep(ctx, olderThan, dryRun)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
