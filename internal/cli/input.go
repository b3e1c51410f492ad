package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dvloznov/orb-loader/internal/gcs"
)

// openInput opens the input table from a local path or a gs:// URI. The
// returned close function must be called when reading is done.
func openInput(ctx context.Context, input string) (io.Reader, func() error, error) {
	if gcs.IsGCSURI(input) {
		data, err := gcs.NewService().Fetch(ctx, input)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch input from GCS: %w", err)
		}
		return bytes.NewReader(data), func() error { return nil }, nil
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, nil, fmt.Errorf("open input file: %w", err)
	}
	return f, f.Close, nil
}
