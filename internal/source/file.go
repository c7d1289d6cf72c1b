package source

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/laev/existence/internal/config"
)

type fileReader struct {
	src config.Source
}

// Read parses the exposition file at the source endpoint.
func (r *fileReader) Read(ctx context.Context) (*Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(r.src.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("source %q: open: %w", r.src.ID, err)
	}
	defer f.Close()

	mfs, err := parseMetrics(f)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", r.src.ID, err)
	}
	return extract(r.src.ID, mfs, time.Now().UTC()), nil
}
