package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
)

// maxLineSize bounds one encoded transaction
const maxLineSize = 16 * 1024 * 1024

// LoadResult summarizes a load
type LoadResult struct {
	Published int
	Skipped   int
}

// Load publishes newline-delimited transactions read from r. Blank lines are skipped,
// a line that does not decode stops the load with ErrMalformedPayload
func Load(ctx context.Context, r io.Reader, p Publisher) (LoadResult, error) {
	var result LoadResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return result, err
		}

		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			result.Skipped++
			continue
		}

		tx, err := decode(data)
		if err != nil {
			return result, fmt.Errorf("line %d: %w", line, err)
		}

		if err := p.Publish(ctx, tx); err != nil {
			return result, fmt.Errorf("line %d: %w", line, err)
		}
		result.Published++

		if result.Published%10000 == 0 {
			logger.InfoCtx(ctx, "Publishing transactions", zap.Int("published", result.Published), zap.Uint64("version", tx.Version))
		}
	}

	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("failed to read transactions: %w", err)
	}

	return result, nil
}
