// Package render writes report row streams to their output format.
package render

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Checker-Finance/connect-reports/internal/report"
)

// CSV streams every item of the row stream to w as RFC 4180 CSV. The header
// row, when the generator was asked for one, is just the first item.
func CSV(ctx context.Context, w io.Writer, stream *report.RowStream) error {
	cw := csv.NewWriter(w)
	for stream.Next(ctx) {
		if err := cw.Write(stream.Row()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
