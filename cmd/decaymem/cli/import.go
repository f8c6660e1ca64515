package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oceanbase/decaymem-go/pkg/core"
	"github.com/oceanbase/decaymem-go/pkg/vectors"
)

// importTags are attached to every imported utterance.
var importTags = []string{"conversation", "csv_data"}

func importCmd(g *globalFlags) *cobra.Command {
	var batchSize int
	cmd := &cobra.Command{
		Use:   "import [file.csv]",
		Short: "Bulk import utterances from a CSV file",
		Long: `import reads a CSV file with the header utterance,role,unix_timestamp and
stores every row in buffered mode. The timestamp shapes the temporal vector.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchSize <= 0 {
				return fmt.Errorf("batch size must be positive, got %d", batchSize)
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			entries, err := readEntries(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			return g.withClient(cmd.Context(), func(c *core.Config) {
				c.Memory.InsertMode = core.ModeBuffered.String()
			}, func(ctx context.Context, client *core.Client) error {
				start := time.Now()
				stored := 0
				for i := 0; i < len(entries); i += batchSize {
					end := min(i+batchSize, len(entries))
					ids, err := client.StoreBulk(ctx, entries[i:end])
					if err != nil {
						return fmt.Errorf("rows %d-%d: %w", i+1, end, err)
					}
					stored += len(ids)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d memories in %s\n", stored, time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 500, "rows per bulk write")
	return cmd
}

// readEntries parses utterance,role,unix_timestamp rows. Columns are found
// by header name.
func readEntries(r io.Reader) ([]core.Entry, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, err
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, want := range []string{"utterance", "role", "unix_timestamp"} {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("missing column %q", want)
		}
	}

	var entries []core.Entry
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		ts, err := strconv.ParseFloat(strings.TrimSpace(row[cols["unix_timestamp"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad unix_timestamp: %w", line, err)
		}
		sec := int64(ts)
		entries = append(entries, core.Entry{
			Content:   row[cols["utterance"]],
			Role:      vectors.ParseRole(row[cols["role"]]),
			Tags:      importTags,
			Timestamp: time.Unix(sec, int64((ts-float64(sec))*1e9)).UTC(),
		})
	}
	return entries, nil
}
