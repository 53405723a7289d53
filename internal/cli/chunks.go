package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"textsplit/config"
	"textsplit/internal/adapter/store"
	"textsplit/internal/port"
	"textsplit/internal/usecase"
)

var chunksCmd = &cobra.Command{
	Use:   "chunks <file>",
	Short: "Print the stored chunks of an indexed file",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunks,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print statistics about the stored chunks",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(chunksCmd)
	rootCmd.AddCommand(statsCmd)
}

// openStore opens the chunk store of the root directory, which must
// already have been indexed.
func openStore() (*store.BoltStore, error) {
	dbPath := config.IndexDBPath(GetRootDir())
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("no chunk store at %s; run 'textsplit index' first", dbPath)
	}
	return store.NewBoltStore(dbPath)
}

func runChunks(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	docID := usecase.DocID(path)
	if _, err := st.GetDoc(docID); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return fmt.Errorf("%s has not been indexed", path)
		}
		return err
	}

	chunks, err := st.GetChunksByDoc(docID)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d chunks\n", path, len(chunks))
	for _, c := range chunks {
		fmt.Fprintf(out, "\nChunk %d (length %d, id %s):\n", c.Ordinal+1, c.Length, c.ID)
		fmt.Fprintln(out, c.Text)
		fmt.Fprintln(out, strings.Repeat("-", 50))
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.GetStats()
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	info, err := st.GetSchemaInfo()
	if err != nil {
		return err
	}

	cfg := GetConfig()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Documents:        %d\n", stats.TotalDocs)
	fmt.Fprintf(out, "Chunks:           %d\n", stats.TotalChunks)
	fmt.Fprintf(out, "Avg chunk length: %.1f %s\n", stats.AvgChunkLen, cfg.Splitter.Measurer)
	fmt.Fprintf(out, "Schema version:   %d\n", info.Version)
	if info.ConfigHash != "" && info.ConfigHash != store.ComputeConfigHash(cfg) {
		fmt.Fprintln(out, "\nThe splitter configuration changed since the last index; run 'textsplit index' to rebuild.")
	}
	return nil
}
