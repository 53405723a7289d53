package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"textsplit/config"
	"textsplit/internal/adapter/fs"
	"textsplit/internal/adapter/store"
	"textsplit/internal/usecase"
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Split the text files of a directory and store the chunks",
	Long: `Split every matching file under a directory and store the chunks in
.textsplit/chunks.db within it. Unchanged files are skipped on later runs;
changing the splitter settings rebuilds the whole store.

Examples:
  textsplit index .                 # Index current directory
  textsplit index /path/to/notes    # Index specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := config.EnsureDataDir(path); err != nil {
		return fmt.Errorf("failed to create .textsplit directory: %w", err)
	}

	dbPath := config.IndexDBPath(path)
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer st.Close()

	migration, err := st.CheckMigration(cfg)
	if err != nil {
		return fmt.Errorf("failed to check migration: %w", err)
	}
	if migration.NeedsRebuild {
		fmt.Printf("Rebuild required: %s\n", migration.Reason)
		fmt.Println("Clearing stored chunks...")
		if err := st.Clear(); err != nil {
			return fmt.Errorf("failed to clear store: %w", err)
		}
	} else if migration.NeedsMigration {
		fmt.Printf("Running schema migration: %s\n", migration.Reason)
		if err := st.Migrate(cfg); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	walker, err := fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes)
	if err != nil {
		return err
	}
	s, err := newSplitter(cfg)
	if err != nil {
		return fmt.Errorf("failed to create splitter: %w", err)
	}

	indexUC := usecase.NewIndexUseCase(st, walker, fs.TextReader{}, s, cfg.Index.Workers)

	fmt.Printf("Scanning %s...\n", path)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	progress := func(processed, total int, currentFile string) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Splitting[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(processed)

		if elapsed := time.Since(startTime); processed > 0 && elapsed > 0 {
			rate := float64(processed) / elapsed.Seconds()
			eta := time.Duration(float64(total-processed)/rate) * time.Second
			bar.Describe(fmt.Sprintf("[cyan]Splitting[reset] ETA: %s", formatDuration(eta)))
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := indexUC.Index(ctx, path, progress)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if err := st.Migrate(cfg); err != nil {
		return fmt.Errorf("failed to update schema info: %w", err)
	}

	fmt.Printf("\nIndexing complete in %s:\n", formatDuration(result.Duration))
	fmt.Printf("  Files indexed:  %d\n", result.FilesIndexed)
	fmt.Printf("  Files skipped:  %d (unchanged)\n", result.FilesSkipped)
	fmt.Printf("  Files deleted:  %d (removed)\n", result.FilesDeleted)
	fmt.Printf("  Chunks created: %d\n", result.ChunksCreated)

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	fmt.Printf("\nChunks stored at: %s\n", dbPath)
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
