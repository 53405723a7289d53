package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"textsplit/config"
	"textsplit/internal/adapter/measure"
	"textsplit/internal/adapter/splitter"
	"textsplit/internal/logging"
)

// Version is set at build time with -ldflags "-X textsplit/internal/cli.Version=...".
var Version = "dev"

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "textsplit",
	Short: "Split text into bounded, overlapping chunks",
	Long: `textsplit breaks text into chunks no longer than a configured size,
splitting on paragraphs first, then lines, then words and finally single
characters, with an optional overlap between consecutive chunks.

Example usage:
  textsplit split --chunk-size 200 --file notes.txt   # Split a file
  echo "some text" | textsplit split --file -         # Split stdin
  textsplit serve --port 9000                         # Run the HTTP API
  textsplit index ./docs                              # Split and store a directory`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := config.ApplyEnv(cfg); err != nil {
			return fmt.Errorf("failed to apply environment: %w", err)
		}

		level, err := logging.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return err
		}
		if verbose {
			level = logging.LevelDebug
		}
		logging.SetLevel(level)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./textsplit.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// newSplitter builds a splitter from the splitter section of c.
func newSplitter(c *config.Config) (*splitter.RecursiveSplitter, error) {
	m, err := measure.New(c.Splitter.Measurer, c.Splitter.Encoding)
	if err != nil {
		return nil, err
	}
	chunkCfg, err := splitter.NewChunkConfig(c.Splitter.ChunkSize, c.Splitter.ChunkOverlap, m)
	if err != nil {
		return nil, err
	}
	return splitter.NewRecursiveSplitter(chunkCfg, c.Splitter.Separators)
}
