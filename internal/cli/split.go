package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"textsplit/internal/adapter/measure"
	"textsplit/internal/logging"
)

const sampleText = `
    Lorem Ipsum is simply dummy text of the  printing and typesetting industry.
    Lorem Ipsum has been the industry's standard dummy text ever since the 1500s,
    when an unknown printer took a galley of type and scrambled it to make a type specimen book.
    It has survived not only five centuries, but also the leap into electronic typesetting, 
    remaining essentially unchanged. It was popularised in the 1960s with the release of
    Letraset sheets containing Lorem Ipsum passages, and more recently with desktop publishing
    software like Aldus PageMaker including versions of Lorem Ipsum.
    `

var (
	splitChunkSize int
	splitOverlap   int
	splitMeasurer  string
	splitEncoding  string
	splitFile      string
	splitJSON      bool
	splitLenient   bool
	splitAPI       bool
	splitPort      int
)

var splitCmd = &cobra.Command{
	Use:   "split [text]",
	Short: "Split text and print the chunks",
	Long: `Split text given as an argument, read from a file (--file, "-" for stdin),
or, when neither is given, a built-in sample paragraph.

Examples:
  textsplit split "some long text" --chunk-size 20
  textsplit split --file README.md --overlap 20 --json
  textsplit split --measurer tokens --chunk-size 256 --file notes.txt
  textsplit split --api --port 9000       # serve the HTTP API instead`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSplit,
}

func init() {
	splitCmd.Flags().IntVar(&splitChunkSize, "chunk-size", 0, "maximum size of each chunk (default from config, 100)")
	splitCmd.Flags().IntVar(&splitOverlap, "overlap", 0, "overlap between consecutive chunks")
	splitCmd.Flags().StringVar(&splitMeasurer, "measurer", "", "length function: "+strings.Join(measure.Names(), ", "))
	splitCmd.Flags().StringVar(&splitEncoding, "encoding", "", "tiktoken encoding for the tokens measurer")
	splitCmd.Flags().StringVarP(&splitFile, "file", "f", "", `read text from a file ("-" for stdin)`)
	splitCmd.Flags().BoolVar(&splitJSON, "json", false, "print chunks as JSON")
	splitCmd.Flags().BoolVar(&splitLenient, "lenient", false, "print zero chunks instead of failing when splitting fails")
	splitCmd.Flags().BoolVar(&splitAPI, "api", false, "run the HTTP API server instead of splitting")
	splitCmd.Flags().IntVar(&splitPort, "port", 9000, "port for the API server (with --api)")
	rootCmd.AddCommand(splitCmd)
}

func applySplitFlags(cmd *cobra.Command) {
	c := GetConfig()
	if cmd.Flags().Changed("chunk-size") {
		c.Splitter.ChunkSize = splitChunkSize
	}
	if cmd.Flags().Changed("overlap") {
		c.Splitter.ChunkOverlap = splitOverlap
	}
	if cmd.Flags().Changed("measurer") {
		c.Splitter.Measurer = splitMeasurer
	}
	if cmd.Flags().Changed("encoding") {
		c.Splitter.Encoding = splitEncoding
	}
}

func runSplit(cmd *cobra.Command, args []string) error {
	applySplitFlags(cmd)
	c := GetConfig()

	if splitAPI {
		if cmd.Flags().Changed("port") {
			c.Server.Port = splitPort
		}
		return serve(cmd.Context(), c)
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	s, err := newSplitter(c)
	if err != nil {
		return fmt.Errorf("failed to create splitter: %w", err)
	}

	chunks, err := s.SplitText(text)
	if err != nil {
		if !splitLenient {
			return fmt.Errorf("failed to split text: %w", err)
		}
		logging.Warnf("error splitting text: %v", err)
		chunks = []string{}
	}

	out := cmd.OutOrStdout()
	if splitJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string][]string{"chunks": chunks})
	}

	fmt.Fprintf(out, "\nSplit into %d chunks:\n", len(chunks))
	for i, chunk := range chunks {
		fmt.Fprintf(out, "\nChunk %d:\n", i+1)
		fmt.Fprintln(out, chunk)
		fmt.Fprintln(out, strings.Repeat("-", 50))
	}
	return nil
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case len(args) > 0 && splitFile != "":
		return "", fmt.Errorf("give either a text argument or --file, not both")
	case len(args) > 0:
		return args[0], nil
	case splitFile == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case splitFile != "":
		data, err := os.ReadFile(splitFile)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	default:
		return sampleText, nil
	}
}
