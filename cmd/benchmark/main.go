package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"textsplit/internal/adapter/measure"
	"textsplit/internal/adapter/splitter"
)

func main() {
	file := flag.String("file", "", "Text file to split")
	size := flag.Int("size", 500, "Chunk size")
	overlap := flag.Int("overlap", 50, "Chunk overlap")
	rounds := flag.Int("n", 20, "Rounds per measurer")
	measurers := flag.String("measurers", strings.Join(measure.Names(), ","), "Comma-separated measurers to compare")
	flag.Parse()

	if *file == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -file notes.txt [-size 500 -overlap 50 -n 20]")
		fmt.Println("\nReports, per measurer:")
		fmt.Println("  1. Number of chunks and mean chunk length in measurer units")
		fmt.Println("  2. Mean time to split the file")
		os.Exit(1)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", *file, err)
		os.Exit(1)
	}
	text := string(data)

	fmt.Printf("%s: %d bytes, size=%d overlap=%d\n\n", *file, len(data), *size, *overlap)
	fmt.Printf("%-14s %8s %10s %12s\n", "measurer", "chunks", "avg len", "time/split")

	for _, name := range strings.Split(*measurers, ",") {
		name = strings.TrimSpace(name)
		if err := run(name, text, *size, *overlap, *rounds); err != nil {
			fmt.Printf("%-14s error: %v\n", name, err)
		}
	}
}

func run(name, text string, size, overlap, rounds int) error {
	m, err := measure.New(name, "")
	if err != nil {
		return err
	}
	cfg, err := splitter.NewChunkConfig(size, overlap, m)
	if err != nil {
		return err
	}
	s, err := splitter.NewRecursiveSplitter(cfg, nil)
	if err != nil {
		return err
	}

	var chunks []string
	start := time.Now()
	for i := 0; i < rounds; i++ {
		chunks, err = s.SplitText(text)
		if err != nil {
			return err
		}
	}
	perSplit := time.Since(start) / time.Duration(rounds)

	total := 0
	for _, c := range chunks {
		n, err := m.Measure(c)
		if err != nil {
			return err
		}
		total += n
	}
	avg := 0.0
	if len(chunks) > 0 {
		avg = float64(total) / float64(len(chunks))
	}

	fmt.Printf("%-14s %8d %10.1f %12s\n", name, len(chunks), avg, perSplit)
	return nil
}
