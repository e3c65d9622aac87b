package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/colbuf/colbuf/internal/ingest"
	"github.com/colbuf/colbuf/pkg/block"
	"github.com/colbuf/colbuf/pkg/column"
	"github.com/colbuf/colbuf/pkg/config"
	"github.com/colbuf/colbuf/pkg/jsonenc"
	"github.com/colbuf/colbuf/pkg/logger"
	"github.com/colbuf/colbuf/pkg/materialize"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	var configFile, logLevel string

	root := &cobra.Command{
		Use:   "colbuf",
		Short: "colbuf - typed column buffers and row materialization",
		Long: `colbuf ingests row data into typed column blocks, stores blocks as
compressed frames, and materializes frames back into row-major JSON.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.Config{Level: logLevel, Encoding: "json"})
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to YAML configuration file (optional)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("colbuf v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "types",
		Short: "List supported column type names",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range column.TypeNames() {
				fmt.Println(name)
			}
		},
	})

	var schemaStr, inputFile, outputFile string
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest CSV rows into a compressed block frame",
		Long: `Ingest CSV input into a typed column block and write it as a compressed
block frame. The schema names each column and its type in order:

  colbuf ingest --schema "id:UInt64,name:String,score:Float64" --input rows.csv --output rows.cblk`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return runIngest(cmd.Context(), cfg, schemaStr, inputFile, outputFile)
		},
	}
	ingestCmd.Flags().StringVar(&schemaStr, "schema", "", "Column schema as name:Type pairs (required)")
	ingestCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input CSV file, - for stdin")
	ingestCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output frame file, - for stdout")
	_ = ingestCmd.MarkFlagRequired("schema")
	root.AddCommand(ingestCmd)

	var matOutput string
	materializeCmd := &cobra.Command{
		Use:   "materialize [frame files...]",
		Short: "Materialize block frames into line-delimited JSON rows",
		Long: `Decode one or more block frames and stream their rows as line-delimited
JSON, in argument order:

  colbuf materialize rows-1.cblk rows-2.cblk > rows.jsonl`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaterialize(args, matOutput)
		},
	}
	materializeCmd.Flags().StringVarP(&matOutput, "output", "o", "", "Output file, - or empty for stdout")
	root.AddCommand(materializeCmd)

	err := root.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path) //nolint:gosec // G304: path comes from the CLI user
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return os.Stdout, nil
	}
	return os.Create(path) //nolint:gosec // G304: path comes from the CLI user
}

func runIngest(ctx context.Context, cfg *config.Config, schemaStr, inputFile, outputFile string) error {
	source := inputFile
	if source == "" || source == "-" {
		source = "stdin"
	}
	ctx = context.WithValue(ctx, logger.SourceKey, source)
	log := logger.WithContext(ctx).With(zap.String("component", "colbuf-cli"))

	schema, err := ingest.ParseSchema(schemaStr)
	if err != nil {
		return err
	}

	ing, err := ingest.New(schema,
		ingest.WithBatchSize(cfg.Ingest.BatchSize),
		ingest.WithColumnOptions(column.Options{
			InitialCapacity:     cfg.Buffer.InitialCapacity,
			DictionaryThreshold: cfg.Buffer.DictionaryThreshold,
		}),
		ingest.WithLogger(log))
	if err != nil {
		return err
	}

	in, err := openInput(inputFile)
	if err != nil {
		return fmt.Errorf("cannot open input: %w", err)
	}
	defer in.Close()

	start := time.Now()
	b, err := ing.ReadCSV(ctx, in)
	if err != nil {
		return err
	}

	comp, err := cfg.CompressionConfig()
	if err != nil {
		return err
	}
	frame, err := block.Encode(b, comp.Algorithm, comp.Level)
	if err != nil {
		return err
	}

	out, err := openOutput(outputFile)
	if err != nil {
		return fmt.Errorf("cannot open output: %w", err)
	}
	if _, err := out.Write(frame); err != nil {
		out.Close()
		return fmt.Errorf("cannot write frame: %w", err)
	}
	if out != os.Stdout {
		if err := out.Close(); err != nil {
			return err
		}
	}

	log.Info("ingest completed",
		zap.Int("rows", b.RowCount()),
		zap.Int("columns", b.ColumnCount()),
		zap.Int("frame_bytes", len(frame)),
		zap.String("algorithm", string(comp.Algorithm)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func runMaterialize(frameFiles []string, outputFile string) error {
	log := logger.With(zap.String("component", "colbuf-cli"))

	blocks := make([]*block.Block, 0, len(frameFiles))
	for _, path := range frameFiles {
		data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the CLI user
		if err != nil {
			return fmt.Errorf("cannot read frame file %s: %w", path, err)
		}
		b, err := block.Decode(data)
		if err != nil {
			return err
		}
		blocks = append(blocks, b)
	}

	out, err := openOutput(outputFile)
	if err != nil {
		return fmt.Errorf("cannot open output: %w", err)
	}

	m := materialize.New(materialize.WithLogger(log), materialize.WithPooledRows())
	sink := jsonenc.NewRowWriter(out)

	start := time.Now()
	if err := m.StreamAll(blocks, sink); err != nil {
		if out != os.Stdout {
			out.Close()
		}
		return err
	}
	if out != os.Stdout {
		if err := out.Close(); err != nil {
			return err
		}
	}

	total := 0
	for _, b := range blocks {
		total += b.RowCount()
	}
	log.Info("materialize completed",
		zap.Int("blocks", len(blocks)),
		zap.Int("rows", total),
		zap.Duration("duration", time.Since(start)))
	return nil
}
