package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/xb2bismark/internal/alignment"
	"github.com/inodb/xb2bismark/internal/duckdb"
	"github.com/inodb/xb2bismark/internal/methyl"
	"github.com/inodb/xb2bismark/internal/output"
)

func newExtractCmd() *cobra.Command {
	var (
		outputFile string
		framesFile string
	)

	cmd := &cobra.Command{
		Use:   "extract <input>",
		Short: "Extract methylation calls from XB-tagged alignment records",
		Long: `Extract methylation calls from alignment records carrying an XB tag.

Input is a tab-separated record export (read id, reference, 1-based position,
CIGAR, XB tag), a SAM file or a BAM file. Use "-" to read records from stdin.
Unmapped records (CIGAR "*") and records with an XA tag are skipped.

Calls are written as: read_id, strand, reference, position, z|Z.`,
		Example: `  xb2bismark extract Splice_plus_tmp.txt            # writes Splice_plus.txt
  xb2bismark extract -o calls.txt sample.bam
  samtools view sample.bam | xb2bismark extract --input-format sam -
  xb2bismark extract --on-error skip --db calls.duckdb records.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, map[string]string{
				"input_format": "input-format",
				"on_error":     "on-error",
				"workers":      "workers",
				"db":           "db",
				"header":       "header",
			}); err != nil {
				return err
			}
			return runExtract(cmd, args[0], outputFile, framesFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: input with _tmp.txt replaced by .txt, else stdout)")
	cmd.Flags().StringVar(&framesFile, "frames", "", "Also write decoded tags and alignment frames to this file")
	cmd.Flags().String("input-format", "", "Input format: tsv, sam, bam (default: detect)")
	cmd.Flags().String("on-error", "fail", "Malformed record handling: fail or skip")
	cmd.Flags().Int("workers", 1, "Conversion goroutines (0 = one per CPU)")
	cmd.Flags().String("db", "", "DuckDB file to record the run and its calls in")
	cmd.Flags().Bool("header", false, "Write the Bismark header line first")

	return cmd
}

func runExtract(cmd *cobra.Command, input, outputFile, framesFile string) error {
	policy, err := methyl.ParseErrorPolicy(viper.GetString("on_error"))
	if err != nil {
		return usageError{err}
	}
	workers := viper.GetInt("workers")
	if workers < 0 {
		return usageError{fmt.Errorf("invalid worker count %d", workers)}
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	reader, err := alignment.Open(input, viper.GetString("input_format"))
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer reader.Close()

	if outputFile == "" {
		outputFile = output.DerivePath(input)
	}
	var out io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	calls := output.NewCallWriter(out)
	if viper.GetBool("header") {
		if err := calls.WriteHeader(); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	writers := output.MultiWriter{calls}

	conv := methyl.NewConverter()
	conv.SetErrorPolicy(policy)
	conv.SetWorkers(workers)
	conv.SetLogger(logger)

	var frames *output.FrameWriter
	if framesFile != "" {
		f, err := os.Create(framesFile)
		if err != nil {
			return fmt.Errorf("create frames file: %w", err)
		}
		defer f.Close()
		frames = output.NewFrameWriter(f)
		if err := frames.WriteHeader(); err != nil {
			return fmt.Errorf("write frames header: %w", err)
		}
		conv.SetFrameWriter(frames)
	}

	var (
		store    *duckdb.Store
		run      *duckdb.Run
		appender *duckdb.CallAppender
	)
	if dbPath := viper.GetString("db"); dbPath != "" {
		store, err = duckdb.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open call store: %w", err)
		}
		defer store.Close()

		run, err = store.StartRun(input)
		if err != nil {
			return err
		}
		appender, err = store.NewCallAppender(run.ID)
		if err != nil {
			return err
		}
		defer appender.Close()
		writers = append(writers, appender)
		logger.Info("recording run", zap.String("run_id", run.ID), zap.String("db", dbPath))
	}

	logger.Debug("extracting calls",
		zap.String("input", input),
		zap.String("output", outputOrStdout(outputFile)),
		zap.Stringer("on_error", policy),
		zap.Int("workers", workers))

	if err := conv.ConvertAll(reader, writers); err != nil {
		if store != nil {
			discardRun(logger, store, run, appender)
		}
		return err
	}

	if frames != nil {
		if err := frames.Flush(); err != nil {
			return fmt.Errorf("flush frames: %w", err)
		}
	}

	if store != nil {
		if err := appender.Close(); err != nil {
			return fmt.Errorf("close call appender: %w", err)
		}
		if err := store.FinishRun(run, conv.Stats()); err != nil {
			return err
		}
	}
	return nil
}

// discardRun removes the calls and the run row of a failed conversion so
// the store only holds complete runs.
func discardRun(logger *zap.Logger, store *duckdb.Store, run *duckdb.Run, appender *duckdb.CallAppender) {
	if err := appender.Close(); err != nil {
		logger.Warn("close call appender", zap.Error(err))
	}
	if err := store.ClearRun(run.ID); err != nil {
		logger.Warn("discard failed run", zap.String("run_id", run.ID), zap.Error(err))
		return
	}
	logger.Info("discarded failed run", zap.String("run_id", run.ID))
}

func outputOrStdout(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}
