package main

import (
	"bufio"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/jsoncol/pkg/colfile"
	"github.com/ajitpratap0/jsoncol/pkg/columnar"
	"github.com/ajitpratap0/jsoncol/pkg/config"
	"github.com/ajitpratap0/jsoncol/pkg/encoding"
	jsonpool "github.com/ajitpratap0/jsoncol/pkg/json"
	"github.com/ajitpratap0/jsoncol/pkg/records"
	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

func newSchemaCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "schema INPUT",
		Short: "Print the schema inferred from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, configFile, []flagBinding{
				{"input.format", "format"},
				{"input.sample_size", "sample-size"},
				{"logging.level", "log-level"},
				{"logging.format", "log-format"},
			})
			if err != nil {
				return err
			}
			log, err := setupLogging(cfg, "schema")
			if err != nil {
				return err
			}

			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			inferencer := schema.NewInferencer(cfg.Input.SampleSize, log)
			s, stats, err := inferencer.Infer(cmd.Context(), records.NewReader(in, cfg.InputFormat()))
			if err != nil {
				return err
			}
			log.Info("schema inferred",
				zap.Int("sampled", stats.Sampled),
				zap.Int("parse_errors", stats.ParseErrors))
			fmt.Fprintln(cmd.OutOrStdout(), s.Pretty())
			return nil
		},
	}

	d := config.Default()
	cmd.Flags().StringVar(&configFile, "config", "", "YAML configuration file")
	cmd.Flags().String("format", d.Input.Format, "Input layout: auto, lines or array")
	cmd.Flags().Int("sample-size", d.Input.SampleSize, "Records sampled for schema inference (0 reads the whole input)")
	addLoggingFlags(cmd, d)
	return cmd
}

func newInspectCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Describe the layout and statistics of a columnar file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := colfile.OpenFile(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			footer := r.Footer()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := jsonpool.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(footer)
			}

			fmt.Fprintf(out, "File:        %s (%d bytes)\n", args[0], r.Size())
			fmt.Fprintf(out, "Version:     %d\n", footer.Version)
			fmt.Fprintf(out, "Created by:  %s\n", footer.CreatedBy)
			fmt.Fprintf(out, "Compression: %s\n", footer.Compression)
			fmt.Fprintf(out, "Rows:        %d\n", footer.NumRows)
			fmt.Fprintf(out, "Row groups:  %d\n\n", len(footer.RowGroups))

			table := tablewriter.NewWriter(out)
			table.SetAutoFormatHeaders(false)
			table.SetAutoWrapText(false)
			table.SetHeader([]string{"COLUMN", "TYPE", "NULLABLE", "ENCODINGS", "COMPRESSED", "UNCOMPRESSED", "NULLS", "MIN", "MAX"})
			for i, col := range footer.Columns {
				field := footer.Schema.Field(i)
				table.Append([]string{
					col.Column,
					field.Type.String(),
					strconv.FormatBool(field.Nullable),
					formatEncodings(col.Encodings),
					strconv.FormatInt(col.CompressedLen, 10),
					strconv.FormatInt(col.UncompressedLen, 10),
					strconv.FormatInt(col.Stats.NullCount, 10),
					formatStat(col.Stats, col.Stats.Min),
					formatStat(col.Stats, col.Stats.Max),
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw footer as JSON")
	return cmd
}

func formatEncodings(m map[encoding.Kind]int) string {
	parts := make([]string, 0, len(m))
	for kind, n := range m {
		parts = append(parts, fmt.Sprintf("%s:%d", kind, n))
	}
	sort.Strings(parts)
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func formatStat(s encoding.Statistics, v columnar.Value) string {
	if !s.HasMinMax() {
		return "-"
	}
	return v.String()
}

func newCatCommand() *cobra.Command {
	var limit int64

	cmd := &cobra.Command{
		Use:   "cat FILE",
		Short: "Print the rows of a columnar file as newline-delimited JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := colfile.OpenFile(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			s := r.Schema()
			keys := make([]string, s.Len())
			for i, f := range s.Fields() {
				keys[i] = f.Name
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			values := make([]interface{}, s.Len())
			var line []byte
			var written int64
			err = r.Rows(func(row columnar.Row) error {
				if limit > 0 && written >= limit {
					return errStopRows
				}
				for i, v := range row {
					values[i] = v.Interface()
				}
				var err error
				line, err = jsonpool.AppendObject(line[:0], keys, values)
				if err != nil {
					return err
				}
				line = append(line, '\n')
				written++
				_, err = w.Write(line)
				return err
			})
			if err != nil && !errors.Is(err, errStopRows) {
				return err
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int64VarP(&limit, "limit", "n", 0, "Print at most this many rows (0 prints all)")
	return cmd
}

var errStopRows = errors.New("row limit reached")
