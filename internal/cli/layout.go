package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ammiranda/tree_diagram/config"
	"github.com/ammiranda/tree_diagram/internal/logging"
	"github.com/ammiranda/tree_diagram/layout"
	"github.com/ammiranda/tree_diagram/render"

	"github.com/spf13/cobra"
)

type layoutOpts struct {
	format     string
	dangling   string
	output     string
	configPath string
}

func newLayoutCmd() *cobra.Command {
	var opts layoutOpts

	cmd := &cobra.Command{
		Use:   "layout FILE",
		Short: "Lay out a JSON array of records",
		Long: `Lay out a JSON array of {"id", "title", "parentId"} records and print the result.
Use - as FILE to read from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out bytes.Buffer
			if err := runLayout(cmd.Context(), args[0], cmd.InOrStdin(), &out, opts); err != nil {
				return err
			}
			// The output file is only written once the layout succeeded
			if opts.output != "" {
				return os.WriteFile(opts.output, out.Bytes(), 0o644)
			}
			_, err := cmd.OutOrStdout().Write(out.Bytes())
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "output format: json, svg or dot")
	cmd.Flags().StringVar(&opts.dangling, "dangling", "", "missing parent policy: reject or root (default from config, else reject)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "TOML config file")
	return cmd
}

func readRecords(path string, stdin io.Reader) ([]layout.Record, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var records []layout.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("error decoding records from %s: %w", path, err)
	}
	return records, nil
}

func runLayout(ctx context.Context, path string, stdin io.Reader, out io.Writer, opts layoutOpts) error {
	logger := logging.FromContext(ctx)

	if opts.format != "json" && opts.format != "svg" && opts.format != "dot" {
		return fmt.Errorf("unknown format %q: must be json, svg or dot", opts.format)
	}

	provider, err := configProvider(opts.configPath)
	if err != nil {
		return err
	}
	cfg, err := config.GetLayoutConfig(ctx, provider)
	if err != nil {
		return err
	}
	if opts.dangling != "" {
		if cfg.Dangling, err = config.ParseDanglingPolicy(opts.dangling); err != nil {
			return err
		}
	}

	records, err := readRecords(path, stdin)
	if err != nil {
		return err
	}

	d, err := layout.Compute(records, cfg.Geometry, cfg.IndexOptions()...)
	if err != nil {
		return err
	}
	logger.Debug("laid out", "nodes", len(d.Nodes), "edges", len(d.Edges))

	switch opts.format {
	case "svg":
		_, err = out.Write(render.SVG(d, cfg.Geometry))
	case "dot":
		_, err = io.WriteString(out, render.DOT(d, cfg.Geometry))
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(d)
	}
	return err
}
