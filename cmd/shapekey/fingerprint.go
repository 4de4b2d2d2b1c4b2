package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"shapekey/internal/fingerprint"
	"shapekey/internal/hostval"
	"shapekey/internal/ident"
)

var (
	fingerprintFormat string
	fingerprintSpec   string
	fingerprintLimit  int
)

func init() {
	fingerprintCmd.Flags().StringVar(&fingerprintFormat, "format", "pretty", "output format (pretty|json)")
	fingerprintCmd.Flags().StringVar(&fingerprintSpec, "spec", "", "read a single msgpack-encoded value spec instead of a workload")
	fingerprintCmd.Flags().IntVar(&fingerprintLimit, "limit", -1, "maximum fingerprint size in bytes (overrides config; 0 = unlimited)")
}

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint [workload]",
	Short: "Print the fingerprint of every value in a workload",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := applyColor(cmd); err != nil {
			return err
		}
		cfg, err := configFor(cmd)
		if err != nil {
			return err
		}
		format := strings.ToLower(fingerprintFormat)
		if format != "pretty" && format != "json" {
			return fmt.Errorf("unsupported format %q (must be pretty or json)", fingerprintFormat)
		}

		items, err := loadItems(args, fingerprintSpec)
		if err != nil {
			return err
		}
		limit := cfg.Cache.MaxFingerprintBytes
		if fingerprintLimit >= 0 {
			limit = fingerprintLimit
		}
		enc := &fingerprint.Encoder{Types: ident.Default, Limit: limit}

		rows := make([]fingerprintRow, len(items))
		for i, it := range items {
			rows[i] = describe(enc, it)
		}
		if format == "json" {
			out := json.NewEncoder(cmd.OutOrStdout())
			out.SetIndent("", "  ")
			return out.Encode(rows)
		}
		renderFingerprints(cmd.OutOrStdout(), rows)
		return nil
	},
}

// loadItems builds values from a workload path or a single msgpack spec.
func loadItems(args []string, specPath string) ([]hostval.Item, error) {
	b := hostval.NewBuilder()
	if specPath != "" {
		if len(args) > 0 {
			return nil, errors.New("--spec and a workload argument are mutually exclusive")
		}
		data, err := os.ReadFile(specPath)
		if err != nil {
			return nil, err
		}
		spec, err := hostval.DecodeSpec(data)
		if err != nil {
			return nil, err
		}
		v, err := b.Build(spec)
		if err != nil {
			return nil, err
		}
		return []hostval.Item{{Name: "spec", Repeat: 1, Value: v}}, nil
	}
	if len(args) == 0 {
		return nil, errors.New("a workload file is required")
	}
	w, err := hostval.LoadWorkload(args[0])
	if err != nil {
		return nil, err
	}
	return w.Build(b)
}

type fingerprintRow struct {
	Name        string `json:"name"`
	Disassembly string `json:"disassembly,omitempty"`
	Hex         string `json:"hex,omitempty"`
	Hash        string `json:"hash,omitempty"`
	Size        int    `json:"size"`
	Error       string `json:"error,omitempty"`
}

func describe(enc *fingerprint.Encoder, it hostval.Item) fingerprintRow {
	row := fingerprintRow{Name: it.Name}
	fp, err := enc.Encode(it.Value)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	row.Disassembly = fp.String()
	row.Hex = hex.EncodeToString(fp.Bytes())
	row.Hash = fmt.Sprintf("%016x", fp.Hash())
	row.Size = len(fp)
	return row
}

func renderFingerprints(out io.Writer, rows []fingerprintRow) {
	nameColor := color.New(color.FgCyan, color.Bold)
	errColor := color.New(color.FgRed)
	dimColor := color.New(color.Faint)

	width := 0
	for _, r := range rows {
		width = max(width, runewidth.StringWidth(r.Name))
	}
	for _, r := range rows {
		name := nameColor.Sprint(runewidth.FillRight(r.Name, width))
		if r.Error != "" {
			fmt.Fprintf(out, "%s  %s\n", name, errColor.Sprint(r.Error))
			continue
		}
		fmt.Fprintf(out, "%s  %s\n", name, r.Disassembly)
		fmt.Fprintf(out, "%s  %s\n", strings.Repeat(" ", width), dimColor.Sprintf("%d bytes  hash %s  %s", r.Size, r.Hash, r.Hex))
	}
}
