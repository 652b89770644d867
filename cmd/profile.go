package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/profile"
	"github.com/KaramelBytes/dkap-cli/internal/study"
	"github.com/KaramelBytes/dkap-cli/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	proOutputPath string
	proSave       bool
	proDelimiter  string
	proDecimal    string
	proThousands  string
	proHeaderRow  int
	proSampleRows int
	proGroupBy    string
	proCorr       bool
	proOutliers   bool
	proOutlierThr float64
	proTopValues  int
	proSheetName  string
	proSheetIndex int
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>...",
	Short: "Profile CSV/TSV/XLSX files and produce a Markdown summary",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ro := dataset.ReadOptions{HeaderRow: proHeaderRow, SheetName: proSheetName, SheetIndex: proSheetIndex}
		switch proDelimiter {
		case "":
		case ",":
			ro.Delimiter = ','
		case "\t", "tab":
			ro.Delimiter = '\t'
		case ";":
			ro.Delimiter = ';'
		default:
			return fmt.Errorf("unsupported --delimiter: %s", proDelimiter)
		}
		// Locale separators
		switch strings.ToLower(strings.TrimSpace(proDecimal)) {
		case ",", "comma":
			ro.Locale.DecimalSeparator = ','
		case ".", "dot":
			ro.Locale.DecimalSeparator = '.'
		case "":
		default:
			return fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", proDecimal)
		}
		switch strings.ToLower(strings.TrimSpace(proThousands)) {
		case ",":
			ro.Locale.ThousandsSeparator = ','
		case ".":
			ro.Locale.ThousandsSeparator = '.'
		case "space", " ":
			ro.Locale.ThousandsSeparator = ' '
		case "":
		default:
			return fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", proThousands)
		}

		opt := profile.DefaultOptions()
		opt.SampleRows = proSampleRows
		opt.GroupBy = proGroupBy
		opt.Correlations = proCorr
		opt.Outliers = proOutliers
		if proOutlierThr > 0 {
			opt.OutlierThreshold = proOutlierThr
		}
		if proTopValues > 0 {
			opt.TopValues = proTopValues
		}

		var parts []string
		for _, path := range args {
			t, err := dataset.Load(path, ro)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			rep, err := profile.Build(t, opt)
			if err != nil {
				return fmt.Errorf("profile %s: %w", path, err)
			}
			logger.Debug("profiled dataset", zap.String("file", path), zap.Int("rows", rep.Rows), zap.Int("warnings", len(rep.Warnings)))
			parts = append(parts, rep.Markdown())
		}
		md := strings.Join(parts, "\n\n")

		// Decide where to write: --output path, the output directory, or stdout
		written := false
		if proOutputPath != "" {
			if err := utils.SafeWriteFile(proOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", proOutputPath)
			written = true
		}
		if proSave {
			st, err := study.Open(cfg.OutputPath())
			if err != nil {
				return err
			}
			for i, path := range args {
				base := filepath.Base(path)
				out := st.Path(strings.TrimSuffix(base, filepath.Ext(base)) + ".profile.md")
				if err := utils.SafeWriteFile(out, []byte(parts[i])); err != nil {
					return fmt.Errorf("write profile: %w", err)
				}
				if _, err := st.Record(out, cmd.CommandPath(), "Column profile of "+base); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %s\n", filepath.Base(out))
			}
			if err := st.Save(); err != nil {
				return err
			}
			written = true
		}
		if !written {
			fmt.Fprintln(cmd.OutOrStdout(), md)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&proOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	profileCmd.Flags().BoolVar(&proSave, "save", false, "save one profile per file into the output directory")
	profileCmd.Flags().StringVar(&proDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	profileCmd.Flags().StringVar(&proDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	profileCmd.Flags().StringVar(&proThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	profileCmd.Flags().IntVar(&proHeaderRow, "header-row", 0, "zero-based row holding the column names")
	profileCmd.Flags().IntVar(&proSampleRows, "sample-rows", 5, "number of sample rows to include")
	profileCmd.Flags().StringVar(&proGroupBy, "group-by", "", "column to group numeric means by")
	profileCmd.Flags().BoolVar(&proCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	profileCmd.Flags().BoolVar(&proOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	profileCmd.Flags().Float64Var(&proOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	profileCmd.Flags().IntVar(&proTopValues, "top-values", 8, "categories listed per column")
	profileCmd.Flags().StringVar(&proSheetName, "sheet-name", "", "XLSX: sheet name to profile")
	profileCmd.Flags().IntVar(&proSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}
