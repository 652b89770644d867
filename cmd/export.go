package cmd

import (
	"errors"

	"github.com/KaramelBytes/dkap-cli/internal/study"
	"github.com/KaramelBytes/dkap-cli/internal/survey"
	"github.com/spf13/cobra"
)

var (
	exportDB   string
	exportXLSX string
	listKind   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every CSV artifact into SQLite and/or an XLSX workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportDB == "" && exportXLSX == "" {
			return errors.New("nothing to export: pass --db and/or --xlsx")
		}
		return runAnalysis(cmd, func(r *survey.Runner) error {
			if exportDB != "" {
				if err := r.ExportSQLite(cmd.Context(), exportDB); err != nil {
					return err
				}
			}
			if exportXLSX != "" {
				return r.ExportWorkbook(exportXLSX)
			}
			return nil
		})
	},
}

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "List the artifacts recorded in the output directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch listKind {
		case "", study.KindCSV, study.KindPNG, study.KindPDF, study.KindText, study.KindDot, study.KindXLSX, study.KindDB, study.KindOther:
		default:
			return errors.New("unknown --kind: " + listKind)
		}
		return runAnalysis(cmd, func(r *survey.Runner) error {
			r.Artifacts(listKind)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, artifactsCmd)
	exportCmd.Flags().StringVar(&exportDB, "db", "", "SQLite database file (relative paths go into the output directory)")
	exportCmd.Flags().StringVar(&exportXLSX, "xlsx", "", "XLSX workbook file (relative paths go into the output directory)")
	artifactsCmd.Flags().StringVar(&listKind, "kind", "", "only list one kind: csv|png|pdf|txt|dot|xlsx|sqlite|other")
}
