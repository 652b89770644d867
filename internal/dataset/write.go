package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/KaramelBytes/dkap-cli/internal/utils"
)

// Encode writes the table as CSV to w. If indexName is non-empty, a leading
// column of that name is added with the row labels (or row numbers when
// labels is nil).
func (t *Table) Encode(w io.Writer, indexName string, labels []string) error {
	cw := csv.NewWriter(w)
	header := t.Names()
	if indexName != "" {
		header = append([]string{indexName}, header...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		if indexName != "" {
			lbl := fmt.Sprint(i)
			if labels != nil {
				lbl = labels[i]
			}
			row = append([]string{lbl}, row...)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV writes the table atomically to path.
func (t *Table) WriteCSV(path string) error {
	var buf bytes.Buffer
	if err := t.Encode(&buf, "", nil); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
