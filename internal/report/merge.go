package report

import (
	"fmt"
	"sync"

	"github.com/KaramelBytes/dkap-cli/internal/utils"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var disableConfig sync.Once

// MergePDF concatenates the existing inputs, in order, into out. Missing
// inputs are skipped; the returned slice lists the files that were merged.
func MergePDF(out string, inputs ...string) ([]string, error) {
	var present []string
	for _, in := range inputs {
		if utils.FileExists(in) {
			present = append(present, in)
		}
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("merge %s: none of the input PDFs exist", out)
	}
	disableConfig.Do(api.DisableConfigDir)
	if err := api.MergeCreateFile(present, out, false, nil); err != nil {
		return nil, fmt.Errorf("merge %s: %w", out, err)
	}
	return present, nil
}
