package material

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var disableConfigDir sync.Once

// pdfcpu otherwise creates a config directory under the user's home.
func pdfcpuReady() {
	disableConfigDir.Do(api.DisableConfigDir)
}

// PageCount validates data as a PDF and returns its number of pages.
func PageCount(data []byte) (int, error) {
	pdfcpuReady()
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	return n, nil
}

// PageDims returns the size of every page in points.
func PageDims(data []byte) ([]types.Dim, error) {
	pdfcpuReady()
	dims, err := api.PageDims(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get page dimensions: %w", err)
	}
	return dims, nil
}

// ExtractText returns the text of the first maxPages pages, separated by
// blank lines. maxPages <= 0 reads every page.
func ExtractText(data []byte, maxPages int) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if maxPages > 0 {
		n = min(n, maxPages)
	}
	var sb strings.Builder
	for pageNum := 0; pageNum < n; pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			return "", fmt.Errorf("couldn't extract text from page %d: %w", pageNum+1, err)
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.TrimSpace(text))
	}
	return sb.String(), nil
}
