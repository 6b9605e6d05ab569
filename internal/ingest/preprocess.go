// Package ingest consumes chunk events from the bus and indexes them
// into the vector store with parallel dense and sparse representations.
package ingest

import (
	"fmt"
	"strings"

	"github.com/T-rav/hydra/internal/retrieval"
)

// Prepared holds the two index-ready texts for one chunk. The dense copy
// carries the document title inline so title terms influence embedding
// similarity; the sparse copy stays raw so term frequencies are not
// skewed by repeated titles across chunks.
type Prepared struct {
	DenseText  string
	SparseText string
}

// Prepare builds the dual representation for a chunk.
func Prepare(content string, meta retrieval.Metadata) Prepared {
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = strings.TrimSpace(meta.FileName)
	}

	dense := content
	if title != "" && !strings.HasPrefix(content, "Title: ") {
		dense = fmt.Sprintf("Title: %s\n\n%s", title, content)
	}
	return Prepared{
		DenseText:  dense,
		SparseText: content,
	}
}
