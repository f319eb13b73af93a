package songio

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Conceptual-Machines/singalong-genie/internal/models"
)

// ExportHTML renders the song as a standalone, printable lyrics sheet
func ExportHTML(ctx context.Context, song models.Song) ([]byte, error) {
	var buf bytes.Buffer
	if err := LyricsPage(song).Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to render lyrics page: %w", err)
	}
	return buf.Bytes(), nil
}
