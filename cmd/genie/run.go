package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/Conceptual-Machines/singalong-genie/internal/models"
	"github.com/Conceptual-Machines/singalong-genie/internal/presets"
	"github.com/Conceptual-Machines/singalong-genie/internal/songio"
)

const (
	formatJSON = "json"
	formatHTML = "html"
	formatBoth = "both"
)

// pathSeparators are replaced in titles so every file lands directly in the output folder
var pathSeparators = strings.NewReplacer("/", "_", "\\", "_")

type generateOptions struct {
	Prompt       string
	PresetID     string
	ExtraContext string
	Feedback     string
	Previous     string
	OutDir       string
	Format       string
	Model        string
}

func listPresets(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, group := range presets.Grouped() {
		fmt.Fprintf(tw, "%s\n", group.Category)
		for _, p := range group.Presets {
			marker := " "
			if p.ID == presets.DefaultSelectionID {
				marker = "*"
			}
			fmt.Fprintf(tw, " %s %s\t%s\t%s\n", marker, p.ID, p.Name, p.RhymeScheme)
		}
	}
	return tw.Flush()
}

func runGenerate(ctx context.Context, gen songGenerator, opts *generateOptions) ([]string, error) {
	switch opts.Format {
	case formatJSON, formatHTML, formatBoth:
	default:
		return nil, fmt.Errorf("generate: unknown format %q", opts.Format)
	}
	if opts.Feedback != "" && opts.Previous == "" {
		return nil, errors.New("generate: --feedback needs --previous")
	}

	gc := models.GenerationContext{
		Prompt:       opts.Prompt,
		Preset:       presets.Lookup(opts.PresetID),
		ExtraContext: opts.ExtraContext,
		Feedback:     opts.Feedback,
	}
	if opts.Previous != "" {
		prev, err := readSong(opts.Previous)
		if err != nil {
			return nil, err
		}
		gc.Previous = &prev
	}

	song, err := gen.Generate(ctx, gc)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	return writeSong(ctx, *song, opts.OutDir, opts.Format)
}

func renderFile(ctx context.Context, input, outDir string) (string, error) {
	song, err := readSong(input)
	if err != nil {
		return "", err
	}
	paths, err := writeSong(ctx, song, outDir, formatHTML)
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

func readSong(path string) (models.Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Song{}, fmt.Errorf("failed to read song file: %w", err)
	}
	song, err := songio.ImportJSON(data)
	if err != nil {
		return models.Song{}, fmt.Errorf("failed to load song %s: %w", path, err)
	}
	return song, nil
}

// outputName is the download name with path separators removed
func outputName(title, suffix string) string {
	return pathSeparators.Replace(songio.FileName(title, suffix))
}

func writeSong(ctx context.Context, song models.Song, outDir, format string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}

	var paths []string
	if format == formatJSON || format == formatBoth {
		data, err := songio.ExportJSON(song)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(outDir, outputName(song.Title, songio.SuffixJSON))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	if format == formatHTML || format == formatBoth {
		data, err := songio.ExportHTML(ctx, song)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(outDir, outputName(song.Title, songio.SuffixHTML))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
