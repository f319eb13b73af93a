package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/Conceptual-Machines/singalong-genie/internal/config"
	"github.com/Conceptual-Machines/singalong-genie/internal/models"
	"github.com/Conceptual-Machines/singalong-genie/internal/observability"
	"github.com/Conceptual-Machines/singalong-genie/internal/songwriter"
)

// Build flags
var version = ""

func main() {
	// Create signal based context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	_ = godotenv.Load()

	// Launch command
	cmd := newCommand()
	if err := cmd.ParseAndRun(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *ffcli.Command {
	fs := flag.NewFlagSet("genie", flag.ExitOnError)

	return &ffcli.Command{
		ShortUsage: "genie [flags] <subcommand>",
		FlagSet:    fs,
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
		Subcommands: []*ffcli.Command{
			newVersionCommand(),
			newPresetsCommand(),
			newGenerateCommand(),
			newRenderCommand(),
		},
	}
}

func newVersionCommand() *ffcli.Command {
	return &ffcli.Command{
		Name:       "version",
		ShortUsage: "genie version",
		ShortHelp:  "print version",
		Exec: func(ctx context.Context, args []string) error {
			v := version
			if v == "" {
				if buildInfo, ok := debug.ReadBuildInfo(); ok {
					v = buildInfo.Main.Version
				}
			}
			if v == "" {
				v = "dev"
			}
			fmt.Println(v)
			return nil
		},
	}
}

func newPresetsCommand() *ffcli.Command {
	return &ffcli.Command{
		Name:       "presets",
		ShortUsage: "genie presets",
		ShortHelp:  "list song styles",
		Exec: func(ctx context.Context, args []string) error {
			return listPresets(os.Stdout)
		},
	}
}

func newGenerateCommand() *ffcli.Command {
	cmd := "generate"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	opts := &generateOptions{}
	fs.StringVar(&opts.Prompt, "prompt", "", "what the song is about")
	fs.StringVar(&opts.PresetID, "preset", "", "preset id (see genie presets)")
	fs.StringVar(&opts.ExtraContext, "context", "", "names, inside jokes, places")
	fs.StringVar(&opts.Feedback, "feedback", "", "refinement instructions, requires --previous")
	fs.StringVar(&opts.Previous, "previous", "", "song JSON file to refine")
	fs.StringVar(&opts.OutDir, "out", ".", "output folder")
	fs.StringVar(&opts.Format, "format", formatJSON, "output format: json, html or both")
	fs.StringVar(&opts.Model, "model", "", "model override")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("genie %s [flags]", cmd),
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ff.PlainParser),
			ff.WithEnvVarPrefix("genie"),
		},
		ShortHelp: "write or refine a song",
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			cfg := config.Load()
			if opts.Model != "" {
				cfg.LLMModel = opts.Model
			}
			writer, err := songwriter.NewFromConfig(ctx, cfg,
				songwriter.WithTracer(observability.InitializeLangfuse(ctx, cfg)),
			)
			if err != nil {
				return err
			}
			paths, err := runGenerate(ctx, writer, opts)
			for _, p := range paths {
				fmt.Println(p)
			}
			return err
		},
	}
}

func newRenderCommand() *ffcli.Command {
	cmd := "render"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)

	var input, outDir string
	fs.StringVar(&input, "input", "", "song JSON file")
	fs.StringVar(&outDir, "out", ".", "output folder")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("genie %s [flags]", cmd),
		ShortHelp:  "render a song JSON file as a lyrics page",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			if input == "" {
				return errors.New("render: --input is required")
			}
			path, err := renderFile(ctx, input, outDir)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

// songGenerator is the part of songwriter.Service the CLI needs
type songGenerator interface {
	Generate(ctx context.Context, gc models.GenerationContext) (*models.Song, error)
}
