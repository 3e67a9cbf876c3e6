// Command deckmerge merges every .pptx and .pdf in a folder into one
// PowerPoint file. Files are appended in name order; PDF pages become
// full-slide images.
//
// Usage:
//
//	deckmerge [input_folder] [output_file]
//	deckmerge tui
//
// Exit status is 0 on success and 1 on any failure.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deckmerge/deckmerge/combine"
	"github.com/deckmerge/deckmerge/observability"
	"github.com/deckmerge/deckmerge/office"
	"github.com/deckmerge/deckmerge/raster"
	"github.com/deckmerge/deckmerge/tui"
)

const (
	version       = "0.1.0"
	defaultOutput = "combined_presentation.pptx"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "deckmerge [input_folder] [output_file]",
		Short: "Merge PowerPoint decks and PDFs into one presentation",
		Long: `deckmerge collects every .pptx and .pdf file in a folder and merges
them, in file name order, into a single PowerPoint file. PDF pages are
rendered to images and inserted one per slide, scaled to fit.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputDir := "."
			if len(args) > 0 {
				inputDir = args[0]
			}
			output := defaultOutput
			if len(args) > 1 {
				output = combine.EnsurePptxExt(args[1])
			}
			return runCombine(inputDir, output, verbose)
		},
	}

	cmd.Flags().String("strategy", "safe", "slide transfer strategy: safe, inherit or rasterize")
	cmd.Flags().Float64("dpi", raster.DefaultDPI, "render resolution for PDF pages")
	cmd.Flags().String("renderer", "fitz", "PDF renderer: fitz (built in) or poppler (pdftoppm)")
	cmd.Flags().Int("max-width", 0, "cap embedded page images at this pixel width (0 = no cap)")
	cmd.Flags().Bool("match-aspect", false, "resize the slide canvas to the first PDF page's aspect ratio")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	for _, name := range []string{"strategy", "dpi", "renderer", "max-width", "match-aspect"} {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	viper.SetConfigName("deckmerge")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("DECKMERGE")
	viper.AutomaticEnv()

	cmd.AddCommand(newTUICmd(), newVersionCmd())
	return cmd
}

func runCombine(inputDir, output string, verbose bool) error {
	// A config file is optional; flags and DECKMERGE_* env vars win.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}

	strategy, err := combine.ParseStrategy(viper.GetString("strategy"))
	if err != nil {
		return err
	}

	logger := observability.NewTextLogger(os.Stderr, verbose)

	var renderer raster.Renderer
	switch name := viper.GetString("renderer"); name {
	case "", "fitz":
		renderer = raster.NewFitzRenderer(viper.GetFloat64("dpi"))
	case "poppler":
		renderer, err = raster.DetectPoppler(viper.GetFloat64("dpi"))
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown renderer %q (want fitz or poppler)", name)
	}

	var conv *office.Converter
	if strategy == combine.StrategyRasterize {
		conv, err = office.Detect()
		if err != nil {
			logger.Warn("LibreOffice not found, presentations will be copied at safe fidelity",
				observability.Error("err", err))
			conv = nil
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := combine.New(combine.Options{
		Strategy:         strategy,
		MatchFirstAspect: viper.GetBool("match-aspect"),
		MaxImageWidth:    viper.GetInt("max-width"),
		Renderer:         renderer,
		Office:           conv,
		Logger:           logger,
		OnProgress: func(p combine.Progress) {
			fmt.Printf("[%d/%d] %s\n", p.FileIndex+1, p.FileCount, p.Name)
		},
	})

	report, err := c.Run(ctx, inputDir, output)
	if err != nil {
		return err
	}

	fmt.Printf("Saved %s: %d slides (%d added, %d files skipped, %d shapes not transferred)\n",
		report.OutputPath, report.TotalSlides, report.SlidesAdded(),
		report.FilesSkipped(), report.ShapesSkipped())
	return nil
}

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui [input_folder] [output_file]",
		Short: "Interactive terminal interface",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputDir := "."
			if len(args) > 0 {
				inputDir = args[0]
			}
			output := defaultOutput
			if len(args) > 1 {
				output = combine.EnsurePptxExt(args[1])
			}
			return tui.Run(inputDir, output)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the deckmerge version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("deckmerge", version)
		},
	}
}
