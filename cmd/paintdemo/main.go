// Command paintdemo exercises the paintcore editing engine: it builds a
// small layered document, paints through capture sessions, walks the undo
// timeline, and writes the intermediate composites as PNG files.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gogpu/paintcore"
	"github.com/gogpu/paintcore/history"
	"github.com/gogpu/paintcore/layer"
)

var (
	width   int
	height  int
	outDir  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "paintdemo",
	Short: "Demonstrate the paintcore undo/redo engine",
	Long: `paintdemo builds a layered document, paints two strokes through
separate capture sessions, then undoes and redoes them, saving a PNG
snapshot of the bottom layer at each step.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		return run()
	},
}

func init() {
	rootCmd.Flags().IntVar(&width, "width", 256, "document width")
	rootCmd.Flags().IntVar(&height, "height", 256, "document height")
	rootCmd.Flags().StringVar(&outDir, "out", ".", "output directory for PNG snapshots")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func run() error {
	stack := layer.NewStack(width, height)
	bg := layer.NewRaster("background", width, height)
	bg.Buffer().Clear(paintcore.RGB(1, 1, 1))
	stack.Insert(bg, 0)

	h := history.New(stack,
		history.WithMaxEntries(32),
		history.WithNotify(func(e history.Event) {
			log.WithFields(log.Fields{
				"event": e.Kind.String(),
				"label": e.Label,
			}).Debug("history event")
		}),
	)

	// Stroke one: a bounded red square.
	bounds := paintcore.NewRect(20, 20, 60, 60)
	h.BeginCapture("red square", []string{bg.ID()}, &bounds)
	bg.FillRect(paintcore.NewRect(20, 20, 60, 60), paintcore.RGB(0.85, 0.1, 0.1))
	h.CommitCapture()
	if err := save(bg, "step1_red.png"); err != nil {
		return err
	}

	// Stroke two: an unbounded gesture captured incrementally.
	h.BeginCapture("blue dots", []string{bg.ID()}, nil)
	for i := 0; i < 5; i++ {
		x, y := 120+i*20, 100+i*25
		h.ExpandBounds(float64(x), float64(y), 8)
		bg.FillRect(paintcore.RectAround(x, y, 8), paintcore.RGB(0.1, 0.2, 0.9))
	}
	h.CommitCapture()
	if err := save(bg, "step2_dots.png"); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"entries": h.UndoCount(),
		"bytes":   h.TotalMemory(),
	}).Info("history after two strokes")

	if err := h.Undo(); err != nil {
		log.WithError(err).Warn("undo completed with skips")
	}
	if err := save(bg, "step3_undo.png"); err != nil {
		return err
	}

	if err := h.Redo(); err != nil {
		log.WithError(err).Warn("redo completed with skips")
	}
	if err := save(bg, "step4_redo.png"); err != nil {
		return err
	}

	log.WithField("dir", outDir).Info("wrote snapshots")
	return nil
}

func save(l *layer.Layer, name string) error {
	path := filepath.Join(outDir, name)
	if err := l.Buffer().SavePNG(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	log.WithField("file", path).Debug("saved")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
