package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/1broseidon/xveil/internal/config"
	"github.com/1broseidon/xveil/internal/filter"
)

func runPreview(args []string) int {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	in := fs.String("in", "", "input image (png, jpeg, gif, bmp, tiff or webp)")
	out := fs.String("out", "", "output PNG path")
	configPath := fs.String("config", "", "config file path for the default filters")
	var specs []string
	config.RegisterFilterFlags(fs, &specs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *in == "" || *out == "" || fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: xveil preview [filter flags] -in IN -out OUT.png")
		return 2
	}

	if len(specs) == 0 {
		res, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		specs = res.Config.Filters
	}
	pipeline, err := filter.ParsePipeline(specs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	start := time.Now()
	if err := previewFile(*in, *out, pipeline); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "%s -> %s (%s) in %s\n", *in, *out, pipeline, time.Since(start).Round(time.Millisecond))
	return 0
}

func previewFile(inPath, outPath string, pipeline filter.Pipeline) error {
	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := preview(f, w, pipeline); err != nil {
		w.Close()
		os.Remove(outPath)
		return fmt.Errorf("%s: %w", inPath, err)
	}
	return w.Close()
}

// preview decodes r, runs the pipeline over it and writes the result as PNG.
func preview(r io.Reader, w io.Writer, pipeline filter.Pipeline) error {
	src, _, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	img := filter.FromImage(src)
	pipeline.Apply(img)
	if err := png.Encode(w, img.RGBA()); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
