// Package compare runs one comparison end to end: it loads both images,
// computes their difference and persists the diff image.
package compare

import (
	"context"
	"image"
	"imgdiff/internal/codec"
	diffimage "imgdiff/internal/diff/image"
	"imgdiff/internal/storage"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

const DefaultOutput = "diff.png"

type Comparer struct {
	Log    logr.Logger
	Differ diffimage.Differ
}

type Result struct {
	DiffPath   string  `json:"diffPath"`
	DiffCount  int     `json:"diffCount"`
	DiffAmount float64 `json:"diffAmount"`
	Percentage float64 `json:"percentage"`
}

// Run compares baseline with target and writes the diff image to output.
// Nothing is written unless both inputs decode and the comparison succeeds.
func (c *Comparer) Run(ctx context.Context, baseline string, target string, output string) (*Result, error) {
	if output == "" {
		output = DefaultOutput
	}

	baselineFormat, err := codec.FormatOf(baseline)
	if err != nil {
		return nil, err
	}
	targetFormat, err := codec.FormatOf(target)
	if err != nil {
		return nil, err
	}

	images, err := c.loadAll(ctx, []string{baseline, target}, []codec.Format{baselineFormat, targetFormat})
	if err != nil {
		return nil, err
	}
	baselineImage, targetImage := images[0], images[1]

	start := time.Now()
	diffResult, err := c.Differ.Calculate(baselineImage, targetImage)
	if err != nil {
		return nil, xerrors.Errorf("failed to compare %s with %s: %w", baseline, target, err)
	}
	c.Log.V(1).Info("Compared images", "diffCount", diffResult.DiffCount, "elapsed", time.Since(start))

	data, err := codec.EncodePNG(diffResult.Image)
	if err != nil {
		return nil, &WriteError{Path: output, Err: err}
	}

	diffPath, err := c.store(ctx, output, data)
	if err != nil {
		return nil, &WriteError{Path: output, Err: err}
	}
	c.Log.V(1).Info("Wrote diff image", "path", diffPath, "bytes", len(data))

	return &Result{
		DiffPath:   diffPath,
		DiffCount:  diffResult.DiffCount,
		DiffAmount: diffResult.DiffAmount,
		Percentage: diffResult.Percentage(),
	}, nil
}

// loadAll reads and decodes the images concurrently. When several fail, the
// error of the earliest path is returned.
func (c *Comparer) loadAll(ctx context.Context, paths []string, formats []codec.Format) ([]image.Image, error) {
	images := make([]image.Image, len(paths))
	errs := make([]error, len(paths))

	var eg errgroup.Group
	for i := range paths {
		i := i
		eg.Go(func() error {
			images[i], errs[i] = c.load(ctx, paths[i], formats[i])
			return errs[i]
		})
	}
	if err := eg.Wait(); err != nil {
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}

	return images, nil
}

func (c *Comparer) load(ctx context.Context, path string, format codec.Format) (image.Image, error) {
	data, err := c.read(ctx, path)
	if err != nil {
		return nil, err
	}

	return c.decode(path, format, data)
}

func (c *Comparer) read(ctx context.Context, path string) ([]byte, error) {
	s, key, err := storage.Open(ctx, path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}

	data, err := s.Get(ctx, key)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}

	return data, nil
}

func (c *Comparer) decode(path string, format codec.Format, data []byte) (image.Image, error) {
	img, err := codec.Decode(path, format, data)
	if err != nil {
		return nil, err
	}

	size := img.Bounds().Size()
	c.Log.V(1).Info("Decoded image", "path", path, "format", format, "width", size.X, "height", size.Y)

	return img, nil
}

func (c *Comparer) store(ctx context.Context, output string, data []byte) (string, error) {
	s, key, err := storage.Open(ctx, output)
	if err != nil {
		return "", err
	}

	return s.Put(ctx, key, data)
}
