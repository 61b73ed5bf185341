// Package image loads remote images through a batchload engine. Images are
// decoded (PNG, JPEG, GIF) and scaled down into the requested bounds before
// they are cached, so the bounds are part of the cache key.
package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"github.com/unkn0wn-root/batchload"
	"github.com/unkn0wn-root/batchload/provider/lru"
	"github.com/unkn0wn-root/batchload/transport/httpfetch"
)

type ScaleType int

const (
	// ScaleCenterInside keeps the aspect ratio and fits inside the bounds.
	ScaleCenterInside ScaleType = iota
	// ScaleFitXY stretches to exactly the bounds.
	ScaleFitXY
)

// Request names an image and the bounds it should be decoded into. A zero
// bound leaves that dimension unconstrained. Images are never scaled up.
type Request struct {
	URL       string
	MaxWidth  int
	MaxHeight int
	Scale     ScaleType
}

// Key folds the decode parameters into the cache key.
func Key(r Request) string {
	return fmt.Sprintf("#W%d#H%d#S%d%s", r.MaxWidth, r.MaxHeight, r.Scale, r.URL)
}

// Size is the decoded footprint in bytes, assuming 4 bytes per pixel.
func Size(_ string, img image.Image) int64 {
	b := img.Bounds()
	return int64(b.Dx()) * int64(b.Dy()) * 4
}

// Decode decodes data and scales the result into r's bounds.
func Decode(data []byte, r Request) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image: decode %s: %w", r.URL, err)
	}
	return scale(img, r)
}

// ErrEmptyImage is returned for images with a zero width or height.
var ErrEmptyImage = errors.New("image: empty image")

func scale(img image.Image, r Request) (image.Image, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %s is %dx%d", ErrEmptyImage, r.URL, b.Dx(), b.Dy())
	}
	w, h := targetSize(b.Dx(), b.Dy(), r)
	if w >= b.Dx() && h >= b.Dy() {
		return img, nil
	}
	return resize(img, min(w, b.Dx()), min(h, b.Dy())), nil
}

func targetSize(w, h int, r Request) (int, int) {
	tw := resized(r.MaxWidth, r.MaxHeight, w, h, r.Scale)
	th := resized(r.MaxHeight, r.MaxWidth, h, w, r.Scale)
	return max(tw, 1), max(th, 1)
}

// resized computes one dimension of the target size. primary and secondary
// must be positive.
func resized(maxPrimary, maxSecondary, primary, secondary int, scale ScaleType) int {
	if maxPrimary == 0 && maxSecondary == 0 {
		return primary
	}
	if scale == ScaleFitXY {
		if maxPrimary == 0 {
			return primary
		}
		return maxPrimary
	}
	if maxPrimary == 0 {
		return int(float64(primary) * float64(maxSecondary) / float64(secondary))
	}
	if maxSecondary == 0 {
		return maxPrimary
	}
	ratio := float64(secondary) / float64(primary)
	out := maxPrimary
	if float64(out)*ratio > float64(maxSecondary) {
		out = int(float64(maxSecondary) / ratio)
	}
	return out
}

// resize is a nearest-neighbour scaler.
func resize(src image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	b := src.Bounds()
	for y := 0; y < h; y++ {
		sy := b.Min.Y + y*b.Dy()/h
		for x := 0; x < w; x++ {
			sx := b.Min.X + x*b.Dx()/w
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

// Fetcher downloads with c and decodes into the request's bounds.
func Fetcher(c *httpfetch.Client) batchload.FetchFunc[Request, image.Image] {
	return func(r Request, onSuccess func(image.Image), onError func(error)) batchload.Fetch {
		return batchload.NewFetch(func(ctx context.Context) (image.Image, error) {
			data, err := c.Do(ctx, httpfetch.Request{URL: r.URL, Header: acceptImages})
			if err != nil {
				return nil, err
			}
			return Decode(data, r)
		}, onSuccess, onError)
	}
}

var acceptImages = http.Header{"Accept": {"image/png, image/jpeg, image/gif"}}

type Config struct {
	Name       string // "" => "image"
	Executor   batchload.Executor
	Queue      batchload.Queue
	HTTP       *httpfetch.Client
	Capacity   int64 // bytes of decoded pixels; 0 => provider.DefaultCapacity()
	BatchDelay time.Duration
	Logger     batchload.Logger
	Hooks      batchload.Hooks
}

// New builds an image loader backed by an LRU bounded by decoded size.
func New(cfg Config) (batchload.Loader[Request, image.Image], error) {
	if cfg.HTTP == nil {
		return nil, errors.New("image: http client is required")
	}
	cache, err := lru.New(lru.Config[image.Image]{Capacity: cfg.Capacity, Size: Size})
	if err != nil {
		return nil, err
	}
	name := cfg.Name
	if name == "" {
		name = "image"
	}
	return batchload.New(batchload.Options[Request, image.Image]{
		Name:       name,
		Executor:   cfg.Executor,
		Queue:      cfg.Queue,
		Cache:      cache,
		Key:        Key,
		Fetch:      Fetcher(cfg.HTTP),
		BatchDelay: cfg.BatchDelay,
		Logger:     cfg.Logger,
		Hooks:      cfg.Hooks,
	})
}
