package server

import (
	"compress/gzip"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/sambeau/viewscope/config"
)

// newCompressionHandler wraps h with gzip compression.
// Returns h unchanged if compression is disabled or level is "none".
func newCompressionHandler(h http.Handler, cfg config.CompressionConfig) (http.Handler, error) {
	if !cfg.Enabled || cfg.Level == "none" {
		return h, nil
	}

	level := gzip.DefaultCompression
	switch cfg.Level {
	case "fastest":
		level = gzip.BestSpeed
	case "best":
		level = gzip.BestCompression
	}

	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(cfg.MinSize),
		gzhttp.CompressionLevel(level),
	)
	if err != nil {
		return nil, err
	}
	return wrapper(h), nil
}
