package assets

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gallery-be/internal/logger"

	"go.uber.org/zap"
)

// Dimensions is the natural size of an image asset.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Resolver maps an image identifier to its dimensions, if the asset exists.
type Resolver interface {
	Resolve(identifier string) (Dimensions, bool)
}

var extensions = []string{".png", ".jpg", ".jpeg", ".gif"}

type lookup struct {
	dims  Dimensions
	found bool
}

// DirResolver resolves identifiers against image files in a directory.
// Results, misses included, are memoized.
type DirResolver struct {
	dir   string
	cache sync.Map
}

func NewDirResolver(dir string) *DirResolver {
	return &DirResolver{dir: dir}
}

func (r *DirResolver) Resolve(identifier string) (Dimensions, bool) {
	if v, ok := r.cache.Load(identifier); ok {
		l := v.(lookup)
		return l.dims, l.found
	}

	l := r.lookup(identifier)
	r.cache.Store(identifier, l)
	return l.dims, l.found
}

func (r *DirResolver) lookup(identifier string) lookup {
	// identifiers are bare names; anything path-like is not an asset
	if identifier == "" || strings.ContainsAny(identifier, `/\`) || strings.Contains(identifier, "..") {
		return lookup{}
	}

	for _, ext := range extensions {
		path := filepath.Join(r.dir, identifier+ext)
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		cfg, _, err := image.DecodeConfig(f)
		f.Close()
		if err != nil {
			logger.L().Warn("asset header unreadable",
				zap.String("identifier", identifier),
				zap.String("path", path),
				zap.Error(err),
			)
			return lookup{}
		}
		return lookup{dims: Dimensions{Width: cfg.Width, Height: cfg.Height}, found: true}
	}

	logger.L().Debug("asset not found", zap.String("identifier", identifier))
	return lookup{}
}

// StaticResolver is a fixed identifier table.
type StaticResolver map[string]Dimensions

func (s StaticResolver) Resolve(identifier string) (Dimensions, bool) {
	d, ok := s[identifier]
	return d, ok
}
