// Package fonts provides the typefaces used by raster rendering.
//
// The Go font family ships as TTF data inside golang.org/x/image, so
// the binary needs no font files on disk and PNG output is identical
// across machines.
package fonts

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	regularOnce sync.Once
	regularFont *truetype.Font
	regularErr  error

	monoOnce sync.Once
	monoFont *truetype.Font
	monoErr  error
)

// Regular returns the Go Regular typeface used for node titles.
func Regular() (*truetype.Font, error) {
	regularOnce.Do(func() {
		regularFont, regularErr = truetype.Parse(goregular.TTF)
	})
	return regularFont, regularErr
}

// Mono returns the Go Mono typeface used for attribute values.
func Mono() (*truetype.Font, error) {
	monoOnce.Do(func() {
		monoFont, monoErr = truetype.Parse(gomono.TTF)
	})
	return monoFont, monoErr
}

// Face builds a render-ready face at the given point size.
func Face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// FontFamily is the CSS font-family used by the SVG renderer. SVG
// output references system fonts rather than embedding data, keeping
// artifacts small.
const FontFamily = `'Helvetica Neue', Helvetica, Arial, sans-serif`

// MonoFontFamily is the CSS font-family for attribute text in SVG.
const MonoFontFamily = `'SF Mono', Menlo, Consolas, monospace`
