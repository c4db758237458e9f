// Package render draws certificate images.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"solana-cert-mint/internal/domain"
)

// Default canvas size.
const (
	DefaultWidth  = 1200
	DefaultHeight = 850
)

// Renderer produces PNG certificate images.
type Renderer interface {
	Render(ctx context.Context, fact domain.CertificateFact) ([]byte, error)
}

// Palette.
var (
	gradientStart = color.RGBA{0x66, 0x7e, 0xea, 0xff}
	gradientEnd   = color.RGBA{0x76, 0x4b, 0xa2, 0xff}
	white         = color.RGBA{0xff, 0xff, 0xff, 0xff}
	offWhite      = color.RGBA{0xf0, 0xf0, 0xf0, 0xff}
	lightGray     = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
	gold          = color.RGBA{0xff, 0xd7, 0x00, 0xff}
)

// PNGRenderer draws the certificate on a gradient canvas with a bitmap font
// scaled up per line. Output is deterministic for a given fact.
type PNGRenderer struct {
	width       int
	height      int
	institution string
	face        font.Face
}

// Options configures a PNGRenderer.
type Options struct {
	Width       int
	Height      int
	Institution string
}

// NewPNGRenderer creates a renderer.
func NewPNGRenderer(opts Options) *PNGRenderer {
	r := &PNGRenderer{
		width:       opts.Width,
		height:      opts.Height,
		institution: opts.Institution,
		face:        basicfont.Face7x13,
	}
	if r.width <= 0 {
		r.width = DefaultWidth
	}
	if r.height <= 0 {
		r.height = DefaultHeight
	}
	if r.institution == "" {
		r.institution = domain.DefaultInstitution
	}
	return r
}

var _ Renderer = (*PNGRenderer)(nil)

// textLine is one centered line of text. y is the line center as a fraction of the height.
type textLine struct {
	text  string
	y     float64
	scale int
	color color.Color
}

// Render draws fact and encodes the image as PNG.
func (r *PNGRenderer) Render(ctx context.Context, fact domain.CertificateFact) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	r.fillGradient(img)
	strokeRect(img, 40, 40, r.width-40, r.height-40, 8, white)
	strokeRect(img, 60, 60, r.width-60, r.height-60, 2, offWhite)

	lines := []textLine{
		{"SERTIFIKAT", 0.165, 6, white},
		{"PESERTA", 0.235, 6, white},
		{"Diberikan kepada:", 0.32, 3, white},
		{strings.ToUpper(fact.Name), 0.405, 5, gold},
		{"Atas partisipasi dalam kegiatan:", 0.49, 3, white},
		{fact.Activity, 0.56, 4, white},
		{"Tanggal: " + fact.Date, 0.64, 3, white},
		{"ID Sertifikat: " + fact.ID, 0.72, 2, lightGray},
		{strings.ToUpper(r.institution), 0.815, 3, white},
		{"Sistem Sertifikasi Digital Berbasis Blockchain", 0.855, 2, white},
		{"Terverifikasi di Blockchain Solana", 0.91, 2, gold},
	}
	for _, l := range lines {
		r.drawCentered(img, l)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// fillGradient paints a diagonal two-stop gradient.
func (r *PNGRenderer) fillGradient(img *image.RGBA) {
	span := float64(r.width + r.height)
	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			t := float64(x+y) / span
			img.SetRGBA(x, y, lerp(gradientStart, gradientEnd, t))
		}
	}
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(p, q uint8) uint8 {
		return uint8(float64(p) + (float64(q)-float64(p))*t)
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 0xff}
}

// strokeRect draws a rectangle outline of the given thickness, centered on the edges.
func strokeRect(img *image.RGBA, x0, y0, x1, y1, thickness int, c color.Color) {
	src := image.NewUniform(c)
	half := thickness / 2
	edges := []image.Rectangle{
		image.Rect(x0-half, y0-half, x1+half, y0+half+thickness%2), // top
		image.Rect(x0-half, y1-half, x1+half, y1+half+thickness%2), // bottom
		image.Rect(x0-half, y0-half, x0+half+thickness%2, y1+half), // left
		image.Rect(x1-half, y0-half, x1+half+thickness%2, y1+half), // right
	}
	for _, e := range edges {
		draw.Draw(img, e, src, image.Point{}, draw.Src)
	}
}

// drawCentered renders text at 1x into a scratch image and scales it onto dst,
// shrinking the scale until the line fits inside the inner border.
func (r *PNGRenderer) drawCentered(dst *image.RGBA, l textLine) {
	if l.text == "" {
		return
	}

	metrics := r.face.Metrics()
	ascent := metrics.Ascent.Ceil()
	lineH := metrics.Height.Ceil()
	w := font.MeasureString(r.face, l.text).Ceil()
	if w == 0 {
		return
	}

	scratch := image.NewRGBA(image.Rect(0, 0, w, lineH))
	d := &font.Drawer{
		Dst:  scratch,
		Src:  image.NewUniform(l.color),
		Face: r.face,
		Dot:  fixed.P(0, ascent),
	}
	d.DrawString(l.text)

	maxW := r.width - 160
	scale := l.scale
	for scale > 1 && w*scale > maxW {
		scale--
	}

	sw, sh := w*scale, lineH*scale
	cx := r.width / 2
	cy := int(l.y * float64(r.height))
	target := image.Rect(cx-sw/2, cy-sh/2, cx-sw/2+sw, cy-sh/2+sh)

	xdraw.NearestNeighbor.Scale(dst, target, scratch, scratch.Bounds(), xdraw.Over, nil)
}
