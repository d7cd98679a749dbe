// Package canvas implements render.Surface on an in-memory RGBA image.
package canvas

import (
	"bufio"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"codeberg.org/mutker/perfscope/internal/errors"
	"codeberg.org/mutker/perfscope/internal/render"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Background is the color ClearRect paints.
var Background = color.RGBA{R: 18, G: 18, B: 18, A: 255}

var labelBackground = color.RGBA{R: 0, G: 0, B: 0, A: 200}

const labelPad = 3

// Raster draws onto an *image.RGBA. It is not safe for concurrent use.
type Raster struct {
	img  *image.RGBA
	gc   *drawing.RasterGraphicContext
	face font.Face
}

// New allocates a width x height raster cleared to Background.
func New(width, height int) (*Raster, error) {
	errFactory := errors.New()

	if width <= 0 || height <= 0 {
		return nil, errFactory.WithData(errors.ErrInvalidArgument, "canvas size must be positive")
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	gc, err := drawing.NewRasterGraphicContext(img)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitFailed, err)
	}

	r := &Raster{img: img, gc: gc, face: basicfont.Face7x13}
	r.ClearRect(0, 0, float64(width), float64(height))

	return r, nil
}

func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) Size() (width, height int) {
	b := r.img.Bounds()
	return b.Dx(), b.Dy()
}

// ClearRect paints the rectangle with Background.
func (r *Raster) ClearRect(x, y, w, h float64) {
	rect := image.Rect(int(x), int(y), int(x+w), int(y+h))
	draw.Draw(r.img, rect, image.NewUniform(Background), image.Point{}, draw.Src)
}

func (r *Raster) StrokeLine(points []render.Point, c drawing.Color, width float64) {
	if len(points) < 2 {
		return
	}

	r.gc.BeginPath()
	r.gc.SetStrokeColor(c)
	r.gc.SetLineWidth(width)
	r.gc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		r.gc.LineTo(p.X, p.Y)
	}
	r.gc.Stroke()
}

// FillLabel draws text with its baseline at y on a dark box.
func (r *Raster) FillLabel(x, y float64, text string, c drawing.Color) {
	if text == "" {
		return
	}

	dr := &font.Drawer{Dst: r.img, Src: image.NewUniform(c), Face: r.face}
	tw := dr.MeasureString(text).Ceil()
	ix, iy := int(x), int(y)

	box := image.Rect(ix-labelPad, iy-r.face.Metrics().Ascent.Ceil()-labelPad, ix+tw+labelPad, iy+labelPad)
	draw.Draw(r.img, box, image.NewUniform(labelBackground), image.Point{}, draw.Over)

	dr.Dot = fixed.Point26_6{X: fixed.I(ix), Y: fixed.I(iy)}
	dr.DrawString(text)
}

func (r *Raster) WritePNG(w io.Writer) error {
	if err := png.Encode(w, r.img); err != nil {
		return errors.New().Wrap(errors.ErrSnapshot, err)
	}
	return nil
}

// SavePNG writes the image to path through a temporary file in the same
// directory so readers never see a partial image.
func (r *Raster) SavePNG(path string) error {
	errFactory := errors.New()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".perfscope-*.png")
	if err != nil {
		return errFactory.Wrap(errors.ErrSnapshot, err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := r.WritePNG(bw); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return errFactory.Wrap(errors.ErrSnapshot, err)
	}
	if err := tmp.Close(); err != nil {
		return errFactory.Wrap(errors.ErrSnapshot, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errFactory.Wrap(errors.ErrSnapshot, err)
	}

	return nil
}

var _ render.Surface = (*Raster)(nil)
