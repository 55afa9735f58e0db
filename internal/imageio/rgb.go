// Package imageio converts between wire encodings and the packed RGB buffers
// handed to the colorization model.
package imageio

import (
	"image"
	"image/color"
)

// RGB is a packed 3-channel, 8-bit image. Pix holds R, G, B for each pixel
// in row-major order.
type RGB struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

// NewRGB allocates an RGB image covering r.
func NewRGB(r image.Rectangle) *RGB {
	w, h := r.Dx(), r.Dy()
	return &RGB{Pix: make([]uint8, 3*w*h), Stride: 3 * w, Rect: r}
}

func (p *RGB) ColorModel() color.Model { return color.RGBAModel }

func (p *RGB) Bounds() image.Rectangle { return p.Rect }

func (p *RGB) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	return color.RGBA{R: p.Pix[i], G: p.Pix[i+1], B: p.Pix[i+2], A: 0xff}
}

// PixOffset returns the index of the first byte of pixel (x, y) in Pix.
func (p *RGB) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

// SetRGB stores one pixel. Out-of-bounds writes are ignored.
func (p *RGB) SetRGB(x, y int, r, g, b uint8) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	p.Pix[i], p.Pix[i+1], p.Pix[i+2] = r, g, b
}

// ToRGB converts any image into a packed RGB buffer anchored at the origin.
// Alpha is discarded: colour channels are un-premultiplied and kept as-is.
func ToRGB(src image.Image) *RGB {
	b := src.Bounds()
	dst := NewRGB(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch s := src.(type) {
	case *RGB:
		for y := 0; y < b.Dy(); y++ {
			si := s.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], s.Pix[si:si+dst.Stride])
		}
		return dst
	case *image.NRGBA:
		for y := 0; y < b.Dy(); y++ {
			si := s.PixOffset(b.Min.X, b.Min.Y+y)
			di := y * dst.Stride
			for x := 0; x < b.Dx(); x++ {
				dst.Pix[di], dst.Pix[di+1], dst.Pix[di+2] = s.Pix[si], s.Pix[si+1], s.Pix[si+2]
				si += 4
				di += 3
			}
		}
		return dst
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			dst.SetRGB(x, y, c.R, c.G, c.B)
		}
	}
	return dst
}
