package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"logodetect_backend/internal/feature/detection/domain/entity"
	"logodetect_backend/internal/feature/detection/usecase"
)

const (
	// DefaultJPEGQuality matches the quality used for annotated frames and data URLs.
	DefaultJPEGQuality = 85

	boxThickness = 2
	labelPadding = 5
)

// Renderer implements usecase.ImageRenderer.
type Renderer struct {
	quality int
	face    font.Face
}

var _ usecase.ImageRenderer = (*Renderer)(nil)

// NewRenderer creates a Renderer. A quality outside 1..100 falls back to DefaultJPEGQuality.
func NewRenderer(quality int) *Renderer {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Renderer{quality: quality, face: basicfont.Face7x13}
}

// Decode decodes JPEG, PNG, GIF, BMP, TIFF and WebP data, honouring EXIF orientation.
func (r *Renderer) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Annotate returns a copy of img with a box and a "<class> <conf>" label per detection.
func (r *Renderer) Annotate(img image.Image, detections []entity.Detection) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	for _, d := range detections {
		c := ClassColor(d.ClassID)
		rect := clampRect(image.Rect(
			int(d.BBox[0]), int(d.BBox[1]), int(d.BBox[2]), int(d.BBox[3]),
		), dst.Bounds())
		if rect.Empty() {
			continue
		}
		drawBox(dst, rect, c)
		r.drawLabel(dst, rect, fmt.Sprintf("%s %.2f", d.ClassName, d.Confidence), c)
	}
	return dst
}

// EncodeJPEG encodes img as JPEG at the renderer's quality.
func (r *Renderer) EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(r.quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// JPEGDataURL renders JPEG bytes as a data:image/jpeg;base64 URL.
func JPEGDataURL(jpeg []byte) string {
	if len(jpeg) == 0 {
		return ""
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
}

// ClassColor returns a stable, distinct colour per class id.
func ClassColor(classID int) color.RGBA {
	// golden-angle hue spacing keeps neighbouring ids apart
	hue := math.Mod(float64(classID)*137.508, 360)
	if hue < 0 {
		hue += 360
	}
	r, g, b := colorful.Hsv(hue, 0.85, 0.95).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func (r *Renderer) drawLabel(dst *image.RGBA, box image.Rectangle, label string, bg color.RGBA) {
	metrics := r.face.Metrics()
	textW := font.MeasureString(r.face, label).Ceil()
	textH := (metrics.Ascent + metrics.Descent).Ceil()

	top := box.Min.Y - textH - 2*labelPadding
	if top < dst.Bounds().Min.Y {
		// no room above the box: draw the label inside it
		top = box.Min.Y
	}
	labelRect := clampRect(image.Rect(box.Min.X, top, box.Min.X+textW, top+textH+2*labelPadding), dst.Bounds())
	draw.Draw(dst, labelRect, image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: r.face,
		Dot:  fixed.P(box.Min.X, top+labelPadding+metrics.Ascent.Ceil()),
	}
	d.DrawString(label)
}

func drawBox(dst *image.RGBA, rect image.Rectangle, c color.RGBA) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+boxThickness),
		image.Rect(rect.Min.X, rect.Max.Y-boxThickness, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+boxThickness, rect.Max.Y),
		image.Rect(rect.Max.X-boxThickness, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}

func clampRect(r, bounds image.Rectangle) image.Rectangle {
	return r.Canon().Intersect(bounds)
}
