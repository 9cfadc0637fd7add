package design

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/image/draw"
)

const previewQuality = 75

// MaxPixels bounds width*height of an accepted image. The header is checked
// before decoding, so a small file declaring huge dimensions never allocates
// its pixel buffer.
const MaxPixels = 89_478_485

var ErrImageDecode = errors.New("cannot decode reference image")

var imageExtensions = []string{".jpg", ".jpeg", ".png"}

// Image is an uploaded reference sketch or site photo.
type Image struct {
	Name     string
	Data     []byte
	MIMEType string
	Width    int
	Height   int

	decoded image.Image
}

// DecodeImage accepts jpg, jpeg and png uploads whose bytes actually decode.
// Anything else is rejected with ErrImageDecode so it never reaches the model.
func DecodeImage(name string, data []byte) (*Image, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !lo.Contains(imageExtensions, ext) {
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrImageDecode, ext)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageDecode, name, err)
	}
	if format != "jpeg" && format != "png" {
		return nil, fmt.Errorf("%w: %s: unsupported format %s", ErrImageDecode, name, format)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %s: %dx%d exceeds %d pixels", ErrImageDecode, name, cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageDecode, name, err)
	}

	b := img.Bounds()
	return &Image{
		Name:     name,
		Data:     data,
		MIMEType: "image/" + format,
		Width:    b.Dx(),
		Height:   b.Dy(),
		decoded:  img,
	}, nil
}

// Preview returns a data URI of the image scaled down to at most maxWidth
// pixels wide. A non-positive maxWidth keeps the original size.
func (i *Image) Preview(maxWidth int) (string, error) {
	src := i.decoded
	if src == nil {
		img, _, err := image.Decode(bytes.NewReader(i.Data))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrImageDecode, err)
		}
		src = img
	}

	b := src.Bounds()
	if maxWidth > 0 && b.Dx() > maxWidth {
		height := max(b.Dy()*maxWidth/b.Dx(), 1)
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: previewQuality}); err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
