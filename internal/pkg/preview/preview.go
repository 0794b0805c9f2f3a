package preview

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// Image is an encoded preview ready to be served.
type Image struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

type Previewer interface {
	// Verify reports whether data decodes as a JPEG or PNG image.
	Verify(data []byte) error
	// Render scales the image down to fit the configured box.
	Render(data []byte) (*Image, error)
}

type previewer struct {
	maxSize int
}

func NewPreviewer(maxSize int) Previewer {
	if maxSize <= 0 {
		maxSize = 800
	}
	return &previewer{maxSize: maxSize}
}

func (p *previewer) Verify(data []byte) error {
	_, _, err := p.loadImage(data)
	return err
}

func (p *previewer) Render(data []byte) (*Image, error) {
	img, format, err := p.loadImage(data)
	if err != nil {
		return nil, err
	}

	// Уменьшаем только большие изображения
	bounds := img.Bounds()
	if bounds.Dx() > p.maxSize || bounds.Dy() > p.maxSize {
		img = imaging.Fit(img, p.maxSize, p.maxSize, imaging.Lanczos)
	}

	var buf bytes.Buffer
	contentType := "image/jpeg"
	switch format {
	case "png":
		contentType = "image/png"
		err = imaging.Encode(&buf, img, imaging.PNG)
	default:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &Image{
		Data:        buf.Bytes(),
		ContentType: contentType,
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
	}, nil
}

func (p *previewer) loadImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	// imaging регистрирует и другие форматы, принимаем только jpeg и png
	switch format {
	case "jpeg", "png":
		return img, format, nil
	default:
		return nil, "", fmt.Errorf("unsupported format: %s", format)
	}
}
