package services

import (
	"image"
	"io"

	// Decoders used by image.DecodeConfig.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// sniffReader reads pixel dimensions from r and rewinds it. Readers that
// cannot seek are left untouched and report no dimensions.
func sniffReader(r io.Reader) (*int, *int) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		return nil, nil
	}
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, nil
	}
	w, h := sniffDimensions(rs)
	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return nil, nil
	}
	return w, h
}

// sniffDimensions decodes only the image header. HEIC and anything else
// without a registered decoder yields nil.
func sniffDimensions(r io.Reader) (*int, *int) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, nil
	}
	w, h := cfg.Width, cfg.Height
	return &w, &h
}
