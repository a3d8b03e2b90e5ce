// Package artifact represents the final output image of a job together with
// its detected encoding.
package artifact

import "bytes"

// Format identifies the image encoding of an artifact.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	if f == FormatPNG {
		return ".png"
	}
	return ".jpg"
}

var (
	pngMagic  = []byte{0x89, 0x50, 0x4e, 0x47}
	jpegMagic = []byte{0xff, 0xd8, 0xff}
)

// Detect sniffs the image format from magic bytes. Unknown content defaults
// to JPEG, matching how providers deliver unlabeled images.
func Detect(data []byte) Format {
	if bytes.HasPrefix(data, pngMagic) {
		return FormatPNG
	}
	if bytes.HasPrefix(data, jpegMagic) {
		return FormatJPEG
	}
	return FormatJPEG
}

// Artifact is produced once per successful job execution and never mutated.
type Artifact struct {
	Data   []byte
	Format Format
}

// New builds an artifact, sniffing the format from the data.
func New(data []byte) *Artifact {
	return &Artifact{Data: data, Format: Detect(data)}
}
