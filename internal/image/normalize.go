// Package image turns an image file on disk into a byte payload plus MIME
// type that the reading backends can put on the wire. Directly supported
// still-image formats pass through untouched; HEIC/HEIF containers are
// decoded and re-encoded into a configured target format first.
package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/gif"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

// extToMIME maps directly supported extensions to their MIME types.
var extToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".heic": "image/heic",
	".heif": "image/heif",
}

// heicExtensions are container formats the remote models do not accept and
// must be normalized before upload.
var heicExtensions = map[string]bool{
	".heic": true,
	".heif": true,
}

type targetFormat struct {
	mime   string
	encode func(w *bytes.Buffer, img image.Image) error
}

var targetFormats = map[string]targetFormat{
	"png": {
		mime: "image/png",
		encode: func(w *bytes.Buffer, img image.Image) error {
			return imaging.Encode(w, img, imaging.PNG)
		},
	},
	"jpeg": {
		mime: "image/jpeg",
		encode: func(w *bytes.Buffer, img image.Image) error {
			return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(95))
		},
	},
	"jpg": {
		mime: "image/jpeg",
		encode: func(w *bytes.Buffer, img image.Image) error {
			return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(95))
		},
	},
	"gif": {
		mime: "image/gif",
		encode: func(w *bytes.Buffer, img image.Image) error {
			// stdlib encoder quantizes to an adaptive 256-color palette
			return gif.Encode(w, img, &gif.Options{NumColors: 256})
		},
	},
}

// Normalized is an image payload ready for upload: encoded bytes plus the
// MIME type to declare. It is never mutated after creation.
type Normalized struct {
	Bytes []byte
	MIME  string
}

// Base64 returns the standard-encoding base64 form of the payload.
func (n *Normalized) Base64() string {
	return base64.StdEncoding.EncodeToString(n.Bytes)
}

// DataURL returns the payload as an inline data URL.
func (n *Normalized) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", n.MIME, n.Base64())
}

// SupportedTargetFormats lists the valid HEIC conversion targets, sorted.
func SupportedTargetFormats() []string {
	out := make([]string, 0, len(targetFormats))
	for f := range targetFormats {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ValidateTargetFormat fails fast on an invalid conversion target so a
// folder run never starts work it cannot finish.
func ValidateTargetFormat(format string) error {
	if _, ok := targetFormats[strings.ToLower(format)]; !ok {
		return &UnsupportedFormatError{Format: format}
	}
	return nil
}

// SupportedExtension reports whether the file's extension is one the
// pipeline converts at all.
func SupportedExtension(path string) bool {
	_, ok := extToMIME[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Normalize loads the image at path and returns an upload-ready payload.
// HEIC/HEIF sources are decoded through the fallback chain and re-encoded
// into targetFormat; everything else is returned as raw bytes with a MIME
// type from the extension table, a content sniff, or octet-stream.
func Normalize(path string, heicTarget string) (*Normalized, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if heicExtensions[ext] {
		return convertHEIC(path, heicTarget)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %q: %w", path, err)
	}
	return &Normalized{Bytes: data, MIME: guessMIME(path, data)}, nil
}

func guessMIME(path string, data []byte) string {
	if m, ok := extToMIME[strings.ToLower(filepath.Ext(path))]; ok {
		return m
	}
	if mt := mimetype.Detect(data); mt != nil && mt.String() != "application/octet-stream" {
		return mt.String()
	}
	return "application/octet-stream"
}

// convertHEIC decodes a HEIC/HEIF file and re-encodes it into the target
// format with that format's encode parameters.
func convertHEIC(path string, target string) (*Normalized, error) {
	target = strings.ToLower(target)
	tf, ok := targetFormats[target]
	if !ok {
		return nil, &UnsupportedFormatError{Format: target}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %q: %w", path, err)
	}

	img, err := decodeHEIC(path, data, heicStrategies())
	if err != nil {
		return nil, err
	}

	return encodeTo(img, target, tf)
}

func encodeTo(img image.Image, target string, tf targetFormat) (*Normalized, error) {
	buf := new(bytes.Buffer)
	if err := tf.encode(buf, img); err != nil {
		return nil, fmt.Errorf("encode %s: %w", target, err)
	}
	return &Normalized{Bytes: buf.Bytes(), MIME: tf.mime}, nil
}
