package image

import (
	"bytes"
	"image"
	_ "image/jpeg" // registered for mislabeled containers and tool output
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/jdeng/goheif"
)

// decodeStrategy is one attempt at turning HEIC bytes into an image. Each
// strategy's failure message is collected so the final DecodeError shows
// everything that was tried. Phone camera software produces malformed HEIC
// often enough that no single decoder covers every file.
type decodeStrategy struct {
	name   string
	decode func(path string, data []byte) (image.Image, error)
}

// goheif.SafeEncoding is a package-level switch, so serialize the strategy
// runs that touch it.
var goheifMu sync.Mutex

func heicStrategies() []decodeStrategy {
	strategies := []decodeStrategy{
		{name: "goheif", decode: decodeGoheif},
		{name: "goheif-safe", decode: decodeGoheifSafe},
		{name: "image-decode", decode: decodeGeneric},
	}
	return append(strategies, externalStrategies()...)
}

func decodeHEIC(path string, data []byte, strategies []decodeStrategy) (image.Image, error) {
	var attempts []string
	for _, s := range strategies {
		img, err := s.decode(path, data)
		if err != nil {
			attempts = append(attempts, s.name+": "+err.Error())
			continue
		}
		return img, nil
	}
	return nil, &DecodeError{Path: path, Attempts: dedupe(attempts)}
}

func decodeGoheif(_ string, data []byte) (image.Image, error) {
	goheifMu.Lock()
	defer goheifMu.Unlock()
	goheif.SafeEncoding = false
	return goheif.Decode(bytes.NewReader(data))
}

// decodeGoheifSafe retries with the slower copy-on-decode mode, which
// tolerates tiles the fast path chokes on.
func decodeGoheifSafe(_ string, data []byte) (image.Image, error) {
	goheifMu.Lock()
	defer goheifMu.Unlock()
	goheif.SafeEncoding = true
	defer func() { goheif.SafeEncoding = false }()
	return goheif.Decode(bytes.NewReader(data))
}

// decodeGeneric handles files with a .heic extension that actually contain
// a format the stdlib registry knows (some camera apps mislabel JPEGs).
func decodeGeneric(_ string, data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// externalStrategies probes the system path for image-conversion utilities
// and returns one strategy per available tool, in preference order. Probing
// happens per call so a tool installed mid-run is picked up.
func externalStrategies() []decodeStrategy {
	var out []decodeStrategy
	if _, err := exec.LookPath("magick"); err == nil {
		out = append(out, decodeStrategy{name: "magick", decode: decodeWithMagick})
	}
	if _, err := exec.LookPath("heif-convert"); err == nil {
		out = append(out, decodeStrategy{name: "heif-convert", decode: decodeWithHeifConvert})
	}
	if _, err := exec.LookPath("sips"); err == nil {
		out = append(out, decodeStrategy{name: "sips", decode: decodeWithSips})
	}
	return out
}

// decodeWithMagick converts through ImageMagick, reading PNG from stdout.
func decodeWithMagick(path string, _ []byte) (image.Image, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command("magick", path, "png:-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, commandError("magick", err, stderr.Bytes())
	}
	img, _, err := image.Decode(&stdout)
	return img, err
}

// decodeWithHeifConvert converts through libheif's CLI via a temp file.
func decodeWithHeifConvert(path string, _ []byte) (image.Image, error) {
	return decodeViaTempFile(path, func(out string) *exec.Cmd {
		return exec.Command("heif-convert", path, out)
	})
}

// decodeWithSips converts through the macOS sips utility via a temp file.
func decodeWithSips(path string, _ []byte) (image.Image, error) {
	return decodeViaTempFile(path, func(out string) *exec.Cmd {
		return exec.Command("sips", "-s", "format", "png", path, "--out", out)
	})
}

func decodeViaTempFile(path string, build func(out string) *exec.Cmd) (image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "papyrus-heic-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	outPath := filepath.Join(tmpDir, "converted.png")
	var stderr bytes.Buffer
	cmd := build(outPath)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, commandError(cmd.Args[0], err, stderr.Bytes())
	}

	f, err := os.Open(outPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

func commandError(tool string, err error, stderr []byte) error {
	msg := bytes.TrimSpace(stderr)
	if len(msg) == 0 {
		return err
	}
	return &toolError{tool: tool, cause: err, detail: string(msg)}
}

type toolError struct {
	tool   string
	cause  error
	detail string
}

func (e *toolError) Error() string {
	return e.tool + ": " + e.cause.Error() + ": " + e.detail
}

func (e *toolError) Unwrap() error { return e.cause }
