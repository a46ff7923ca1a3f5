package image

import (
	"fmt"
	"sort"
	"strings"
)

// UnsupportedFormatError reports a conversion target outside the supported
// set. It is raised before any decode work starts.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported conversion target %q, choose one of %s",
		e.Format, strings.Join(SupportedTargetFormats(), ", "))
}

// DecodeError reports that every decode strategy failed for one image. The
// collected attempt messages are deduplicated so repeated decoder errors do
// not drown the useful ones.
type DecodeError struct {
	Path     string
	Attempts []string
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("failed to decode image %q after %d attempts", e.Path, len(e.Attempts))
	details := dedupe(e.Attempts)
	if len(details) > 0 {
		msg += ": " + strings.Join(details, "; ")
	}
	return msg
}

func dedupe(msgs []string) []string {
	seen := make(map[string]bool, len(msgs))
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
