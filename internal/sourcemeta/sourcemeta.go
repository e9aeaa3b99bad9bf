// Package sourcemeta reports which kinds of embedded metadata an input
// image carries, so a run can tell whether the encoder kept it.
package sourcemeta

import (
	"fmt"
	"io"
	"os"
	"strings"

	"avifgun/pkg/imgutil"
)

// Metadata lists the metadata found in a source image.
type Metadata struct {
	// Inspected is false when the kind has no inspector.
	Inspected    bool
	HasExif      bool
	HasGPS       bool
	HasModel     bool
	HasTimestamp bool
	HasICC       bool
	HasText      bool
	SerialCount  int
}

// Categories returns human-readable labels for the metadata present.
func (m Metadata) Categories() []string {
	cats := []string{}
	if m.HasExif {
		cats = append(cats, "Exif")
	}
	if m.HasGPS {
		cats = append(cats, "GPS")
	}
	if m.HasModel {
		cats = append(cats, "Device Model")
	}
	if m.HasTimestamp {
		cats = append(cats, "Timestamp")
	}
	if m.SerialCount > 0 {
		cats = append(cats, "Serial")
	}
	if m.HasICC {
		cats = append(cats, "ICC")
	}
	if m.HasText {
		cats = append(cats, "Text")
	}
	return cats
}

// Inspect opens path and dispatches on kind.
func Inspect(path string, kind imgutil.Kind) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()

	return InspectReader(f, kind)
}

// InspectReader is Inspect over an already-open file.
func InspectReader(rs io.ReadSeeker, kind imgutil.Kind) (Metadata, error) {
	switch kind {
	case imgutil.KindJPEG, imgutil.KindTIFF:
		md, err := analyzeExif(rs)
		if err != nil {
			return md, fmt.Errorf("read exif: %w", err)
		}
		return md, nil
	case imgutil.KindPNG:
		md, err := scanPNG(rs)
		if err != nil {
			return md, fmt.Errorf("read png chunks: %w", err)
		}
		return md, nil
	default:
		return Metadata{}, nil
	}
}

func applyTextKey(md *Metadata, key string) {
	lower := strings.ToLower(key)
	if strings.Contains(lower, "gps") || strings.Contains(lower, "latitude") || strings.Contains(lower, "longitude") {
		md.HasGPS = true
	}
	if strings.Contains(lower, "model") || strings.Contains(lower, "make") {
		md.HasModel = true
	}
	if strings.Contains(lower, "date") || strings.Contains(lower, "time") {
		md.HasTimestamp = true
	}
	if strings.Contains(lower, "serial") {
		md.SerialCount++
	}
}
