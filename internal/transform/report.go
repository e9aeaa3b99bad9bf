package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Captions printed by avifenc in its summary block.
const (
	captionResolution      = "* Resolution     :"
	captionBitDepth        = "* Bit Depth      :"
	captionFormat          = "* Format         :"
	captionChromaSamplePos = "* Chroma Sam. Pos:"
	captionAlpha           = "* Alpha          :"
	captionRange           = "* Range          :"
	captionColorPrimaries  = "* Color Primaries:"
	captionTransferChar    = "* Transfer Char. :"
	captionMatrixCoeffs    = "* Matrix Coeffs. :"
	captionICCProfile      = "* ICC Profile    :"
	captionXMPMetadata     = "* XMP Metadata   :"
	captionExifMetadata    = "* Exif Metadata  :"
	captionTransformations = "* Transformations:"
	captionProgressive     = "* Progressive    :"
	captionColorSize       = "* Color AV1 total size:"
	captionAlphaSize       = "* Alpha AV1 total size:"
)

// Report holds the descriptive fields of an encoder summary. String fields
// are empty when the encoder did not print them.
type Report struct {
	Resolution              string
	BitDepth                string
	Format                  string
	ChromaSamplePosition    string
	Alpha                   string
	Range                   string
	ColorPrimaries          string
	TransferCharacteristics string
	MatrixCoefficients      string
	Transformations         string

	ICCProfilePresent   bool
	XMPMetadataPresent  bool
	ExifMetadataPresent bool
	Progressive         bool
}

// Result is the parsed outcome of one encode.
type Result struct {
	ColorSizeBytes uint64
	AlphaSizeBytes uint64
	Report         Report
}

// TotalBytes is the encoded payload size, color plus alpha.
func (r Result) TotalBytes() uint64 {
	return r.ColorSizeBytes + r.AlphaSizeBytes
}

var errMissing = errors.New("field not found")

// fields indexes a report by caption. Only the first occurrence of a
// caption counts.
type fields []string

func splitReport(stdout string) fields {
	lines := strings.Split(stdout, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}

func (f fields) value(caption string) (string, bool) {
	for _, line := range f {
		if _, after, ok := strings.Cut(line, caption); ok {
			return strings.ToLower(strings.TrimSpace(after)), true
		}
	}
	return "", false
}

func (f fields) text(caption string) string {
	v, _ := f.value(caption)
	return v
}

// present treats a missing line the same as the negative value.
func (f fields) present(caption, negative string) bool {
	v, ok := f.value(caption)
	return ok && v != negative
}

// ParseReport extracts a Result from avifenc's standard output. Both
// total-size lines are required; every other field is optional.
func ParseReport(stdout string) (Result, error) {
	f := splitReport(stdout)

	color, err := f.size(captionColorSize)
	if err != nil {
		return Result{}, err
	}
	alpha, err := f.size(captionAlphaSize)
	if err != nil {
		return Result{}, err
	}

	return Result{
		ColorSizeBytes: color,
		AlphaSizeBytes: alpha,
		Report: Report{
			Resolution:              f.text(captionResolution),
			BitDepth:                f.text(captionBitDepth),
			Format:                  f.text(captionFormat),
			ChromaSamplePosition:    f.text(captionChromaSamplePos),
			Alpha:                   f.text(captionAlpha),
			Range:                   f.text(captionRange),
			ColorPrimaries:          f.text(captionColorPrimaries),
			TransferCharacteristics: f.text(captionTransferChar),
			MatrixCoefficients:      f.text(captionMatrixCoeffs),
			Transformations:         f.text(captionTransformations),
			ICCProfilePresent:       f.present(captionICCProfile, "absent"),
			XMPMetadataPresent:      f.present(captionXMPMetadata, "absent"),
			ExifMetadataPresent:     f.present(captionExifMetadata, "absent"),
			Progressive:             f.present(captionProgressive, "unavailable"),
		},
	}, nil
}

func (f fields) size(caption string) (uint64, error) {
	raw, ok := f.value(caption)
	if !ok {
		return 0, &TransformError{Op: "parse", Reason: MissingField, Field: caption, Err: errMissing}
	}
	n, err := ParseSize(raw)
	if err != nil {
		return 0, &TransformError{Op: "parse", Reason: UnparsableReport, Field: caption, Err: err}
	}
	return n, nil
}

// ParseSize converts human size notation ("12.3 KiB", "512 B",
// "47393 bytes") into a byte count. Binary and decimal units are both
// accepted, following go-humanize.
func ParseSize(s string) (uint64, error) {
	v := strings.TrimSpace(strings.ToLower(s))
	if v == "" {
		return 0, fmt.Errorf("empty size")
	}
	if num, ok := strings.CutSuffix(v, "bytes"); ok {
		v = strings.TrimSpace(num) + " b"
	} else if num, ok := strings.CutSuffix(v, "byte"); ok {
		v = strings.TrimSpace(num) + " b"
	}
	n, err := humanize.ParseBytes(v)
	if err != nil {
		return 0, fmt.Errorf("parse size %q: %w", s, err)
	}
	return n, nil
}
