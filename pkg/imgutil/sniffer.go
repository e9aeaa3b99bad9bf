package imgutil

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// Kind identifies a supported image type.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindTIFF
	KindGIF
	KindWebP
	KindBMP
	KindICO
	KindAVIF
	KindHEIC
	KindJXL
	KindSVG
)

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindTIFF:
		return "tiff"
	case KindGIF:
		return "gif"
	case KindWebP:
		return "webp"
	case KindBMP:
		return "bmp"
	case KindICO:
		return "ico"
	case KindAVIF:
		return "avif"
	case KindHEIC:
		return "heic"
	case KindJXL:
		return "jxl"
	case KindSVG:
		return "svg"
	default:
		return "unknown"
	}
}

// MIME returns the media type for k, e.g. "image/jpeg".
func (k Kind) MIME() string {
	switch k {
	case KindUnknown:
		return "application/octet-stream"
	case KindSVG:
		return "image/svg+xml"
	case KindICO:
		return "image/x-icon"
	default:
		return "image/" + k.String()
	}
}

// IsVector reports whether k is a vector format.
func (k Kind) IsVector() bool {
	return k == KindSVG
}

// SniffLen is the number of leading bytes inspected by SniffReader.
const SniffLen = 512

// ErrEmpty is returned when there is nothing to sniff.
var ErrEmpty = errors.New("empty input")

var (
	pngSig     = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig    = []byte{0xff, 0xd8, 0xff}
	tiffSigLE  = []byte{0x49, 0x49, 0x2a, 0x00}
	tiffSigBE  = []byte{0x4d, 0x4d, 0x00, 0x2a}
	gif87Sig   = []byte("GIF87a")
	gif89Sig   = []byte("GIF89a")
	riffSig    = []byte("RIFF")
	webpTag    = []byte("WEBP")
	bmpSig     = []byte("BM")
	icoSig     = []byte{0x00, 0x00, 0x01, 0x00}
	jxlCodeSig = []byte{0xff, 0x0a}
	jxlBoxSig  = []byte{0x00, 0x00, 0x00, 0x0c, 0x4a, 0x58, 0x4c, 0x20, 0x0d, 0x0a, 0x87, 0x0a}
	ftypTag    = []byte("ftyp")
)

var heifBrands = map[string]Kind{
	"avif": KindAVIF,
	"avis": KindAVIF,
	"heic": KindHEIC,
	"heix": KindHEIC,
	"hevc": KindHEIC,
	"hevx": KindHEIC,
	"heim": KindHEIC,
	"heis": KindHEIC,
}

// DetectHeader inspects the leading bytes of a file for known signatures.
// Binary signatures are checked first; SVG is recognised by a textual
// fallback check.
func DetectHeader(header []byte) (Kind, error) {
	if len(header) == 0 {
		return KindUnknown, ErrEmpty
	}

	switch {
	case hasPrefix(header, jpegSig):
		return KindJPEG, nil
	case hasPrefix(header, pngSig):
		return KindPNG, nil
	case hasPrefix(header, tiffSigLE), hasPrefix(header, tiffSigBE):
		return KindTIFF, nil
	case hasPrefix(header, gif87Sig), hasPrefix(header, gif89Sig):
		return KindGIF, nil
	case hasPrefix(header, riffSig) && len(header) >= 12 && bytes.Equal(header[8:12], webpTag):
		return KindWebP, nil
	case hasPrefix(header, jxlBoxSig), hasPrefix(header, jxlCodeSig):
		return KindJXL, nil
	}

	if kind := detectHEIF(header); kind != KindUnknown {
		return kind, nil
	}

	// Short signatures last, they are the most likely to collide.
	if hasPrefix(header, bmpSig) && len(header) >= 14 {
		return KindBMP, nil
	}
	if hasPrefix(header, icoSig) && len(header) >= 6 && header[4] != 0 {
		return KindICO, nil
	}

	if IsSVG(header) {
		return KindSVG, nil
	}

	return KindUnknown, nil
}

// detectHEIF reads the ISO-BMFF ftyp box: major brand first, then the
// compatible brands, so "mif1" files that list "avif" are still AVIF.
func detectHEIF(header []byte) Kind {
	if len(header) < 12 || !bytes.Equal(header[4:8], ftypTag) {
		return KindUnknown
	}
	if kind, ok := heifBrands[string(header[8:12])]; ok {
		return kind
	}

	boxLen := int(header[0])<<24 | int(header[1])<<16 | int(header[2])<<8 | int(header[3])
	if boxLen > len(header) {
		boxLen = len(header)
	}
	found := KindUnknown
	for off := 16; off+4 <= boxLen; off += 4 {
		kind, ok := heifBrands[string(header[off:off+4])]
		if !ok {
			continue
		}
		if kind == KindAVIF {
			return KindAVIF
		}
		found = kind
	}
	return found
}

// SniffFile reads the leading bytes of a file to determine its type.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	return SniffReader(f)
}

// SniffReader reads up to SniffLen bytes from r and determines its type.
// Inputs shorter than SniffLen are fine; an empty input yields ErrEmpty.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, SniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return KindUnknown, ErrEmpty
		}
		return KindUnknown, err
	}

	return DetectHeader(header[:n])
}

func hasPrefix(buf, prefix []byte) bool {
	return bytes.HasPrefix(buf, prefix)
}
