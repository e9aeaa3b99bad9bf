package sourcemeta

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

// scanPNG walks the chunk list up to IEND without decoding image data.
func scanPNG(rs io.ReadSeeker) (Metadata, error) {
	md := Metadata{Inspected: true}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return md, err
	}

	br := bufio.NewReader(rs)

	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(br, sig); err != nil {
		return md, err
	}
	if !bytes.Equal(sig, pngSignature) {
		return md, errors.New("invalid PNG signature")
	}

	head := make([]byte, 8)
	for {
		if _, err := io.ReadFull(br, head); err != nil {
			if errors.Is(err, io.EOF) {
				return md, nil
			}
			return md, err
		}
		length := binary.BigEndian.Uint32(head[:4])
		chunk := string(head[4:8])

		switch chunk {
		case "tEXt", "zTXt", "iTXt":
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return md, err
			}
			if _, err := io.CopyN(io.Discard, br, 4); err != nil {
				return md, err
			}
			md.HasText = true
			if idx := bytes.IndexByte(data, 0); idx > 0 {
				applyTextKey(&md, string(data[:idx]))
			}
			continue
		case "tIME":
			md.HasTimestamp = true
		case "eXIf":
			md.HasExif = true
		case "iCCP":
			md.HasICC = true
		}

		if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
			return md, err
		}
		if chunk == "IEND" {
			return md, nil
		}
	}
}
