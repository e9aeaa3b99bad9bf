package imgutil

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectHeader(t *testing.T) {
	cases := []struct {
		name   string
		header []byte
		want   Kind
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F'}, KindJPEG},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0}, KindPNG},
		{"tiff le", []byte{'I', 'I', 0x2a, 0x00, 8, 0, 0, 0}, KindTIFF},
		{"tiff be", []byte{'M', 'M', 0x00, 0x2a, 0, 0, 0, 8}, KindTIFF},
		{"gif", []byte("GIF89a\x01\x00\x01\x00"), KindGIF},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBPVP8 "), KindWebP},
		{"riff wave", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), KindUnknown},
		{"bmp", append([]byte("BM"), make([]byte, 20)...), KindBMP},
		{"ico", []byte{0, 0, 1, 0, 1, 0, 16, 16}, KindICO},
		{"avif major", ftyp("avif", "mif1", "miaf"), KindAVIF},
		{"avif compatible", ftyp("mif1", "miaf", "avif"), KindAVIF},
		{"heic", ftyp("heic", "mif1"), KindHEIC},
		{"mp4", ftyp("isom", "mp41"), KindUnknown},
		{"jxl codestream", []byte{0xff, 0x0a, 0xfa, 0x1f}, KindJXL},
		{"jxl container", []byte{0, 0, 0, 0x0c, 'J', 'X', 'L', ' ', 0x0d, 0x0a, 0x87, 0x0a}, KindJXL},
		{"svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), KindSVG},
		{"text", []byte("hello world, not an image"), KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectHeader(tc.header)
			if err != nil {
				t.Fatalf("DetectHeader: %v", err)
			}
			if got != tc.want {
				t.Fatalf("DetectHeader = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestIsSVG(t *testing.T) {
	cases := []struct {
		doc  string
		want bool
	}{
		{`<svg/>`, true},
		{"\xef\xbb\xbf  <svg width=\"1\"></svg>", true},
		{`<?xml version="1.0"?><!-- made by hand --><svg>`, true},
		{"<?xml version=\"1.0\"?>\n<!DOCTYPE svg PUBLIC \"-//W3C//DTD SVG 1.1//EN\">\n<svg>", true},
		{`<SVG>`, true},
		{`<svgfoo>`, false},
		{`<?xml version="1.0"?><html></html>`, false},
		{`<!DOCTYPE html><svg>`, false},
		{`<!-- never closed`, false},
		{``, false},
	}

	for _, tc := range cases {
		if got := IsSVG([]byte(tc.doc)); got != tc.want {
			t.Errorf("IsSVG(%q) = %v, want %v", tc.doc, got, tc.want)
		}
	}
}

func TestSniffFile(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.jpg")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := SniffFile(empty); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}

	short := filepath.Join(dir, "short.png")
	if err := os.WriteFile(short, pngSig, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	kind, err := SniffFile(short)
	if err != nil {
		t.Fatalf("SniffFile: %v", err)
	}
	if kind != KindPNG {
		t.Fatalf("expected png, got %s", kind)
	}

	if _, err := SniffFile(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestKindMIME(t *testing.T) {
	if KindJPEG.MIME() != "image/jpeg" {
		t.Fatalf("unexpected mime %q", KindJPEG.MIME())
	}
	if KindSVG.MIME() != "image/svg+xml" || !KindSVG.IsVector() {
		t.Fatalf("unexpected svg mime %q", KindSVG.MIME())
	}
}

func ftyp(major string, compatible ...string) []byte {
	var buf bytes.Buffer
	size := 16 + 4*len(compatible)
	buf.Write([]byte{0, 0, 0, byte(size)})
	buf.WriteString("ftyp")
	buf.WriteString(major)
	buf.Write([]byte{0, 0, 0, 0})
	for _, b := range compatible {
		buf.WriteString(b)
	}
	return buf.Bytes()
}
