package sourcemeta

import (
	"errors"
	"io"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

func analyzeExif(rs io.ReadSeeker) (Metadata, error) {
	md := Metadata{Inspected: true}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return md, err
	}

	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(rs, nil, true)
	if err != nil {
		if isNoExif(err) {
			return md, nil
		}
		return md, err
	}

	md.HasExif = len(tags) > 0
	for _, tag := range tags {
		name := tag.TagName

		if strings.HasPrefix(name, "GPS") || strings.Contains(tag.IfdPath, "GPS") {
			md.HasGPS = true
		}
		switch name {
		case "Model", "CameraModelName", "Make":
			md.HasModel = true
		case "DateTimeOriginal", "DateTimeDigitized", "DateTime":
			md.HasTimestamp = true
		}
		if strings.Contains(strings.ToLower(name), "serial") {
			md.SerialCount++
		}
	}

	return md, nil
}

func isNoExif(err error) bool {
	if errors.Is(err, exif.ErrNoExif) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
