package processor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"avifgun/internal/scheduler"
)

func TestOutputDirName(t *testing.T) {
	cases := map[string]string{
		"Photo.JPEG":  "Photo.AVIF",
		"batch1":      "batch1_avif",
		"my_jpg_pics": "my_AVIF_pics",
		"JPG-jpeg":    "AVIF-AVIF",
		"holiday":     "holiday_avif",
	}
	for in, want := range cases {
		assert.Equal(t, want, OutputDirName(in), in)
	}
}

func TestOutputDirFor(t *testing.T) {
	in := filepath.Join("photos", "batch1")
	assert.Equal(t, filepath.Join("photos", "batch1_avif"), OutputDirFor(in+string(filepath.Separator)))
}

func TestOutputPathFor(t *testing.T) {
	out := filepath.Join("out")
	assert.Equal(t, filepath.Join("out", "a.avif"), OutputPathFor(out, "a.jpg"))
	assert.Equal(t, filepath.Join("out", "sub", "b.avif"), OutputPathFor(out, filepath.Join("sub", "b.png")))
	assert.Equal(t, filepath.Join("out", "noext.avif"), OutputPathFor(out, "noext"))
}

func TestIsWithin(t *testing.T) {
	root := filepath.Join("a", "b")
	assert.True(t, isWithin(root, root))
	assert.True(t, isWithin(filepath.Join(root, "c"), root))
	assert.False(t, isWithin(filepath.Join("a", "bc"), root))
	assert.False(t, isWithin("a", root))
}

func TestAssignOutputsResolvesSharedStems(t *testing.T) {
	out := filepath.Join("out")
	items := []scheduler.Item{
		{RelPath: "a.jpg"},
		{RelPath: "a.png"},
		{RelPath: "A.webp"},
		{RelPath: "b.jpg"},
		{RelPath: filepath.Join("sub", "a.jpg")},
	}
	AssignOutputs(items, out)

	assert.Equal(t, filepath.Join("out", "a.avif"), items[0].OutputPath)
	assert.Equal(t, filepath.Join("out", "a.png.avif"), items[1].OutputPath)
	assert.Equal(t, filepath.Join("out", "A.webp.avif"), items[2].OutputPath)
	assert.Equal(t, filepath.Join("out", "b.avif"), items[3].OutputPath)
	assert.Equal(t, filepath.Join("out", "sub", "a.avif"), items[4].OutputPath)
}

func TestAssignOutputsNumericFallback(t *testing.T) {
	items := []scheduler.Item{
		{RelPath: "a.jpg"},
		{RelPath: "a.jpg.jpg"},
		{RelPath: "a.JPG"},
	}
	AssignOutputs(items, "out")

	// a.jpg.jpg takes "a.jpg.avif", the one a.JPG would fall back to.
	assert.Equal(t, filepath.Join("out", "a.avif"), items[0].OutputPath)
	assert.Equal(t, filepath.Join("out", "a.jpg.avif"), items[1].OutputPath)
	assert.Equal(t, filepath.Join("out", "a_2.avif"), items[2].OutputPath)
}
