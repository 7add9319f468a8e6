package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func primaryFlags(images []ProductImage) []bool {
	flags := make([]bool, len(images))
	for i, img := range images {
		flags[i] = img.IsPrimary
	}
	return flags
}

func TestEnsurePrimaryImage(t *testing.T) {
	t.Run("promotes first when none flagged", func(t *testing.T) {
		images := EnsurePrimaryImage([]ProductImage{{URL: "a"}, {URL: "b"}})
		assert.Equal(t, []bool{true, false}, primaryFlags(images))
	})

	t.Run("keeps the flagged image", func(t *testing.T) {
		images := EnsurePrimaryImage([]ProductImage{{URL: "a"}, {URL: "b", IsPrimary: true}})
		assert.Equal(t, []bool{false, true}, primaryFlags(images))
	})

	t.Run("first flagged wins", func(t *testing.T) {
		images := EnsurePrimaryImage([]ProductImage{{URL: "a"}, {URL: "b", IsPrimary: true}, {URL: "c", IsPrimary: true}})
		assert.Equal(t, []bool{false, true, false}, primaryFlags(images))
	})

	t.Run("reindexes order", func(t *testing.T) {
		images := EnsurePrimaryImage([]ProductImage{{URL: "a", Order: 7}, {URL: "b", Order: 3}})
		assert.Equal(t, 0, images[0].Order)
		assert.Equal(t, 1, images[1].Order)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, EnsurePrimaryImage(nil))
	})
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, int64(0), TotalPages(0, 12))
	assert.Equal(t, int64(1), TotalPages(12, 12))
	assert.Equal(t, int64(2), TotalPages(13, 12))
	assert.Equal(t, int64(1), TotalPages(5, 0))
}

func TestImageRefsSkipsInline(t *testing.T) {
	p := Product{Images: []ProductImage{
		{URL: "https://cdn/x.jpg", Ref: "catalog/x"},
		{URL: "data:image/png;base64,AAAA"},
	}}
	assert.Equal(t, []string{"catalog/x"}, p.ImageRefs())
}
