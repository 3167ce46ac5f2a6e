// Package imagesrc prepares entity images for the crop tool: it swaps
// unsupported source formats for a thumbnail, probes natural dimensions, and
// exports region crops.
package imagesrc

import (
	"regexp"
	"strings"
	"sync"

	"github.com/ppiankov/depicta/internal/model"
)

var croppablePattern = regexp.MustCompile(`(?i)\.(?:jpe?g|png|gif)$`)

// Croppable reports whether the crop tool can load the source directly.
func Croppable(src string) bool {
	return croppablePattern.MatchString(src)
}

// BestThumbnail returns the last candidate URL of a srcset, which is the
// highest-resolution thumbnail by convention. Empty when srcset is empty.
func BestThumbnail(srcset string) string {
	candidates := strings.Split(srcset, ",")
	for i := len(candidates) - 1; i >= 0; i-- {
		fields := strings.Fields(candidates[i])
		if len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

// Substitution is a scoped swap of an image's source. Restore must be called
// on every exit path of the session that acquired it; it is idempotent.
type Substitution struct {
	img      *model.Image
	original string
	swapped  bool
	once     sync.Once
}

// Substitute points img at its best thumbnail when the source format cannot be
// cropped (TIFF and the like). Images that are already croppable, or have no
// thumbnails, are left alone.
func Substitute(img *model.Image) *Substitution {
	s := &Substitution{img: img, original: img.Src}
	if Croppable(img.Src) {
		return s
	}
	if thumb := BestThumbnail(img.Srcset); thumb != "" {
		img.Src = thumb
		s.swapped = true
	}
	return s
}

// Swapped reports whether the source was replaced.
func (s *Substitution) Swapped() bool {
	return s.swapped
}

// Restore puts the original source back.
func (s *Substitution) Restore() {
	s.once.Do(func() {
		s.img.Src = s.original
	})
}
