// This file contains the methods that panics when error return value is not nil.
// Their function names are all prefixed with Must.

package feedshot

import (
	"image"

	"github.com/feedshot/feedshot/lib/utils"
)

// MustSliceDir is similar to SliceDir
func (s *Slicer) MustSliceDir(dir string) *Result {
	res, err := s.SliceDir(dir)
	utils.E(err)
	return res
}

// MustSliceURL is similar to SliceURL
func (s *Slicer) MustSliceURL(u string) *Result {
	res, err := s.SliceURL(u)
	utils.E(err)
	return res
}

// MustSliceFile is similar to SliceFile
func (s *Slicer) MustSliceFile(path string) *Result {
	res, err := s.SliceFile(path)
	utils.E(err)
	return res
}

// MustSliceImage is similar to SliceImage
func (s *Slicer) MustSliceImage(img image.Image) *Result {
	res, err := s.SliceImage(img)
	utils.E(err)
	return res
}
