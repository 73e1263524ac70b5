package feedshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/feedshot/feedshot/lib/utils"
	"github.com/ysmood/kit"
)

// partName such as "part_01.png", index is 1-based
func partName(prefix string, index, digits int, ext string) string {
	return fmt.Sprintf("%s%0*d%s", prefix, digits, index, ext)
}

// partDigits is wide enough for the last index and never narrower than least
func partDigits(total, least int) int {
	d := len(strconv.Itoa(total))
	if d < least {
		return least
	}
	return d
}

// storeScreenshot writes bin to Config.Screenshot or a temp file.
// The returned function removes the file unless Config.KeepScreenshot is set.
func (s *Slicer) storeScreenshot(bin []byte) (string, func(), error) {
	p := s.cfg.Screenshot
	if p == "" {
		p = filepath.Join(os.TempDir(), "feedshot", "screenshot-"+kit.RandString(8)+".png")
	}

	release := func() {
		if s.cfg.KeepScreenshot {
			return
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			s.logger.Println("[feedshot] failed to remove screenshot", p, err)
		}
	}

	if err := utils.OutputFile(p, bin); err != nil {
		release()
		return p, nil, err
	}

	return p, release, nil
}
