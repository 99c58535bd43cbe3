package storage

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hyperjump/hansardclean/internal/models"
)

// DirUsage counts regular files under dir and sums their sizes. A missing
// directory reports zero usage; other walk errors are returned.
func DirUsage(dir string) (models.Usage, error) {
	var u models.Usage
	if dir == "" {
		return u, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return u, nil
	}
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		u.Files++
		u.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return models.Usage{}, err
	}
	return u, nil
}
