package searching

import (
	"github.com/contre95/soulsearch/src/music"
)

// FilterByQuality walks extensionPriority in order and keeps the files of each
// extension that meet the bitrate and bit depth floors, stopping once
// downloadAttempts files are collected. A floor of 0 disables it, and files
// that do not report a value pass it.
func FilterByQuality(files []music.Candidate, extensionPriority []string, minBitRate, minBitDepth, downloadAttempts int) ([]music.Candidate, error) {
	if downloadAttempts <= 0 {
		return nil, ErrNoFilesMatch
	}
	var out []music.Candidate
	for _, ext := range extensionPriority {
		ext = normalizeExtension(ext)
		for _, f := range files {
			if fileExtension(f) != ext {
				continue
			}
			if minBitRate > 0 && f.BitRate > 0 && f.BitRate < minBitRate {
				continue
			}
			if minBitDepth > 0 && f.BitDepth > 0 && f.BitDepth < minBitDepth {
				continue
			}
			out = append(out, f)
			if len(out) == downloadAttempts {
				return out, nil
			}
		}
	}
	if len(out) == 0 {
		return nil, ErrNoFilesMatch
	}
	return out, nil
}
