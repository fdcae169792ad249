package fetcher

import (
	"time"

	exif "github.com/dsoprea/go-exif/v3"
)

// exifDateLayout is the timestamp format EXIF uses for DateTime tags.
const exifDateLayout = "2006:01:02 15:04:05"

// exifTimestampTags are the tags consulted for a modification time, in
// preference order. DateTimeOriginal is the capture time; DateTime is
// the file's last modification, which is closest to what <lastmod>
// means, so it is tried first.
var exifTimestampTags = []string{"DateTime", "DateTimeOriginal", "DateTimeDigitized"}

// exifTimestamp extracts a modification timestamp from EXIF metadata in
// an image body. Returns false when the image carries no EXIF block or
// no parseable DateTime tag; extraction failures are never errors, the
// caller just omits the timestamp.
func exifTimestamp(imageData []byte) (time.Time, bool) {
	rawExif, err := exif.SearchAndExtractExif(imageData)
	if err != nil {
		return time.Time{}, false
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return time.Time{}, false
	}

	values := make(map[string]string, len(entries))
	for _, entry := range entries {
		values[entry.TagName] = entry.Formatted
	}

	for _, tag := range exifTimestampTags {
		value, ok := values[tag]
		if !ok || value == "" {
			continue
		}
		if t, err := time.Parse(exifDateLayout, value); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
