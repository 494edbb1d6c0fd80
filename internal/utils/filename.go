package utils

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxFilenameBytes bounds SecureFilename output so a prefixed name still fits
// filesystem limits and the profile_picture column.
const MaxFilenameBytes = 100

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

var windowsDeviceNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SecureFilename reduces name to a flat ASCII file name that is safe to join
// onto a directory. It may return "" when nothing usable is left.
func SecureFilename(name string) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range decomposed {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	ascii := b.String()

	ascii = strings.NewReplacer("/", " ", "\\", " ").Replace(ascii)
	ascii = strings.Join(strings.Fields(ascii), "_")
	ascii = unsafeFilenameChars.ReplaceAllString(ascii, "")
	ascii = strings.Trim(ascii, "._")

	if ascii != "" {
		base := strings.ToUpper(strings.SplitN(ascii, ".", 2)[0])
		if _, reserved := windowsDeviceNames[base]; reserved {
			ascii = "_" + ascii
		}
	}

	return truncateFilename(ascii, MaxFilenameBytes)
}

// truncateFilename shortens the stem of an ASCII name, keeping its extension.
func truncateFilename(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) >= limit/2 {
		return strings.TrimRight(name[:limit], "._")
	}
	stem := strings.TrimRight(name[:limit-len(ext)], "._")
	if stem == "" {
		return strings.TrimLeft(ext, ".")
	}
	return stem + ext
}
