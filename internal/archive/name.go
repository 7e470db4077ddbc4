package archive

import (
	"regexp"
	"strings"
	"time"
)

const maxLabelLen = 40

var (
	nonWordRuns     = regexp.MustCompile(`[^\w.-]+`)
	edgeUnderscores = regexp.MustCompile(`^_+|_+$`)
	stampReplacer   = strings.NewReplacer(":", "-", ".", "-")
)

// SanitizeLabel collapses runs of non-word characters to underscores, trims
// leading and trailing underscores, and caps the length.
func SanitizeLabel(s string) string {
	s = nonWordRuns.ReplaceAllString(strings.TrimSpace(s), "_")
	s = edgeUnderscores.ReplaceAllString(s, "")
	if len(s) > maxLabelLen {
		s = s[:maxLabelLen]
	}
	return s
}

// FileName derives the deterministic archive name: a sortable UTC timestamp,
// the sanitized label and the sanitized folder name, suffixed ".zip".
func FileName(now time.Time, label, folder string) string {
	stamp := stampReplacer.Replace(now.UTC().Format("2006-01-02T15:04:05.000Z07:00"))

	label = SanitizeLabel(label)
	if label == "" {
		label = "backup"
	}
	folder = SanitizeLabel(folder)
	if folder == "" {
		folder = "folder"
	}

	return stamp + "_" + label + "_" + folder + ".zip"
}
