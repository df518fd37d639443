package domain

import (
	"fmt"
	"strings"
)

// titleReplacer removes characters that are unsafe or noisy in file names
var titleReplacer = strings.NewReplacer(
	"-", "", "?", "", "!", "", "*", "", "<", "", ">", "",
	"|", "", `"`, "", ":", "", "/", "", "'", "", "\n", "",
)

// SanitizeTitle turns a raw page title into a path-safe file name fragment.
// Everything from the first "(" on is dropped (lecture durations such as
// "(00:20)"), then the characters - ? ! * < > | " : / ' and newlines are
// removed and surrounding whitespace is trimmed.
func SanitizeTitle(raw string) string {
	if idx := strings.Index(raw, "("); idx >= 0 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(titleReplacer.Replace(raw))
}

// SectionPrefix renders the "NN_Title" prefix shared by every lecture of a section
func SectionPrefix(sectionIndex int, sectionTitle string) string {
	return fmt.Sprintf("%02d_%s", sectionIndex, SanitizeTitle(sectionTitle))
}

// LectureFileName composes the on-disk base name of a lecture (without extension):
// {section:02d}_{section title}_{lecture:02d}_{lecture title}
func LectureFileName(sectionIndex int, sectionTitle string, lectureIndex int, lectureTitle string) string {
	return fmt.Sprintf("%s_%02d_%s", SectionPrefix(sectionIndex, sectionTitle), lectureIndex, SanitizeTitle(lectureTitle))
}
