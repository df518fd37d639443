package infrastructure

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/yourusername/course-extract-go/internal/domain"
)

const (
	authTokenSelector    = `input[name="authenticity_token"]`
	sectionLockSelector  = "span.section-lock"
	sectionItemSelector  = "li.section-item"
	lectureNameSelector  = ".lecture-name"
	lectureIDAttr        = "data-lecture-id"
	canonicalURLSelector = `meta[property="og:url"]`
	downloadSelector     = "a.download"
	downloadNameAttr     = "data-x-origin-download-name"
	sidebarSelector      = "div.lecture-sidebar .course-section"
)

var (
	lecturePathPattern = regexp.MustCompile(`lectures/.+`)
	extensionPattern   = regexp.MustCompile(`^\.[A-Za-z0-9]{1,5}$`)
)

// SidebarEntry is one lecture link of the lecture sidebar
type SidebarEntry struct {
	Name string
	Href string
}

func parseDocument(body []byte, what string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.ParsingError{What: what, Err: err}
	}
	return doc, nil
}

// ExtractAuthToken reads the hidden authenticity token of the sign-in form
func ExtractAuthToken(body []byte) (string, error) {
	doc, err := parseDocument(body, "sign-in page")
	if err != nil {
		return "", err
	}
	token, ok := doc.Find(authTokenSelector).First().Attr("value")
	if !ok || token == "" {
		return "", &domain.ParsingError{What: "authenticity token"}
	}
	return token, nil
}

// ExtractStructure builds the ordered section -> lecture index from a course
// page. Lecture rows without an id are skipped and reported as issues. A page
// without section markers yields an empty structure.
func ExtractStructure(body []byte) (*domain.CourseStructure, []error, error) {
	doc, err := parseDocument(body, "course page")
	if err != nil {
		return nil, nil, err
	}

	course := &domain.CourseStructure{}
	var issues []error

	doc.Find(sectionLockSelector).Each(func(_ int, lock *goquery.Selection) {
		section := course.AddSection(followingText(lock))

		lock.Parent().Parent().Find(sectionItemSelector).Each(func(i int, item *goquery.Selection) {
			id, ok := item.Attr(lectureIDAttr)
			id = strings.TrimSpace(id)
			if !ok || id == "" {
				issues = append(issues, &domain.ParsingError{
					What: fmt.Sprintf("lecture id of item %d in section %q", i+1, domain.SanitizeTitle(section.Title)),
				})
				return
			}
			section.AddLecture(id, item.Find(lectureNameSelector).First().Text())
		})

		// the section keeps its index so later sections are numbered as on the page
		if len(section.Lectures) == 0 {
			issues = append(issues, &domain.ParsingError{
				What: fmt.Sprintf("lectures of section %d %q", section.Index, domain.SanitizeTitle(section.Title)),
			})
		}
	})

	return course, issues, nil
}

// followingText returns the first non-blank text after the selection, which
// is where the section title sits next to its lock icon.
func followingText(s *goquery.Selection) string {
	if len(s.Nodes) == 0 {
		return ""
	}
	for n := s.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
		switch n.Type {
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				return n.Data
			}
		case html.ElementNode:
			return goquery.NewDocumentFromNode(n).Text()
		}
	}
	return ""
}

// ExtractLecturePagePrefix derives the URL prefix shared by all lecture
// pages from the canonical URL of a course page,
// e.g. https://site/courses/1/lectures/42 -> https://site/courses/1/lectures
func ExtractLecturePagePrefix(body []byte) (string, error) {
	doc, err := parseDocument(body, "course page")
	if err != nil {
		return "", err
	}
	canonical, ok := doc.Find(canonicalURLSelector).First().Attr("content")
	canonical = strings.TrimSpace(canonical)
	if !ok || canonical == "" {
		return "", &domain.ParsingError{What: "og:url meta"}
	}
	return LecturePagePrefix(canonical), nil
}

// LecturePagePrefix rewrites a canonical course URL to the lectures prefix
func LecturePagePrefix(canonical string) string {
	if lecturePathPattern.MatchString(canonical) {
		return lecturePathPattern.ReplaceAllString(canonical, "lectures")
	}
	return strings.TrimSuffix(canonical, "/") + "/lectures"
}

// ExtractDownloadLink finds the download anchor of a lecture page and
// returns its file extension and href. Both are empty when the page has no
// anchor.
func ExtractDownloadLink(body []byte) (ext, href string, err error) {
	doc, err := parseDocument(body, "lecture page")
	if err != nil {
		return "", "", err
	}
	anchor := doc.Find(downloadSelector).First()
	if anchor.Length() == 0 {
		return "", "", nil
	}

	href, ok := anchor.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return "", "", &domain.ParsingError{What: "download href"}
	}
	name, _ := anchor.Attr(downloadNameAttr)
	ext, err = ExtensionFromName(name)
	if err != nil {
		return "", "", err
	}
	return ext, href, nil
}

// ExtensionFromName returns the extension of a download name, dot included.
// Only short alphanumeric extensions are accepted.
func ExtensionFromName(name string) (string, error) {
	ext := path.Ext(strings.TrimSpace(name))
	if !extensionPattern.MatchString(ext) {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedExtension, name)
	}
	return ext, nil
}

// ExtractSidebarIndex lists the lecture links of the lecture sidebar as
// ordered "NN_Section_NN_Lecture" names with their page hrefs.
func ExtractSidebarIndex(body []byte) ([]SidebarEntry, error) {
	doc, err := parseDocument(body, "lecture sidebar")
	if err != nil {
		return nil, err
	}

	var entries []SidebarEntry
	doc.Find(sidebarSelector).Each(func(i int, section *goquery.Selection) {
		prefix := domain.SectionPrefix(i+1, section.Find(".section-title").First().Text())
		section.Find(".item").Each(func(j int, item *goquery.Selection) {
			href, _ := item.Attr("href")
			entries = append(entries, SidebarEntry{
				Name: fmt.Sprintf("%s_%02d_%s", prefix, j+1, domain.SanitizeTitle(item.Text())),
				Href: href,
			})
		})
	})
	return entries, nil
}
