package domain

// Lecture is a single addressable unit of course content
type Lecture struct {
	ID           string `json:"id"`
	Title        string `json:"title"` // raw title as found on the page
	SectionIndex int    `json:"section_index"`
	SectionTitle string `json:"section_title"`
	LectureIndex int    `json:"lecture_index"`
}

// FileName returns the ordered, sanitized base name used on disk
func (l Lecture) FileName() string {
	return LectureFileName(l.SectionIndex, l.SectionTitle, l.LectureIndex, l.Title)
}

// Section is a named, ordered group of lectures
type Section struct {
	Index    int       `json:"index"`
	Title    string    `json:"title"`
	Lectures []Lecture `json:"lectures"`
}

// CourseStructure is the ordered section -> lecture index of a course.
// Section and lecture indices are 1-based and contiguous, assigned in
// document order.
type CourseStructure struct {
	Sections []Section `json:"sections"`
}

// AddSection appends a section and assigns its index. The returned pointer
// is only valid until the next call to AddSection.
func (c *CourseStructure) AddSection(title string) *Section {
	c.Sections = append(c.Sections, Section{
		Index: len(c.Sections) + 1,
		Title: title,
	})
	return &c.Sections[len(c.Sections)-1]
}

// AddLecture appends a lecture to the section and assigns its index
func (s *Section) AddLecture(id, title string) Lecture {
	lecture := Lecture{
		ID:           id,
		Title:        title,
		SectionIndex: s.Index,
		SectionTitle: s.Title,
		LectureIndex: len(s.Lectures) + 1,
	}
	s.Lectures = append(s.Lectures, lecture)
	return lecture
}

// IsEmpty reports whether no lecture was found
func (c *CourseStructure) IsEmpty() bool {
	for _, s := range c.Sections {
		if len(s.Lectures) > 0 {
			return false
		}
	}
	return true
}

// Lectures flattens the structure into parse order, keyed by lecture id.
// When an id appears more than once the last occurrence wins but keeps the
// position of the first one; the overwritten ids are returned as duplicates.
func (c *CourseStructure) Lectures() (lectures []Lecture, duplicates []string) {
	positions := make(map[string]int)
	for _, section := range c.Sections {
		for _, lecture := range section.Lectures {
			if pos, ok := positions[lecture.ID]; ok {
				lectures[pos] = lecture
				duplicates = append(duplicates, lecture.ID)
				continue
			}
			positions[lecture.ID] = len(lectures)
			lectures = append(lectures, lecture)
		}
	}
	return lectures, duplicates
}
