package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStructure() *CourseStructure {
	course := &CourseStructure{}
	first := course.AddSection("Getting Started (00:20)")
	first.AddLecture("4509750", "Welcome (1:03)")
	first.AddLecture("4509035", "What is Node")
	second := course.AddSection("Node Module System")
	second.AddLecture("4509169", "Introduction")
	return course
}

func TestCourseStructure_Indices(t *testing.T) {
	course := newTestStructure()

	require.Len(t, course.Sections, 2)
	assert.Equal(t, 1, course.Sections[0].Index)
	assert.Equal(t, 2, course.Sections[1].Index)
	assert.Equal(t, 1, course.Sections[0].Lectures[0].LectureIndex)
	assert.Equal(t, 2, course.Sections[0].Lectures[1].LectureIndex)
	assert.Equal(t, 1, course.Sections[1].Lectures[0].LectureIndex)
	assert.Equal(t, 2, course.Sections[1].Lectures[0].SectionIndex)
	assert.False(t, course.IsEmpty())
}

func TestCourseStructure_Lectures(t *testing.T) {
	lectures, duplicates := newTestStructure().Lectures()

	require.Len(t, lectures, 3)
	assert.Empty(t, duplicates)
	assert.Equal(t, "01_Getting Started_01_Welcome", lectures[0].FileName())
	assert.Equal(t, "01_Getting Started_02_What is Node", lectures[1].FileName())
	assert.Equal(t, "02_Node Module System_01_Introduction", lectures[2].FileName())
}

func TestCourseStructure_DuplicateIDLastWriteWins(t *testing.T) {
	course := newTestStructure()
	course.Sections[1].AddLecture("4509750", "Welcome Again")

	lectures, duplicates := course.Lectures()

	require.Len(t, lectures, 3)
	assert.Equal(t, []string{"4509750"}, duplicates)
	assert.Equal(t, "4509750", lectures[0].ID)
	assert.Equal(t, "02_Node Module System_02_Welcome Again", lectures[0].FileName())
}

func TestCourseStructure_Empty(t *testing.T) {
	course := &CourseStructure{}
	assert.True(t, course.IsEmpty())

	lectures, duplicates := course.Lectures()
	assert.Empty(t, lectures)
	assert.Empty(t, duplicates)

	course.AddSection("No lectures here")
	assert.True(t, course.IsEmpty())
}
