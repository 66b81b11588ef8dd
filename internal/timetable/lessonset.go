package timetable

import "strings"

// BuildLessonSet parses every line of text and returns the lessons in input
// order. Lines that are not lesson rows are dropped.
func BuildLessonSet(text string) []Lesson {
	lessons := []Lesson{}
	for _, line := range SplitLines(text) {
		if line == "" {
			continue
		}
		if l, ok := ParseLine(line); ok {
			lessons = append(lessons, l)
		}
	}
	return lessons
}

// SplitLines normalizes CRLF and lone CR line endings and splits text into
// lines.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// AppendLine appends a raw row to text on a new line.
func AppendLine(text, line string) string {
	if text == "" {
		return line
	}
	return text + "\n" + line
}
