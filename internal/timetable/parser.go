package timetable

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
)

// Positions of the columns in a portal row.
const (
	fieldOrdinal    = 0
	fieldCode       = 1
	fieldName       = 2
	fieldInstructor = 6
	fieldSchedule   = 7
	fieldWeeks      = 8

	minFields = 9
)

const (
	weekdayWord = "Thứ"
	sundayShort = "CN"
	sundayLong  = "Chủ nhật"
)

// SyntaxError describes why a schedule or week-range expression was rejected.
type SyntaxError struct {
	Expr   string
	Offset int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d in %q", e.Reason, e.Offset, e.Expr)
}

// ParseLine parses one tab-delimited portal row. It returns false for
// anything that is not a lesson row: blank lines, header rows and rows whose
// schedule or week columns do not parse.
func ParseLine(raw string) (Lesson, bool) {
	line := norm.NFC.String(strings.TrimRight(raw, "\r\n"))
	if strings.TrimSpace(line) == "" {
		return Lesson{}, false
	}

	fields := strings.Split(line, "\t")
	if len(fields) < minFields {
		return Lesson{}, false
	}

	name := strings.TrimSpace(fields[fieldName])
	if name == "" {
		return Lesson{}, false
	}

	slots, err := ParseSchedule(fields[fieldSchedule])
	if err != nil {
		return Lesson{}, false
	}
	weeks, err := ParseWeeks(fields[fieldWeeks])
	if err != nil {
		return Lesson{}, false
	}

	return Lesson{
		ID:         lessonID(fields),
		Code:       strings.TrimSpace(fields[fieldCode]),
		Name:       name,
		Instructor: strings.TrimSpace(fields[fieldInstructor]),
		Slots:      slots,
		Weeks:      weeks,
	}, true
}

// lessonID digests the columns that identify a row. Two rows that agree on
// all of them are the same lesson for rendering purposes.
func lessonID(fields []string) string {
	h, _ := blake2b.New256(nil)
	for _, i := range []int{fieldOrdinal, fieldCode, fieldName, fieldInstructor, fieldSchedule, fieldWeeks} {
		h.Write([]byte(strings.TrimSpace(fields[i])))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// ParseSchedule parses a schedule expression such as
// "Thứ 2,1-2,F202; Thứ 5,3-4,E303". Empty descriptors between separators
// are skipped, but at least one descriptor is required.
func ParseSchedule(expr string) ([]TimeSlot, error) {
	expr = norm.NFC.String(expr)

	var slots []TimeSlot
	offset := 0
	for _, desc := range strings.Split(expr, ";") {
		if strings.TrimSpace(desc) != "" {
			slot, err := parseSlot(desc)
			if err != nil {
				err.Expr = expr
				err.Offset += offset
				return nil, err
			}
			slots = append(slots, slot)
		}
		offset += len(desc) + 1
	}

	if len(slots) == 0 {
		return nil, &SyntaxError{Expr: expr, Reason: "empty schedule"}
	}
	return slots, nil
}

func parseSlot(desc string) (TimeSlot, *SyntaxError) {
	sc := &scanner{src: desc}
	sc.skipSpace()

	day, err := sc.day()
	if err != nil {
		return TimeSlot{}, err
	}

	if err := sc.expect(','); err != nil {
		return TimeSlot{}, err
	}
	start, err := sc.lessonNumber()
	if err != nil {
		return TimeSlot{}, err
	}
	if err := sc.expect('-'); err != nil {
		return TimeSlot{}, err
	}
	end, err := sc.lessonNumber()
	if err != nil {
		return TimeSlot{}, err
	}
	if start > end {
		return TimeSlot{}, sc.fail("lesson span ends before it starts")
	}
	if err := sc.expect(','); err != nil {
		return TimeSlot{}, err
	}

	return TimeSlot{
		Day:   day,
		Start: start,
		End:   end,
		Label: strings.TrimSpace(sc.rest()),
	}, nil
}

// ParseWeeks parses a week-range expression such as "1-8,10-15" or "3".
func ParseWeeks(expr string) ([]WeekRange, error) {
	var weeks []WeekRange
	offset := 0
	for _, desc := range strings.Split(expr, ",") {
		r, err := parseWeekRange(desc)
		if err != nil {
			err.Expr = expr
			err.Offset += offset
			return nil, err
		}
		weeks = append(weeks, r)
		offset += len(desc) + 1
	}
	return weeks, nil
}

func parseWeekRange(desc string) (WeekRange, *SyntaxError) {
	sc := &scanner{src: desc}
	sc.skipSpace()

	from, err := sc.number()
	if err != nil {
		return WeekRange{}, err
	}
	to := from
	sc.skipSpace()
	if sc.accept('-') {
		sc.skipSpace()
		if to, err = sc.number(); err != nil {
			return WeekRange{}, err
		}
	}
	sc.skipSpace()
	if !sc.done() {
		return WeekRange{}, sc.fail("unexpected text after week range")
	}

	if from < 1 {
		return WeekRange{}, sc.fail("week numbers start at 1")
	}
	if to < from {
		return WeekRange{}, sc.fail("week range ends before it starts")
	}
	return WeekRange{From: from, To: to}, nil
}

// scanner walks a single descriptor. Offsets in errors are byte offsets
// into the descriptor.
type scanner struct {
	src string
	pos int
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

func (s *scanner) rest() string { return s.src[s.pos:] }

func (s *scanner) fail(reason string) *SyntaxError {
	return &SyntaxError{Expr: s.src, Offset: s.pos, Reason: reason}
}

func (s *scanner) skipSpace() {
	for !s.done() {
		r, size := utf8.DecodeRuneInString(s.rest())
		if r != ' ' && r != '\t' && r != '\u00a0' {
			return
		}
		s.pos += size
	}
}

func (s *scanner) accept(c byte) bool {
	if !s.done() && s.src[s.pos] == c {
		s.pos++
		return true
	}
	return false
}

// expect consumes c, allowing spaces on either side.
func (s *scanner) expect(c byte) *SyntaxError {
	s.skipSpace()
	if !s.accept(c) {
		return s.fail(fmt.Sprintf("expected %q", c))
	}
	s.skipSpace()
	return nil
}

// acceptWord consumes word case-insensitively.
func (s *scanner) acceptWord(word string) bool {
	rest := s.rest()
	n := len(word)
	if len(rest) < n || !strings.EqualFold(rest[:n], word) {
		return false
	}
	s.pos += n
	return true
}

func (s *scanner) number() (int, *SyntaxError) {
	start := s.pos
	for !s.done() && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
		s.pos++
	}
	if s.pos == start {
		return 0, s.fail("expected a number")
	}
	n, err := strconv.Atoi(s.src[start:s.pos])
	if err != nil {
		s.pos = start
		return 0, s.fail("number out of range")
	}
	return n, nil
}

func (s *scanner) lessonNumber() (int, *SyntaxError) {
	start := s.pos
	n, err := s.number()
	if err != nil {
		return 0, err
	}
	if n < 1 || n > MaxLessonNumber {
		s.pos = start
		return 0, s.fail(fmt.Sprintf("lesson number must be between 1 and %d", MaxLessonNumber))
	}
	return n, nil
}

// day reads "Thứ D", "Chủ nhật" or "CN". "Thứ 8" is accepted as Sunday
// since that is how synthesized rows spell it.
func (s *scanner) day() (int, *SyntaxError) {
	if s.acceptSunday() {
		return Sunday, nil
	}
	if !s.acceptWord(weekdayWord) {
		return 0, s.fail("expected day of week")
	}
	s.skipSpace()
	if s.acceptSunday() {
		return Sunday, nil
	}

	start := s.pos
	d, err := s.number()
	if err != nil {
		return 0, err
	}
	if !IsValidDay(d) {
		s.pos = start
		return 0, s.fail("day must be between 2 and 8")
	}
	return d, nil
}

func (s *scanner) acceptSunday() bool {
	return s.acceptWord(sundayLong) || s.acceptWord(sundayShort)
}
