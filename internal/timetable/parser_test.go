package timetable_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/unicode/norm"

	"github.com/p-n-ai/tkb/internal/timetable"
)

const algebraLine = "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,1-2,R101\t1-3"

func TestParseLine_Algebra(t *testing.T) {
	l, ok := timetable.ParseLine(algebraLine)
	if !ok {
		t.Fatal("ParseLine() rejected a valid row")
	}
	if l.Name != "Algebra" {
		t.Errorf("Name = %q, want Algebra", l.Name)
	}
	if l.Instructor != "Dr. A" {
		t.Errorf("Instructor = %q, want Dr. A", l.Instructor)
	}
	wantSlots := []timetable.TimeSlot{{Day: 2, Start: 1, End: 2, Label: "R101"}}
	if !reflect.DeepEqual(l.Slots, wantSlots) {
		t.Errorf("Slots = %+v, want %+v", l.Slots, wantSlots)
	}
	wantWeeks := []timetable.WeekRange{{From: 1, To: 3}}
	if !reflect.DeepEqual(l.Weeks, wantWeeks) {
		t.Errorf("Weeks = %+v, want %+v", l.Weeks, wantWeeks)
	}
	if l.ID == "" {
		t.Error("ID is empty")
	}
}

func TestParseLine_Rejects(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"whitespace", "  \t \t "},
		{"header", "TT\tMã lớp học phần\tTên lớp học phần\tSố TC\tLoại\tGhi chú\tGiảng viên\tThời khóa biểu\tTuần học"},
		{"eight-fields", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,1-2,R101"},
		{"no-name", "1\tX.1\t \t3\t\t\tDr. A\tThứ 2,1-2,R101\t1-3"},
		{"bad-day", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 9,1-2,R101\t1-3"},
		{"day-one", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 1,1-2,R101\t1-3"},
		{"no-day-word", "1\tX.1\tAlgebra\t3\t\t\tDr. A\t2,1-2,R101\t1-3"},
		{"lesson-not-number", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,a-2,R101\t1-3"},
		{"lesson-zero", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,0-2,R101\t1-3"},
		{"lesson-fifteen", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,1-15,R101\t1-3"},
		{"reversed-span", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,4-2,R101\t1-3"},
		{"missing-label-comma", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,1-2\t1-3"},
		{"one-bad-descriptor", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,1-2,R101;Thứ x,1-2,R1\t1-3"},
		{"empty-schedule", "1\tX.1\tAlgebra\t3\t\t\tDr. A\t\t1-3"},
		{"empty-weeks", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,1-2,R101\t"},
		{"week-zero", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,1-2,R101\t0-3"},
		{"week-reversed", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,1-2,R101\t5-3"},
		{"week-negative", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,1-2,R101\t-1-3"},
		{"week-garbage", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,1-2,R101\t1-3x"},
		{"week-trailing-comma", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,1-2,R101\t1-3,"},
		{"week-overflow", "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,1-2,R101\t1-99999999999999999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if l, ok := timetable.ParseLine(tt.line); ok {
				t.Errorf("ParseLine(%q) = %+v, want rejection", tt.line, l)
			}
		})
	}
}

func TestParseLine_FewerThanNineFieldsAlwaysRejected(t *testing.T) {
	fields := strings.Split(algebraLine, "\t")
	for n := 0; n < len(fields); n++ {
		line := strings.Join(fields[:n], "\t")
		if _, ok := timetable.ParseLine(line); ok {
			t.Errorf("ParseLine() accepted a row with %d fields", n)
		}
	}
}

func TestParseLine_ExtraFieldsIgnored(t *testing.T) {
	l, ok := timetable.ParseLine(algebraLine + "\textra\tmore")
	if !ok {
		t.Fatal("ParseLine() rejected a row with trailing fields")
	}
	if l.Weeks[0] != (timetable.WeekRange{From: 1, To: 3}) {
		t.Errorf("Weeks = %+v", l.Weeks)
	}
}

func TestParseLine_SundaySpellings(t *testing.T) {
	for _, day := range []string{"Chủ nhật", "Chủ Nhật", "CN", "Thứ 8", "Thứ CN", "chủ nhật"} {
		t.Run(day, func(t *testing.T) {
			line := "1\tX.1\tAlgebra\t3\t\t\tDr. A\t" + day + ",3-4,B202\t1-3"
			l, ok := timetable.ParseLine(line)
			if !ok {
				t.Fatalf("ParseLine(%q) rejected", line)
			}
			if l.Slots[0].Day != timetable.Sunday {
				t.Errorf("Day = %d, want %d", l.Slots[0].Day, timetable.Sunday)
			}

			g := timetable.ComposeGrid([]timetable.Lesson{l}, timetable.DefaultPeriods(), timetable.Filters{})
			entries, _ := g.Cell(3, timetable.Sunday)
			if len(entries) != 1 {
				t.Errorf("Sunday cell has %d entries, want 1", len(entries))
			}
		})
	}
}

func TestParseLine_DecomposedUnicode(t *testing.T) {
	line := norm.NFD.String(algebraLine)
	if line == algebraLine {
		t.Fatal("test input did not decompose")
	}
	l, ok := timetable.ParseLine(line)
	if !ok {
		t.Fatal("ParseLine() rejected NFD input")
	}
	if l.Slots[0].Day != 2 {
		t.Errorf("Day = %d, want 2", l.Slots[0].Day)
	}
}

func TestParseLine_IDIsDeterministic(t *testing.T) {
	a, _ := timetable.ParseLine(algebraLine)
	b, _ := timetable.ParseLine(algebraLine)
	if a.ID != b.ID {
		t.Errorf("ID differs across parses: %q vs %q", a.ID, b.ID)
	}

	other, _ := timetable.ParseLine(strings.Replace(algebraLine, "1\tX.1", "2\tX.2", 1))
	if other.ID == a.ID {
		t.Error("different rows share an ID")
	}
}

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []timetable.TimeSlot
	}{
		{
			name: "single",
			expr: "Thứ 3,1-2,F202",
			want: []timetable.TimeSlot{{Day: 3, Start: 1, End: 2, Label: "F202"}},
		},
		{
			name: "multiple",
			expr: "Thứ 2,1-3,E101; Thứ 5,7-9,H.203",
			want: []timetable.TimeSlot{
				{Day: 2, Start: 1, End: 3, Label: "E101"},
				{Day: 5, Start: 7, End: 9, Label: "H.203"},
			},
		},
		{
			name: "label-with-commas",
			expr: "Thứ 4,6-8,Sân, khu A, cơ sở 2",
			want: []timetable.TimeSlot{{Day: 4, Start: 6, End: 8, Label: "Sân, khu A, cơ sở 2"}},
		},
		{
			name: "spaces-around-tokens",
			expr: " Thứ  6 , 10 - 12 , C105 ",
			want: []timetable.TimeSlot{{Day: 6, Start: 10, End: 12, Label: "C105"}},
		},
		{
			name: "empty-label",
			expr: "Thứ 7,1-1,",
			want: []timetable.TimeSlot{{Day: 7, Start: 1, End: 1, Label: ""}},
		},
		{
			name: "trailing-separator",
			expr: "Thứ 2,1-2,A;",
			want: []timetable.TimeSlot{{Day: 2, Start: 1, End: 2, Label: "A"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := timetable.ParseSchedule(tt.expr)
			if err != nil {
				t.Fatalf("ParseSchedule(%q) error = %v", tt.expr, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSchedule(%q) = %+v, want %+v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParseSchedule_ErrorOffset(t *testing.T) {
	expr := "Thứ 2,1-2,A;Thứ 2,x-2,B"
	_, err := timetable.ParseSchedule(expr)

	var synErr *timetable.SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("ParseSchedule() error = %v, want *SyntaxError", err)
	}
	if synErr.Offset != strings.Index(expr, "x") {
		t.Errorf("Offset = %d, want %d", synErr.Offset, strings.Index(expr, "x"))
	}
	if synErr.Expr != expr {
		t.Errorf("Expr = %q, want %q", synErr.Expr, expr)
	}
}

func TestParseWeeks(t *testing.T) {
	tests := []struct {
		expr    string
		want    []timetable.WeekRange
		wantErr bool
	}{
		{"1-3", []timetable.WeekRange{{From: 1, To: 3}}, false},
		{"7", []timetable.WeekRange{{From: 7, To: 7}}, false},
		{"1-8,10-15", []timetable.WeekRange{{From: 1, To: 8}, {From: 10, To: 15}}, false},
		{" 2 - 4 , 6 ", []timetable.WeekRange{{From: 2, To: 4}, {From: 6, To: 6}}, false},
		{"", nil, true},
		{"1-", nil, true},
		{"-3", nil, true},
		{"3-1", nil, true},
		{"0", nil, true},
		{"1-3;4-5", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := timetable.ParseWeeks(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeeks(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseWeeks(%q) = %+v, want %+v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	lessons := []timetable.Lesson{
		{
			Code:       "1023400.2310.22.11",
			Name:       "Giải tích 1",
			Instructor: "Nguyễn Văn A",
			Slots:      []timetable.TimeSlot{{Day: 3, Start: 1, End: 3, Label: "F105"}},
			Weeks:      []timetable.WeekRange{{From: 1, To: 15}},
		},
		{
			Name:  "Thể dục",
			Slots: []timetable.TimeSlot{{Day: 8, Start: 6, End: 7, Label: "Sân, khu B"}},
			Weeks: []timetable.WeekRange{{From: 4, To: 4}},
		},
		{
			Name: "Vật lý",
			Slots: []timetable.TimeSlot{
				{Day: 2, Start: 1, End: 2, Label: "A"},
				{Day: 6, Start: 13, End: 14, Label: "B"},
			},
			Weeks: []timetable.WeekRange{{From: 1, To: 8}, {From: 10, To: 12}},
		},
	}

	for i, want := range lessons {
		t.Run(want.Name, func(t *testing.T) {
			line := timetable.FormatLine(i+1, want)
			got, ok := timetable.ParseLine(line)
			if !ok {
				t.Fatalf("ParseLine(FormatLine()) rejected %q", line)
			}
			if got.Name != want.Name || got.Instructor != want.Instructor || got.Code != want.Code {
				t.Errorf("fields = %q/%q/%q, want %q/%q/%q", got.Name, got.Instructor, got.Code, want.Name, want.Instructor, want.Code)
			}
			if !reflect.DeepEqual(got.Slots, want.Slots) {
				t.Errorf("Slots = %+v, want %+v", got.Slots, want.Slots)
			}
			if !reflect.DeepEqual(got.Weeks, want.Weeks) {
				t.Errorf("Weeks = %+v, want %+v", got.Weeks, want.Weeks)
			}
		})
	}
}

func TestDayName(t *testing.T) {
	tests := map[int]string{
		timetable.Monday:   "Thứ 2",
		5:                  "Thứ 5",
		timetable.Saturday: "Thứ 7",
		timetable.Sunday:   "Chủ nhật",
	}
	for d, want := range tests {
		if got := timetable.DayName(d); got != want {
			t.Errorf("DayName(%d) = %q, want %q", d, got, want)
		}
	}
}
