package state_test

import (
	"testing"

	"github.com/p-n-ai/tkb/internal/state"
	"github.com/p-n-ai/tkb/internal/timetable"
)

func TestDefault(t *testing.T) {
	st := state.Default()
	if st.Week != 1 || st.Data != "" || st.ByWeek || st.OnlyToday || st.ShowOnlyAvailable || st.AutoFit || st.HidePanel {
		t.Errorf("Default() = %+v", st)
	}
}

func TestNormalize(t *testing.T) {
	st := state.State{Week: -4}
	st.Normalize()
	if st.Week != 1 {
		t.Errorf("Week = %d, want 1", st.Week)
	}
}

func TestFilters(t *testing.T) {
	st := state.State{ByWeek: true, Week: 6, OnlyToday: true, ShowOnlyAvailable: true}
	want := timetable.Filters{WeekMode: true, Week: 6, OnlyToday: true, OnlyOccupied: true, Today: timetable.Sunday}
	if got := st.Filters(timetable.Sunday); got != want {
		t.Errorf("Filters() = %+v, want %+v", got, want)
	}
}

func TestLessons(t *testing.T) {
	st := state.State{Data: "header\n1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,1-2,R101\t1-3"}
	lessons := st.Lessons()
	if len(lessons) != 1 || lessons[0].Name != "Algebra" {
		t.Errorf("Lessons() = %+v", lessons)
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"abc", true},
		{"user_01-x", true},
		{"", false},
		{"../etc", false},
		{"a b", false},
		{"a/b", false},
	}
	for _, tt := range tests {
		if got := state.ValidID(tt.id); got != tt.want {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
