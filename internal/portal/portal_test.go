package portal_test

import (
	"strings"
	"testing"

	"github.com/p-n-ai/tkb/internal/portal"
	"github.com/p-n-ai/tkb/internal/timetable"
)

const page = `<html><body>
<table id="TKB">
  <tr><th>TT</th><th>Mã</th><th>Tên</th><th>TC</th><th></th><th></th><th>GV</th><th>TKB</th><th>Tuần</th></tr>
  <tr>
    <td>1</td><td>1021060.2420.21.11</td><td>  Giải tích 2 </td><td>3</td><td></td><td></td>
    <td>Nguyễn Văn A</td>
    <td>Thứ 2,1-3,F208<br>Thứ 5,
        7-8,F209</td>
    <td>1-8,10-15</td>
  </tr>
  <tr>
    <td>2</td><td>1023400.2420.21.12</td><td>Vật lý</td><td>2</td><td></td><td></td>
    <td>Trần B</td><td>CN,1-2,Sân</td><td>3</td>
  </tr>
  <tr><td colspan="8">Tổng số tín chỉ</td><td>5</td></tr>
</table>
<table><tr><td>layout</td></tr></table>
</body></html>`

func TestExtract(t *testing.T) {
	res, err := portal.Extract(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Rows != 4 {
		t.Errorf("Rows = %d, want 4", res.Rows)
	}
	if res.Lessons != 2 {
		t.Fatalf("Lessons = %d, want 2", res.Lessons)
	}

	lines := strings.Split(res.Text, "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if fields := strings.Split(lines[0], "\t"); fields[2] != "Giải tích 2" || fields[7] != "Thứ 2,1-3,F208; Thứ 5, 7-8,F209" {
		t.Errorf("first line fields = %q", fields)
	}

	lessons := timetable.BuildLessonSet(res.Text)
	if len(lessons) != 2 {
		t.Fatalf("BuildLessonSet() = %d lessons, want 2", len(lessons))
	}
	if got := len(lessons[0].Slots); got != 2 {
		t.Errorf("first lesson has %d slots, want 2", got)
	}
	if lessons[0].Slots[1].Label != "F209" {
		t.Errorf("second slot label = %q, want F209", lessons[0].Slots[1].Label)
	}
	if lessons[1].Slots[0].Day != timetable.Sunday {
		t.Errorf("CN parsed as day %d, want Sunday", lessons[1].Slots[0].Day)
	}
}

func TestExtractSelector(t *testing.T) {
	res, err := portal.ExtractSelector(strings.NewReader(page), "#TKB tr:nth-child(3)")
	if err != nil {
		t.Fatalf("ExtractSelector() error = %v", err)
	}
	if res.Lessons != 1 || !strings.Contains(res.Text, "Vật lý") {
		t.Errorf("ExtractSelector() = %+v, want only the second lesson", res)
	}
}

func TestExtract_NoTables(t *testing.T) {
	res, err := portal.Extract(strings.NewReader("<p>nothing here</p>"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Text != "" || res.Lessons != 0 {
		t.Errorf("Extract() = %+v, want empty", res)
	}
}
