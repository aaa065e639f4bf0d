package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func strp(s string) *string {
	return &s
}

var placeholders = Placeholders{FirstName: "John", SecondName: "Doe"}

func TestDisplayName(t *testing.T) {
	student := Student{Id: 1, FirstName: strp("John"), SecondName: strp("Doe")}
	if name := student.DisplayName(placeholders); name != "Doe John" {
		t.Fatalf("Invalid display name: %q", name)
	}

	anonymous := Student{Id: 2}
	if name := anonymous.DisplayName(placeholders); name != "Doe John" {
		t.Fatalf("Invalid placeholder name: %q", name)
	}
}

func TestCardLinesWithPlaceholders(t *testing.T) {
	student := Student{Id: 3, LastName: strp("Samantha")}
	expected := []string{"John", "Samantha", "Doe"}
	if diff := cmp.Diff(expected, student.CardLines(placeholders)); diff != "" {
		t.Fatalf("Invalid card lines (-want +got):\n%s", diff)
	}
}

func TestRecordIDAcceptsNumbersAndStrings(t *testing.T) {
	payload := `{"Items":[{"Id":17,"SchoolboyId":1,"ColumnId":2,"Title":"Н"},{"Id":"1700000000000","SchoolboyId":1,"ColumnId":3},{"SchoolboyId":2,"ColumnId":2}]}`

	records := GradeRecords{}
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		t.Fatal("Failed to unmarshal records:", err)
	}

	expected := GradeRecords{Items: []GradeRecord{
		{Id: "17", SchoolboyId: 1, ColumnId: 2, Title: Mark},
		{Id: "1700000000000", SchoolboyId: 1, ColumnId: 3},
		{SchoolboyId: 2, ColumnId: 2},
	}}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Fatalf("Invalid records (-want +got):\n%s", diff)
	}

	out, err := json.Marshal(GradeRecord{Id: "17", SchoolboyId: 1, ColumnId: 2})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"Id":17,"SchoolboyId":1,"ColumnId":2}` {
		t.Fatalf("Invalid json: %s", out)
	}

	out, err = json.Marshal(GradeRecord{Id: "tmp-1", SchoolboyId: 1, ColumnId: 2})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"Id":"tmp-1","SchoolboyId":1,"ColumnId":2}` {
		t.Fatalf("Invalid json: %s", out)
	}
}

func TestTemporaryRecordID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	if id := TemporaryRecordID(now); id != "1700000000123" {
		t.Fatalf("Invalid temporary id: %s", id)
	}
}

func TestAsGradeRecords(t *testing.T) {
	if _, err := AsGradeRecords("lessons", nil); err == nil {
		t.Fatal("Expected shape error for absent value")
	}
	if _, err := AsGradeRecords("lessons", &GradeRecords{}); err == nil {
		t.Fatal("Expected shape error for missing items")
	}
	if _, err := AsGradeRecords("lessons", "garbage"); err == nil {
		t.Fatal("Expected shape error for foreign value")
	}

	records, err := AsGradeRecords("lessons", &GradeRecords{Items: []GradeRecord{}})
	if err != nil {
		t.Fatal("Unexpected error:", err)
	}
	if len(records.Items) != 0 {
		t.Fatal("Expected empty records")
	}
}
