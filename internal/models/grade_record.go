package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Mark is the only mark value the application ever writes.
const Mark = "Н"

// RecordID is either a server assigned number or a provisional string id.
type RecordID string

func (id RecordID) String() string {
	return string(id)
}

func (id RecordID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "Failed to unmarshal record id")
		}
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(err, "Failed to unmarshal record id")
	}
	*id = RecordID(n.String())
	return nil
}

// TemporaryRecordID is used for records that exist only in the local cache.
func TemporaryRecordID(now time.Time) RecordID {
	return RecordID(strconv.FormatInt(now.UnixMilli(), 10))
}

// GradeRecord is a mark of one student in one column, called Rate by the school service.
type GradeRecord struct {
	Id          RecordID `json:"Id,omitempty"`
	SchoolboyId int      `json:"SchoolboyId"`
	ColumnId    int      `json:"ColumnId"`
	Title       string   `json:"Title,omitempty"`
}

func (r GradeRecord) Pair() Pair {
	return Pair{StudentID: r.SchoolboyId, ColumnID: r.ColumnId}
}

// Pair addresses a cell of the grid.
type Pair struct {
	StudentID int
	ColumnID  int
}

func (p Pair) Matches(r GradeRecord) bool {
	return r.SchoolboyId == p.StudentID && r.ColumnId == p.ColumnID
}
