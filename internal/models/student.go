package models

import "strings"

// Student is a roster entry, called Schoolboy by the school service.
type Student struct {
	Id         int     `json:"Id"`
	FirstName  *string `json:"FirstName"`
	SecondName *string `json:"SecondName"`
	LastName   *string `json:"LastName"`
}

// Placeholders substitute missing name parts.
type Placeholders struct {
	FirstName  string
	SecondName string
}

func orDefault(value *string, fallback string) string {
	if value == nil || len(*value) == 0 {
		return fallback
	}
	return *value
}

func (s Student) First(p Placeholders) string {
	return orDefault(s.FirstName, p.FirstName)
}

func (s Student) Second(p Placeholders) string {
	return orDefault(s.SecondName, p.SecondName)
}

func (s Student) Last() string {
	return orDefault(s.LastName, "")
}

// DisplayName is the grid label: second name first.
func (s Student) DisplayName(p Placeholders) string {
	return strings.TrimSpace(s.Second(p) + " " + s.First(p))
}

// CardLines are the lines of the detail card, in display order.
func (s Student) CardLines(p Placeholders) []string {
	return []string{s.First(p), s.Last(), s.Second(p)}
}
