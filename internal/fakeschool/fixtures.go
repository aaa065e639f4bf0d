package fakeschool

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/bigredeye/schoolbook/internal/models"
)

// Fixtures seed the fake backend. Keys are lowercased field names:
//
//	students:
//	  - id: 1
//	    firstname: John
//	    secondname: Doe
//	columns:
//	  - id: 1
//	    title: Math
//	rates:
//	  - id: 1
//	    schoolboyid: 1
//	    columnid: 1
//	    title: Н
type Fixtures struct {
	Students []models.Student     `yaml:"students"`
	Columns  []models.Column      `yaml:"columns"`
	Rates    []models.GradeRecord `yaml:"rates"`
}

func ParseFixtures(body []byte) (*Fixtures, error) {
	fixtures := &Fixtures{}
	if err := yaml.Unmarshal(body, fixtures); err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal fixtures")
	}
	return fixtures, nil
}

func LoadFixtures(path string) (*Fixtures, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read fixtures")
	}
	return ParseFixtures(body)
}
