package models

import "fmt"

// Collection is the {Items: [...]} envelope of every list the school service returns.
type Collection[T any] struct {
	Items []T `json:"Items"`
}

type (
	Students     = Collection[Student]
	Columns      = Collection[Column]
	GradeRecords = Collection[GradeRecord]
)

// CacheShapeError reports a collection value that does not carry an Items sequence.
type CacheShapeError struct {
	Collection string
	Value      interface{}
}

func (e *CacheShapeError) Error() string {
	return fmt.Sprintf("invalid data format for %q: %#v", e.Collection, e.Value)
}

func (c *Collection[T]) Validate(name string) error {
	if c == nil || c.Items == nil {
		return &CacheShapeError{Collection: name, Value: c}
	}
	return nil
}

// As returns a cached value as a typed collection, or a CacheShapeError.
func As[T any](name string, value interface{}) (*Collection[T], error) {
	collection, ok := value.(*Collection[T])
	if !ok {
		return nil, &CacheShapeError{Collection: name, Value: value}
	}
	if err := collection.Validate(name); err != nil {
		return nil, err
	}
	return collection, nil
}

func AsGradeRecords(name string, value interface{}) (*GradeRecords, error) {
	return As[GradeRecord](name, value)
}
