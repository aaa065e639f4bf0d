package lf

import "go.uber.org/zap"

const (
	FieldModule     = "module"
	FieldCollection = "collection"
	FieldStudentID  = "student_id"
	FieldColumnID   = "column_id"
	FieldRecordID   = "record_id"
	FieldStatusCode = "status_code"
	FieldMutation   = "mutation"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
)

func Module(module string) zap.Field {
	return zap.String(FieldModule, module)
}

func Collection(key string) zap.Field {
	return zap.String(FieldCollection, key)
}

func StudentID(ID int) zap.Field {
	return zap.Int(FieldStudentID, ID)
}

func ColumnID(ID int) zap.Field {
	return zap.Int(FieldColumnID, ID)
}

func RecordID(ID string) zap.Field {
	return zap.String(FieldRecordID, ID)
}

func StatusCode(code int) zap.Field {
	return zap.Int(FieldStatusCode, code)
}

func Mutation(kind string) zap.Field {
	return zap.String(FieldMutation, kind)
}

func RequestID(ID string) zap.Field {
	return zap.String(FieldRequestID, ID)
}

func Method(method string) zap.Field {
	return zap.String(FieldMethod, method)
}

func Path(path string) zap.Field {
	return zap.String(FieldPath, path)
}
