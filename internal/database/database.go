package database

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"moul.io/zapgorm2"

	"github.com/bigredeye/schoolbook/internal/models"
)

type DataBase struct {
	*gorm.DB
}

type DuplicateKey struct {
	nested error
}

func (e *DuplicateKey) Error() string {
	return e.nested.Error()
}

func (e *DuplicateKey) Unwrap() error {
	return e.nested
}

func IsDuplicateKey(err error) bool {
	duplicateKey := &DuplicateKey{}
	return errors.As(err, &duplicateKey)
}

// https://github.com/go-gorm/gorm/issues/4037
func isUniqueViolation(err error) bool {
	perr := &pgconn.PgError{}
	if errors.As(err, &perr) {
		return perr.Code == "23505"
	}
	return false
}

func wrapError(err error) error {
	if err != nil && isUniqueViolation(err) {
		return &DuplicateKey{err}
	}
	return err
}

func OpenDataBase(logger *zap.Logger, dsn string) (*DataBase, error) {
	zapLogger := zapgorm2.New(logger.Named("gorm"))
	zapLogger.SetAsDefault()
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: zapLogger,
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&models.JournalEntry{})
	if err != nil {
		return nil, err
	}

	return &DataBase{db}, nil
}

// Record appends a settled mutation to the journal.
func (db *DataBase) Record(ctx context.Context, entry *models.JournalEntry) error {
	return wrapError(db.WithContext(ctx).Create(entry).Error)
}

// ListJournal returns the latest entries, newest first. limit <= 0 means all.
func (db *DataBase) ListJournal(ctx context.Context, limit int) (entries []models.JournalEntry, err error) {
	query := db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err = query.Find(&entries).Error
	return
}

func (db *DataBase) ListPairJournal(ctx context.Context, pair models.Pair) (entries []models.JournalEntry, err error) {
	err = db.WithContext(ctx).
		Where(&models.JournalEntry{SchoolboyID: pair.StudentID, ColumnID: pair.ColumnID}).
		Order("created_at desc").
		Find(&entries).Error
	return
}
