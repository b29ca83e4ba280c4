// Package gormaudit persists audit entries in a SQL database through gorm.
package gormaudit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/sopflow/pkg/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AuditEntryPo is the row stored for each audit entry.
// Structured columns (fields, documents, notifications) are kept as JSON.
type AuditEntryPo struct {
	Seq               int64     `gorm:"column:seq;primaryKey;autoIncrement"`
	ID                string    `gorm:"column:id;uniqueIndex;size:64"`
	DefinitionID      string    `gorm:"column:definition_id;index;size:128"`
	ObjectID          string    `gorm:"column:object_id;index;size:128"`
	ObjectName        string    `gorm:"column:object_name"`
	Timestamp         time.Time `gorm:"column:timestamp"`
	FromNodeID        string    `gorm:"column:from_node_id"`
	FromStatusLabel   string    `gorm:"column:from_status_label"`
	Action            string    `gorm:"column:action"`
	ToNodeID          string    `gorm:"column:to_node_id"`
	ToStatusLabel     string    `gorm:"column:to_status_label"`
	Actor             string    `gorm:"column:actor"`
	Role              string    `gorm:"column:role"`
	FieldValues       []byte    `gorm:"column:field_values"`
	DocumentsAttached []byte    `gorm:"column:documents_attached"`
	Notifications     []byte    `gorm:"column:notifications"`
}

func (AuditEntryPo) TableName() string {
	return "audit_entry"
}

// Log implements ports.AuditLog on top of gorm.
type Log struct {
	db *gorm.DB
}

// New wraps an open gorm connection and migrates the audit table.
func New(db *gorm.DB) (*Log, error) {
	if err := db.AutoMigrate(&AuditEntryPo{}); err != nil {
		return nil, fmt.Errorf("failed to migrate audit table: %w", err)
	}
	return &Log{db: db}, nil
}

// OpenSQLite opens (or creates) a SQLite database at path.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*Log, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	return New(db)
}

// Close releases the underlying connection pool.
func (l *Log) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append records entries in order inside one transaction.
func (l *Log) Append(ctx context.Context, definitionID string, entries ...domain.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]AuditEntryPo, 0, len(entries))
	for _, e := range entries {
		row, err := toPo(definitionID, e)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	if err := l.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to append audit entries: %w", err)
	}
	return nil
}

// ListByObject returns the entries of one object, oldest first.
func (l *Log) ListByObject(ctx context.Context, objectID string) ([]domain.AuditEntry, error) {
	return l.query(ctx, "object_id = ?", objectID)
}

// ListByDefinition returns the entries of every object of a definition, oldest first.
func (l *Log) ListByDefinition(ctx context.Context, definitionID string) ([]domain.AuditEntry, error) {
	return l.query(ctx, "definition_id = ?", definitionID)
}

func (l *Log) query(ctx context.Context, where string, arg any) ([]domain.AuditEntry, error) {
	var rows []AuditEntryPo
	if err := l.db.WithContext(ctx).Where(where, arg).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	out := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		e, err := fromPo(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func toPo(definitionID string, e domain.AuditEntry) (AuditEntryPo, error) {
	fields, err := json.Marshal(e.FieldValues)
	if err != nil {
		return AuditEntryPo{}, fmt.Errorf("failed to encode field values of %s: %w", e.ID, err)
	}
	docs, err := json.Marshal(e.DocumentsAttached)
	if err != nil {
		return AuditEntryPo{}, fmt.Errorf("failed to encode documents of %s: %w", e.ID, err)
	}
	notes, err := json.Marshal(e.Notifications)
	if err != nil {
		return AuditEntryPo{}, fmt.Errorf("failed to encode notifications of %s: %w", e.ID, err)
	}
	return AuditEntryPo{
		ID:                e.ID,
		DefinitionID:      definitionID,
		ObjectID:          e.ObjectID,
		ObjectName:        e.ObjectName,
		Timestamp:         e.Timestamp.UTC(),
		FromNodeID:        e.FromNodeID,
		FromStatusLabel:   e.FromStatusLabel,
		Action:            e.Action,
		ToNodeID:          e.ToNodeID,
		ToStatusLabel:     e.ToStatusLabel,
		Actor:             e.Actor,
		Role:              e.Role,
		FieldValues:       fields,
		DocumentsAttached: docs,
		Notifications:     notes,
	}, nil
}

func fromPo(row AuditEntryPo) (domain.AuditEntry, error) {
	e := domain.AuditEntry{
		ID:              row.ID,
		Timestamp:       row.Timestamp,
		ObjectID:        row.ObjectID,
		ObjectName:      row.ObjectName,
		FromNodeID:      row.FromNodeID,
		FromStatusLabel: row.FromStatusLabel,
		Action:          row.Action,
		ToNodeID:        row.ToNodeID,
		ToStatusLabel:   row.ToStatusLabel,
		Actor:           row.Actor,
		Role:            row.Role,
	}
	if err := unmarshalColumn(row.FieldValues, &e.FieldValues); err != nil {
		return e, fmt.Errorf("failed to decode field values of %s: %w", row.ID, err)
	}
	if err := unmarshalColumn(row.DocumentsAttached, &e.DocumentsAttached); err != nil {
		return e, fmt.Errorf("failed to decode documents of %s: %w", row.ID, err)
	}
	if err := unmarshalColumn(row.Notifications, &e.Notifications); err != nil {
		return e, fmt.Errorf("failed to decode notifications of %s: %w", row.ID, err)
	}
	return e, nil
}

func unmarshalColumn(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
