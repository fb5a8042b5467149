package store

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	migrate "entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/abhisek/flashdeck/ent/schema"
)

// Event tables. Every table carries the global sequence and a UTC
// timestamp.
const (
	tableSessionEvents = "session_events"
	tableAnswerEvents  = "answer_events"
	tableScoreEvents   = "score_events"
	tableLLMEvents     = "llm_request_events"
)

// entity is the part of an ent schema the table builder reads.
type entity interface {
	Mixin() []ent.Mixin
	Fields() []ent.Field
	Indexes() []ent.Index
}

var tables = []struct {
	name   string
	entity entity
}{
	{tableSessionEvents, schema.SessionEvent{}},
	{tableAnswerEvents, schema.AnswerEvent{}},
	{tableScoreEvents, schema.ScoreEvent{}},
	{tableLLMEvents, schema.LLMRequestEvent{}},
}

// fieldsOf returns the mixin fields followed by the entity's own.
func fieldsOf(e entity) []ent.Field {
	var fields []ent.Field
	for _, m := range e.Mixin() {
		fields = append(fields, m.Fields()...)
	}
	return append(fields, e.Fields()...)
}

func indexesOf(e entity) []ent.Index {
	var indexes []ent.Index
	for _, m := range e.Mixin() {
		indexes = append(indexes, m.Indexes()...)
	}
	return append(indexes, e.Indexes()...)
}

// column maps a field to SQLite. Timestamps are fixed-width UTC text so
// they sort as strings. Plain columns default to the zero value, which
// lets new columns be added to existing rows.
func column(d *field.Descriptor) (*migrate.Column, error) {
	if d.Err != nil {
		return nil, fmt.Errorf("field %s: %w", d.Name, d.Err)
	}
	c := &migrate.Column{Name: d.Name, Type: d.Info.Type, Unique: d.Unique}
	switch t := d.Info.Type; {
	case t == field.TypeString:
		c.Default = ""
	case t == field.TypeBool:
		c.Default = false
	case t == field.TypeTime:
		c.Type = field.TypeString
		c.SchemaType = map[string]string{dialect.SQLite: "text"}
	case t.Integer():
		c.Default = 0
	default:
		return nil, fmt.Errorf("field %s: unsupported type %s", d.Name, t)
	}
	if d.Unique {
		c.Default = nil
	}
	return c, nil
}

// table builds the migration table for one entity.
func table(name string, e entity) (*migrate.Table, error) {
	t := migrate.NewTable(name).
		AddPrimary(&migrate.Column{Name: "id", Type: field.TypeInt, Increment: true})
	for _, f := range fieldsOf(e) {
		c, err := column(f.Descriptor())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		t.AddColumn(c)
	}
	for _, i := range indexesOf(e) {
		d := i.Descriptor()
		t.AddIndex(name+"_"+strings.Join(d.Fields, "_"), d.Unique, d.Fields)
	}
	return t, nil
}

// migrateTables creates missing tables, columns and indexes. Nothing is
// dropped.
func migrateTables(ctx context.Context, drv *entsql.Driver) error {
	ts := make([]*migrate.Table, 0, len(tables))
	for _, t := range tables {
		mt, err := table(t.name, t.entity)
		if err != nil {
			return err
		}
		ts = append(ts, mt)
	}
	m, err := migrate.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	if err := m.Create(ctx, ts...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
