package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SessionEvent records a study session starting or ending. Totals are
// filled in on end only.
type SessionEvent struct {
	ent.Schema
}

func (SessionEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (SessionEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			NotEmpty().
			Comment("UUID grouping the events of one session"),
		field.String("deck_id"),
		field.String("deck_name").
			Default(""),
		field.String("action").
			NotEmpty().
			Comment("start or end"),
		field.Int("cards_total").Default(0),
		field.Int("cards_checked").Default(0),
		field.Int("first_try_correct").Default(0),
		field.Int("ratings_submitted").Default(0),
		field.Int("restarts").Default(0),
		field.Int("duration_secs").Default(0),
	}
}

func (SessionEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id"),
		index.Fields("action"),
	}
}
