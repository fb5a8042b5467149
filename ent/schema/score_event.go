package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// ScoreEvent records a difficulty rating submission, including failed
// ones.
type ScoreEvent struct {
	ent.Schema
}

func (ScoreEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (ScoreEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id"),
		field.String("card_id"),
		field.Int("score").
			Range(1, 3),
		field.Bool("success"),
		field.String("error_message").
			Default(""),
	}
}
