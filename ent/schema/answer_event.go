package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AnswerEvent records one checked response to a card.
type AnswerEvent struct {
	ent.Schema
}

func (AnswerEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (AnswerEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			NotEmpty().
			Comment("Links to SessionEvent"),
		field.String("deck_id"),
		field.String("card_id"),
		field.String("card_type").
			Comment("basic, definition, multiple_choice, true_false or fill_in_blank"),
		field.String("question"),
		field.String("response").
			Default("").
			Comment("Empty when the answer was revealed"),
		field.String("correct_answer"),
		field.Bool("correct"),
		field.Int("attempt").
			Comment("1 for the first check of the card in its pass"),
	}
}

func (AnswerEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id"),
		index.Fields("deck_id"),
	}
}
