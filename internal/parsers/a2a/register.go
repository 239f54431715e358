package a2a

import "github.com/activemonkeys/geneax/internal/core/ports/driven"

// Parser type identifiers. They are aliases of one parser: every type
// reads direct, keyed and inline person shapes, and keeps its identifier
// only so stored sources resolve under the name they were registered with.
const (
	TypeA2A           = "a2a"
	TypeA2ABase       = "a2a_base"
	TypeA2ARelationEP = "a2a_relationep"
)

// Registrar accepts parser factories.
type Registrar interface {
	Register(typ string, factory driven.ParserFactory)
}

// Factory returns a ParserFactory producing parsers of the given type.
func Factory(typ string) driven.ParserFactory {
	return func(config map[string]any) (driven.RecordParser, error) {
		p, err := New(typ, config)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// RegisterAll registers the A2A parser under each of its type aliases.
func RegisterAll(r Registrar) {
	for _, typ := range []string{TypeA2A, TypeA2ABase, TypeA2ARelationEP} {
		r.Register(typ, Factory(typ))
	}
}
