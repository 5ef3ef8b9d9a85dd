// Package catalog holds the static question definitions of lead and offer forms.
package catalog

import (
	"sort"

	"formbuilder-service/internal/domain"
	"formbuilder-service/internal/engine"
)

// Registry is a read-only table of question definitions keyed by type.
type Registry struct {
	defs map[domain.QuestionType]domain.QuestionDefinition
}

// NewRegistry indexes defs; a later definition replaces an earlier one of the same type.
func NewRegistry(defs ...domain.QuestionDefinition) *Registry {
	r := &Registry{defs: make(map[domain.QuestionType]domain.QuestionDefinition, len(defs))}
	for _, def := range defs {
		r.defs[def.Type] = def
	}
	return r
}

// Default returns the registry of every built-in question type.
func Default() *Registry {
	defs := append(sharedDefinitions(), leadDefinitions()...)
	return NewRegistry(append(defs, offerDefinitions()...)...)
}

func (r *Registry) Get(typeID domain.QuestionType) (domain.QuestionDefinition, bool) {
	def, ok := r.defs[typeID]
	return def, ok
}

// ForForm lists the definitions available on a form kind, sorted by type.
func (r *Registry) ForForm(kind domain.FormKind) []domain.QuestionDefinition {
	out := make([]domain.QuestionDefinition, 0, len(r.defs))
	for _, def := range r.defs {
		if def.AvailableIn(kind) {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// DefaultPolicy is the pinned-position and essential-question table shared
// by lead and offer forms. submitterRole is essential but may be deleted
// without confirmation.
func DefaultPolicy() engine.Policy {
	return engine.Policy{
		Pins: engine.Pins{
			domain.TypeListingInterest: 1,
			domain.TypeSpecifyListing:  1,
			domain.TypeSubmitterRole:   2,
		},
		Essential: map[domain.QuestionType]bool{
			domain.TypeListingInterest: true,
			domain.TypeSpecifyListing:  true,
			domain.TypeSubmitterRole:   true,
			domain.TypeName:            true,
			domain.TypeEmail:           true,
			domain.TypePurchasePrice:   true,
		},
		DeleteExempt: map[domain.QuestionType]bool{
			domain.TypeSubmitterRole: true,
		},
	}
}
