package runtime_test

import (
	"testing"

	"github.com/aretw0/sopflow/internal/runtime"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestCheckCatalog(t *testing.T) {
	def := &domain.Definition{
		Edges: []domain.Edge{
			{
				ID:                "e1",
				Label:             "Pay",
				RequiredRoles:     []string{"finance", "intern"},
				RequiredFields:    []domain.FieldRequirement{{Name: "Amount", Type: "number"}, {Name: "Color", Type: "colour"}, {Name: "Free"}},
				RequiredDocuments: []domain.DocumentRequirement{{Name: "Invoice", Type: "pdf"}, {Name: "Photo", Type: "png"}},
			},
		},
	}

	t.Run("Empty Catalog Accepts Everything", func(t *testing.T) {
		warnings := runtime.CheckCatalog(def, domain.Catalog{})
		assert.Equal(t, []string{`Action "Pay" field "Color": unsupported type: colour`}, warnings)
	})

	t.Run("Restricted Catalog", func(t *testing.T) {
		engine := newTestEngine(runtime.WithCatalog(domain.Catalog{
			Roles:         []string{"finance"},
			DocumentTypes: []string{"pdf"},
			FieldTypes:    []string{"number", "text"},
		}))
		warnings := engine.CheckCatalog(def)
		assert.Equal(t, []string{
			`Action "Pay" requires unknown role "intern"`,
			`Action "Pay" field "Color" uses unknown type "colour"`,
			`Action "Pay" document "Photo" uses unknown type "png"`,
		}, warnings)
	})
}
