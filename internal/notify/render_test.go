package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/notify"
)

func TestRenderTemplate(t *testing.T) {
	t.Run("SubstitutesDeclaredVariables", func(t *testing.T) {
		out := notify.RenderTemplate(
			"Caso {{case_number}}: {{subject}}",
			[]string{"case_number", "subject"},
			map[string]string{"case_number": "TCK-2026-00001", "subject": "Sin acceso"},
		)
		assert.Equal(t, "Caso TCK-2026-00001: Sin acceso", out)
	})

	t.Run("IgnoresUndeclaredVariables", func(t *testing.T) {
		out := notify.RenderTemplate(
			"Hola {{requester_name}}",
			[]string{"case_number"},
			map[string]string{"requester_name": "Ana"},
		)
		assert.Equal(t, "Hola {{requester_name}}", out, "undeclared placeholders stay verbatim")
	})

	t.Run("MissingValueLeavesPlaceholder", func(t *testing.T) {
		out := notify.RenderTemplate(
			"Estado: {{new_status}}",
			[]string{"new_status"},
			map[string]string{},
		)
		assert.Equal(t, "Estado: {{new_status}}", out)
	})
}

func TestRenderCommentBody(t *testing.T) {
	t.Run("ConvertsMarkdown", func(t *testing.T) {
		out := notify.RenderCommentBody("Hola **mundo**")
		assert.Contains(t, out, "<strong>mundo</strong>")
	})

	t.Run("StripsScriptTags", func(t *testing.T) {
		out := notify.RenderCommentBody(`Revisa esto <script>alert("x")</script>`)
		assert.NotContains(t, out, "<script")
		assert.Contains(t, out, "Revisa esto")
	})

	t.Run("KeepsLinksWithoutJavascriptScheme", func(t *testing.T) {
		out := notify.RenderCommentBody(`[aquí](javascript:alert(1))`)
		assert.NotContains(t, out, "javascript:")
	})
}

func TestCaseVars(t *testing.T) {
	vars := notify.CaseVars(&domain.SupportCase{
		CaseNumber:    "PQR-2026-00003",
		Subject:       "Reclamo",
		Description:   "<img src=x onerror=alert(1)>Detalle",
		RequesterName: "Ana",
		Status:        domain.StatusPqrsReceived,
		Priority:      domain.CasePriorityHigh,
	})

	assert.Equal(t, "PQR-2026-00003", vars["case_number"])
	assert.Equal(t, "Ana", vars["requester_name"])
	assert.Equal(t, string(domain.CasePriorityHigh), vars["priority"])
	assert.NotContains(t, vars["description"], "onerror", "description is sanitized")
	assert.Contains(t, vars["description"], "Detalle")
}
