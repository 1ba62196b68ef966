package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]any
		want     string
	}{
		{
			name:     "plain text fast path",
			template: "sin marcadores",
			want:     "sin marcadores",
		},
		{
			name:     "simple substitution",
			template: "Eres asesor de {{.company}}.",
			data:     map[string]any{"company": "Casas MX"},
			want:     "Eres asesor de Casas MX.",
		},
		{
			name:     "default helper",
			template: `{{default "prospecto" .name}}`,
			data:     map[string]any{"name": ""},
			want:     "prospecto",
		},
		{
			name:     "join helper",
			template: `{{join ", " .fields}}`,
			data:     map[string]any{"fields": []string{"name", "budget"}},
			want:     "name, budget",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderTemplate(tt.template, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderTemplateParseError(t *testing.T) {
	_, err := RenderTemplate("{{.broken", nil)
	require.Error(t, err)
}

func TestNewIDUnique(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
	assert.Len(t, NewID(), 36)
}
