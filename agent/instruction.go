package agent

import (
	"fmt"
	"strings"

	"github.com/funnelmesh/funnelmesh/core"
	"github.com/funnelmesh/funnelmesh/internal/util"
)

// Stage-specific instruction templates appended to the tenant's static
// system prompt. These are the dynamic portion and are rendered per turn,
// never cached by the exact-key tier.
const (
	qualifierAskTemplate = "Estás calificando a un prospecto. " +
		"El único dato que te falta ahora es: {{.field_label}}. " +
		"Pide exactamente ese dato de forma natural y breve, sin pedir nada más. " +
		"No prometas crédito ni financiamiento bajo ninguna circunstancia."

	schedulerProposeTemplate = "El prospecto ya está calificado. Propón estos horarios " +
		"de cita y pide que confirme uno:\n{{.slots}}\n" +
		"Sé breve y no prometas condiciones de financiamiento."

	followUpTemplate = "El prospecto ya tuvo su cita ({{.stage}}). Dale seguimiento: " +
		"pregunta cómo le fue, resuelve dudas pendientes y, si la conversación lo " +
		"permite, pide amablemente una referencia de algún conocido interesado."
)

// fieldLabels maps profile keys to the human wording used in instructions.
var fieldLabels = map[string]string{
	core.ProfileName:         "su nombre",
	core.ProfileContact:      "un teléfono o correo de contacto",
	core.ProfileLocation:     "la zona donde busca propiedad",
	core.ProfileBudget:       "su presupuesto aproximado",
	core.ProfileCreditStatus: "si cuenta con historial crediticio sano",
}

func qualifierInstruction(field string) (string, error) {
	label, ok := fieldLabels[field]
	if !ok {
		label = strings.ReplaceAll(field, "_", " ")
	}
	return util.RenderTemplate(qualifierAskTemplate, map[string]any{"field_label": label})
}

func schedulerInstruction(slots []core.Slot) (string, error) {
	lines := make([]string, len(slots))
	for i, s := range slots {
		lines[i] = fmt.Sprintf("- %s (%s)", s.Start.Format("Mon 2 Jan 15:04"), s.Location)
	}
	return util.RenderTemplate(schedulerProposeTemplate, map[string]any{
		"slots": strings.Join(lines, "\n"),
	})
}

func followUpInstruction(stage core.Stage) (string, error) {
	return util.RenderTemplate(followUpTemplate, map[string]any{"stage": string(stage)})
}
