package services

import (
	"fmt"
	"strings"

	"trainerpro-backend/models"
)

// Grammar is a placeholder delimiter style. Two styles are live in operator
// templates: payment templates wrap variables in double braces, session
// templates in single braces. Keeping both named grammars avoids silently
// breaking templates already written in either style.
type Grammar struct {
	Open  string
	Close string
}

var (
	DoubleBrace = Grammar{Open: "{{", Close: "}}"}
	SingleBrace = Grammar{Open: "{", Close: "}"}
)

// GrammarFor maps a target kind to its template grammar.
func GrammarFor(kind models.TargetKind) Grammar {
	if kind == models.KindPayment {
		return DoubleBrace
	}
	return SingleBrace
}

// Render substitutes every supplied variable into the template. Placeholders
// with no matching variable are left as-is; the caller is responsible for
// supplying everything the target kind requires.
func (g Grammar) Render(template string, vars map[string]string) string {
	out := template
	for name, value := range vars {
		out = strings.ReplaceAll(out, g.Open+name+g.Close, value)
	}
	return out
}

// ActionLinks appends the confirm/decline footer to session reminders. It is
// separate from substitution so the renderer stays transport-agnostic: on
// WhatsApp these become interactive buttons downstream, on SMS and email
// they stay plain links. The URL shape predates this backend; links already
// in clients' hands must keep resolving.
type ActionLinks struct {
	BaseURL string
}

func (l ActionLinks) confirmURL(targetID string) string {
	return fmt.Sprintf("%s/confirmar-sesion?citaId=%s&accion=confirmar", l.BaseURL, targetID)
}

func (l ActionLinks) declineURL(targetID string) string {
	return fmt.Sprintf("%s/confirmar-sesion?citaId=%s&accion=cancelar", l.BaseURL, targetID)
}

// Append adds the two deterministic action links for a session target.
func (l ActionLinks) Append(message, targetID string) string {
	var b strings.Builder
	b.WriteString(message)
	b.WriteString("\n\n¿Confirmas tu asistencia?\n")
	b.WriteString("✅ Confirmo: ")
	b.WriteString(l.confirmURL(targetID))
	b.WriteString("\n❌ No puedo ir: ")
	b.WriteString(l.declineURL(targetID))
	return b.String()
}
