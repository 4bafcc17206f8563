package workflow

// Status is one of the canonical quote lifecycle values.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusSent              Status = "sent"
	StatusRevisionRequested Status = "revision_requested"
	StatusApproved          Status = "approved"
	StatusScheduled         Status = "scheduled"
	StatusInProgress        Status = "in_progress"
	StatusCompleted         Status = "completed"
	StatusPaid              Status = "paid"
	StatusCancelled         Status = "cancelled"
)

// Meta is the display metadata of a status.
type Meta struct {
	Label           string `json:"label"`
	Color           string `json:"color"`
	BackgroundColor string `json:"background_color"`
}

type definition struct {
	status  Status
	meta    Meta
	aliases []string
}

// definitions is ordered; All and ManualOptions follow this order.
var definitions = []definition{
	{
		status:  StatusDraft,
		meta:    Meta{Label: "Draft", Color: "#475569", BackgroundColor: "#F1F5F9"},
		aliases: []string{"borrador", "new", "nuevo", "nueva", "pending", "pendiente", "quote", "cotizacion", "draf"},
	},
	{
		status:  StatusSent,
		meta:    Meta{Label: "Sent", Color: "#1D4ED8", BackgroundColor: "#DBEAFE"},
		aliases: []string{"enviado", "enviada", "submitted", "sent_to_client", "awaiting_approval", "esperando_aprobacion", "sended"},
	},
	{
		status:  StatusRevisionRequested,
		meta:    Meta{Label: "Changes requested", Color: "#B45309", BackgroundColor: "#FEF3C7"},
		aliases: []string{"revision", "revisión", "needs_revision", "changes_requested", "cambios", "cambios_solicitados", "revision_solicitada", "rework"},
	},
	{
		status:  StatusApproved,
		meta:    Meta{Label: "Approved", Color: "#047857", BackgroundColor: "#D1FAE5"},
		aliases: []string{"aprobado", "aprobada", "accepted", "aceptado", "aceptada", "aproved", "aprovado"},
	},
	{
		status:  StatusScheduled,
		meta:    Meta{Label: "Scheduled", Color: "#6D28D9", BackgroundColor: "#EDE9FE"},
		aliases: []string{"programado", "programada", "agendado", "agendada", "booked", "shceduled"},
	},
	{
		status:  StatusInProgress,
		meta:    Meta{Label: "In progress", Color: "#C2410C", BackgroundColor: "#FFEDD5"},
		aliases: []string{"en_progreso", "en_proceso", "en_curso", "started", "iniciado", "working", "inprogress"},
	},
	{
		status:  StatusCompleted,
		meta:    Meta{Label: "Completed", Color: "#0F766E", BackgroundColor: "#CCFBF1"},
		aliases: []string{"completado", "completada", "terminado", "terminada", "finalizado", "finalizada", "done", "finished", "complete"},
	},
	{
		status:  StatusPaid,
		meta:    Meta{Label: "Paid", Color: "#15803D", BackgroundColor: "#DCFCE7"},
		aliases: []string{"pagado", "pagada", "cobrado", "cobrada", "settled", "payed"},
	},
	{
		status:  StatusCancelled,
		meta:    Meta{Label: "Cancelled", Color: "#B91C1C", BackgroundColor: "#FEE2E2"},
		aliases: []string{"canceled", "cancelado", "cancelada", "rejected", "rechazado", "rechazada", "declined", "anulado", "anulada"},
	},
}

var (
	byStatus = map[Status]definition{}
	byAlias  = map[string]Status{}
)

func init() {
	for _, d := range definitions {
		byStatus[d.status] = d
		byAlias[fold(string(d.status))] = d.status
		for _, a := range d.aliases {
			byAlias[fold(a)] = d.status
		}
	}
}

// All returns the canonical statuses in lifecycle order.
func All() []Status {
	out := make([]Status, 0, len(definitions))
	for _, d := range definitions {
		out = append(out, d.status)
	}
	return out
}

// Valid reports whether s is one of the canonical values, without alias resolution.
func (s Status) Valid() bool {
	_, ok := byStatus[s]
	return ok
}

func (s Status) String() string { return string(s) }

// Terminal reports whether no guided transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Normalize resolves any known alias (case, whitespace and accent insensitive)
// to its canonical status. Unknown input resolves to StatusDraft.
func Normalize(raw string) Status {
	if s, ok := byAlias[fold(raw)]; ok {
		return s
	}
	return StatusDraft
}

// Lookup is Normalize without the draft fallback.
func Lookup(raw string) (Status, bool) {
	s, ok := byAlias[fold(raw)]
	return s, ok
}

// MetaFor returns the display metadata of the normalized status.
func MetaFor(raw string) Meta {
	return byStatus[Normalize(raw)].meta
}

// Label returns the display label of a canonical status, or the raw value
// when s is not canonical.
func Label(s Status) string {
	if d, ok := byStatus[s]; ok {
		return d.meta.Label
	}
	return string(s)
}
