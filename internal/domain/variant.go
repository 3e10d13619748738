package domain

import "fmt"

// Variant discriminates the three support-case types handled by the engine.
type Variant string

const (
	VariantTicket Variant = "ticket"
	VariantPqrs   Variant = "pqrs"
	VariantCompra Variant = "compra"
)

// UpdateType enumerates update events that trigger email notifications.
type UpdateType string

const (
	UpdateTypeStatusChange UpdateType = "status_change"
	UpdateTypeComment      UpdateType = "comment"
	UpdateTypeResponse     UpdateType = "response"
)

// StatusInfo carries a status value plus its display metadata.
type StatusInfo struct {
	Value CaseStatus
	Label string
	Icon  string
	Color string
}

// NotificationTemplates maps events to email-template keys. Chat has a key
// only for creation; update events are email-only.
type NotificationTemplates struct {
	CreationEmail string
	CreationChat  string
	UpdateEmail   map[UpdateType]string
}

// VariantProfile is the capability record for one case variant: table names,
// foreign key, numbering prefix, status vocabulary and notification routing.
// All components consult this record instead of switching on the variant.
type VariantProfile struct {
	Variant          Variant
	Table            string
	CommentsTable    string
	HistoryTable     string
	AttachmentsTable string
	ForeignKey       string
	NumberPrefix     string
	Statuses         []StatusInfo
	ResolvedStatuses []CaseStatus
	ClosedStatuses   []CaseStatus
	ConvertedStatus  CaseStatus
	AssignableRoles  []StaffRole
	Templates        NotificationTemplates
}

var profiles = map[Variant]*VariantProfile{
	VariantTicket: {
		Variant:          VariantTicket,
		Table:            "tickets",
		CommentsTable:    "ticket_comments",
		HistoryTable:     "ticket_history",
		AttachmentsTable: "ticket_attachments",
		ForeignKey:       "ticket_id",
		NumberPrefix:     "TCK",
		Statuses: []StatusInfo{
			{Value: StatusTicketOpen, Label: "Abierto", Icon: "inbox", Color: "blue"},
			{Value: StatusTicketInProgress, Label: "En progreso", Icon: "clock", Color: "orange"},
			{Value: StatusTicketWaiting, Label: "En espera", Icon: "pause", Color: "gray"},
			{Value: StatusTicketResolved, Label: "Resuelto", Icon: "check", Color: "green"},
			{Value: StatusTicketClosed, Label: "Cerrado", Icon: "lock", Color: "slate"},
			{Value: StatusTicketConverted, Label: "Convertido", Icon: "swap", Color: "purple"},
		},
		ResolvedStatuses: []CaseStatus{StatusTicketResolved, StatusTicketClosed, StatusTicketConverted},
		ClosedStatuses:   []CaseStatus{StatusTicketClosed},
		ConvertedStatus:  StatusTicketConverted,
		AssignableRoles:  []StaffRole{StaffRoleAgent, StaffRoleTeamLead, StaffRoleAdmin},
		Templates: NotificationTemplates{
			CreationEmail: "ticket_created_email",
			CreationChat:  "ticket_created_chat",
			UpdateEmail: map[UpdateType]string{
				UpdateTypeStatusChange: "ticket_status_changed_email",
				UpdateTypeComment:      "ticket_comment_email",
				UpdateTypeResponse:     "ticket_response_email",
			},
		},
	},
	VariantPqrs: {
		Variant:          VariantPqrs,
		Table:            "pqrs",
		CommentsTable:    "pqrs_comments",
		HistoryTable:     "pqrs_history",
		AttachmentsTable: "pqrs_attachments",
		ForeignKey:       "pqrs_id",
		NumberPrefix:     "PQR",
		Statuses: []StatusInfo{
			{Value: StatusPqrsReceived, Label: "Recibido", Icon: "inbox", Color: "blue"},
			{Value: StatusPqrsInReview, Label: "En trámite", Icon: "clock", Color: "orange"},
			{Value: StatusPqrsWaiting, Label: "En espera", Icon: "pause", Color: "gray"},
			{Value: StatusPqrsAnswered, Label: "Respondido", Icon: "check", Color: "green"},
			{Value: StatusPqrsClosed, Label: "Cerrado", Icon: "lock", Color: "slate"},
		},
		ResolvedStatuses: []CaseStatus{StatusPqrsAnswered, StatusPqrsClosed},
		ClosedStatuses:   []CaseStatus{StatusPqrsClosed},
		AssignableRoles:  []StaffRole{StaffRoleAgent, StaffRoleTeamLead},
		Templates: NotificationTemplates{
			CreationEmail: "pqrs_created_email",
			CreationChat:  "pqrs_created_chat",
			UpdateEmail: map[UpdateType]string{
				UpdateTypeStatusChange: "pqrs_status_changed_email",
				UpdateTypeComment:      "pqrs_comment_email",
				UpdateTypeResponse:     "pqrs_response_email",
			},
		},
	},
	VariantCompra: {
		Variant:          VariantCompra,
		Table:            "compras",
		CommentsTable:    "compra_comments",
		HistoryTable:     "compra_history",
		AttachmentsTable: "compra_attachments",
		ForeignKey:       "compra_id",
		NumberPrefix:     "CPR",
		Statuses: []StatusInfo{
			{Value: StatusCompraRequested, Label: "Solicitado", Icon: "inbox", Color: "blue"},
			{Value: StatusCompraInReview, Label: "En revisión", Icon: "clock", Color: "orange"},
			{Value: StatusCompraApproved, Label: "Aprobado", Icon: "check", Color: "green"},
			{Value: StatusCompraRejected, Label: "Rechazado", Icon: "x", Color: "red"},
			{Value: StatusCompraCompleted, Label: "Completado", Icon: "lock", Color: "slate"},
		},
		ResolvedStatuses: []CaseStatus{StatusCompraApproved, StatusCompraRejected, StatusCompraCompleted},
		ClosedStatuses:   []CaseStatus{StatusCompraCompleted, StatusCompraRejected},
		AssignableRoles:  []StaffRole{StaffRoleTeamLead, StaffRoleAdmin},
		Templates: NotificationTemplates{
			CreationEmail: "compra_created_email",
			CreationChat:  "compra_created_chat",
			UpdateEmail: map[UpdateType]string{
				UpdateTypeStatusChange: "compra_status_changed_email",
				UpdateTypeComment:      "compra_comment_email",
				UpdateTypeResponse:     "compra_response_email",
			},
		},
	},
}

// ErrUnknownVariant reports a discriminator outside the registry. It signals a
// programming defect, not a user-facing condition.
type ErrUnknownVariant struct {
	Value string
}

func (e *ErrUnknownVariant) Error() string {
	return fmt.Sprintf("unknown case variant %q", e.Value)
}

// ParseVariant validates an untrusted discriminator string.
func ParseVariant(s string) (Variant, error) {
	v := Variant(s)
	if _, ok := profiles[v]; !ok {
		return "", &ErrUnknownVariant{Value: s}
	}
	return v, nil
}

// Profile returns the capability record for the variant.
func (v Variant) Profile() (*VariantProfile, error) {
	profile, ok := profiles[v]
	if !ok {
		return nil, &ErrUnknownVariant{Value: string(v)}
	}
	return profile, nil
}

// Variants lists the registered discriminators.
func Variants() []Variant {
	return []Variant{VariantTicket, VariantPqrs, VariantCompra}
}

// HasStatus reports whether the value belongs to the variant's vocabulary.
func (p *VariantProfile) HasStatus(status CaseStatus) bool {
	for _, info := range p.Statuses {
		if info.Value == status {
			return true
		}
	}
	return false
}

// StatusLabel returns the display label, falling back to the raw value.
func (p *VariantProfile) StatusLabel(status CaseStatus) string {
	for _, info := range p.Statuses {
		if info.Value == status {
			return info.Label
		}
	}
	return string(status)
}

// IsResolvedStatus reports whether the status belongs to the resolved subset.
func (p *VariantProfile) IsResolvedStatus(status CaseStatus) bool {
	for _, candidate := range p.ResolvedStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}

// IsClosedStatus reports whether the status belongs to the closed subset.
func (p *VariantProfile) IsClosedStatus(status CaseStatus) bool {
	for _, candidate := range p.ClosedStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}
