package domain

import "time"

// CaseStatus is a variant-scoped lifecycle state. Vocabularies live in the
// variant registry; transitions are free-form (any vocabulary value is
// reachable from any other).
type CaseStatus string

const (
	StatusTicketOpen       CaseStatus = "abierto"
	StatusTicketInProgress CaseStatus = "en_progreso"
	StatusTicketWaiting    CaseStatus = "en_espera"
	StatusTicketResolved   CaseStatus = "resuelto"
	StatusTicketClosed     CaseStatus = "cerrado"
	StatusTicketConverted  CaseStatus = "convertido"

	StatusPqrsReceived CaseStatus = "recibido"
	StatusPqrsInReview CaseStatus = "en_tramite"
	StatusPqrsWaiting  CaseStatus = "en_espera"
	StatusPqrsAnswered CaseStatus = "respondido"
	StatusPqrsClosed   CaseStatus = "cerrado"

	StatusCompraRequested CaseStatus = "solicitado"
	StatusCompraInReview  CaseStatus = "en_revision"
	StatusCompraApproved  CaseStatus = "aprobado"
	StatusCompraRejected  CaseStatus = "rechazado"
	StatusCompraCompleted CaseStatus = "completado"
)

// CasePriority enumerates urgency, shared across variants.
type CasePriority string

const (
	CasePriorityLow    CasePriority = "baja"
	CasePriorityMedium CasePriority = "media"
	CasePriorityHigh   CasePriority = "alta"
	CasePriorityUrgent CasePriority = "urgente"
)

// CaseChannel records how the case entered the system.
type CaseChannel string

const (
	ChannelEmail CaseChannel = "email"
	ChannelWeb   CaseChannel = "web"
	ChannelAPI   CaseChannel = "api"
)

// SupportCase is the aggregate shared by tickets, PQRS requests and compras.
// CaseNumber is immutable and unique within the variant. ResolvedAt and
// FirstResponseAt are set-once: written the first time their condition holds,
// never overwritten.
type SupportCase struct {
	ID                string
	Variant           Variant
	CaseNumber        string
	Subject           string
	Description       string
	Status            CaseStatus
	Priority          CasePriority
	RequesterID       *string
	RequesterName     string
	RequesterEmail    string
	AssigneeID        *string
	Channel           CaseChannel
	ConvertedToNumber *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ResolvedAt        *time.Time
	ClosedAt          *time.Time
	FirstResponseAt   *time.Time
}
