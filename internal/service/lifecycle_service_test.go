package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/service"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

type lifecycleFixture struct {
	cases      *fakeCaseRepo
	comments   *fakeCommentRepo
	history    *fakeHistoryRepo
	staff      *fakeStaffRepo
	dispatcher *captureDispatcher
	svc        *service.LifecycleService
}

func newLifecycleFixture(staff ...*domain.Staff) *lifecycleFixture {
	f := &lifecycleFixture{
		cases:      newFakeCaseRepo(),
		comments:   newFakeCommentRepo(),
		history:    newFakeHistoryRepo(),
		staff:      newFakeStaffRepo(staff...),
		dispatcher: &captureDispatcher{},
	}
	f.svc = service.NewLifecycleService(service.LifecycleDependencies{
		CaseRepo:    f.cases,
		CommentRepo: f.comments,
		HistoryRepo: f.history,
		StaffRepo:   f.staff,
		Dispatcher:  f.dispatcher,
		Logger:      zap.NewNop(),
	})
	return f
}

func (f *lifecycleFixture) seedCase(t *testing.T, variant domain.Variant, status domain.CaseStatus) *domain.SupportCase {
	t.Helper()
	profile, err := variant.Profile()
	require.NoError(t, err)
	c := &domain.SupportCase{
		CaseNumber:     "TCK-2026-00001",
		Subject:        "Impresora no funciona",
		Status:         status,
		Priority:       domain.CasePriorityMedium,
		RequesterName:  "Ana",
		RequesterEmail: "ana@example.com",
		Channel:        domain.ChannelWeb,
	}
	require.NoError(t, f.cases.Create(context.Background(), profile, c))
	return c
}

func testActor() events.Actor {
	id := "staff-1"
	return events.Actor{Type: domain.SubjectTypeStaff, ID: &id, Name: "Carlos"}
}

func TestChangeStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("HappyPath", func(t *testing.T) {
		f := newLifecycleFixture()
		c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)

		updated, err := f.svc.ChangeStatus(ctx, domain.VariantTicket, c.ID, domain.StatusTicketInProgress, testActor(), "", true)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusTicketInProgress, updated.Status)
		assert.Nil(t, updated.ResolvedAt)

		require.Len(t, f.history.entries, 1)
		entry := f.history.entries[0]
		assert.Equal(t, domain.HistoryFieldStatus, entry.FieldName)
		assert.Equal(t, "abierto", entry.OldValue)
		assert.Equal(t, "en_progreso", entry.NewValue)

		require.Len(t, f.comments.comments, 1)
		comment := f.comments.comments[0]
		assert.True(t, comment.IsSystem)
		assert.Equal(t, domain.CommentTypeInternal, comment.Type)
		assert.Equal(t, "Estado cambiado de Abierto a En progreso", comment.Body)

		published := f.dispatcher.byType(events.EventCaseStatusChanged)
		require.Len(t, published, 1)
		payload := published[0].Payload.(events.CaseStatusChangedPayload)
		assert.True(t, payload.Notify)
	})

	t.Run("SameStatusIsNoOp", func(t *testing.T) {
		f := newLifecycleFixture()
		c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)

		updated, err := f.svc.ChangeStatus(ctx, domain.VariantTicket, c.ID, domain.StatusTicketOpen, testActor(), "", true)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusTicketOpen, updated.Status)
		assert.Empty(t, f.history.entries)
		assert.Empty(t, f.comments.comments)
		assert.Empty(t, f.dispatcher.events)
	})

	t.Run("ResolvedAtSetOnce", func(t *testing.T) {
		f := newLifecycleFixture()
		c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)

		updated, err := f.svc.ChangeStatus(ctx, domain.VariantTicket, c.ID, domain.StatusTicketResolved, testActor(), "", false)
		require.NoError(t, err)
		require.NotNil(t, updated.ResolvedAt)
		firstStamp := *updated.ResolvedAt

		_, err = f.svc.ChangeStatus(ctx, domain.VariantTicket, c.ID, domain.StatusTicketOpen, testActor(), "", false)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		updated, err = f.svc.ChangeStatus(ctx, domain.VariantTicket, c.ID, domain.StatusTicketResolved, testActor(), "", false)
		require.NoError(t, err)
		require.NotNil(t, updated.ResolvedAt)
		assert.Equal(t, firstStamp, *updated.ResolvedAt, "reopening and re-resolving must keep the original stamp")
	})

	t.Run("ClosedAtStamped", func(t *testing.T) {
		f := newLifecycleFixture()
		c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)

		updated, err := f.svc.ChangeStatus(ctx, domain.VariantTicket, c.ID, domain.StatusTicketClosed, testActor(), "", false)
		require.NoError(t, err)
		assert.NotNil(t, updated.ResolvedAt)
		assert.NotNil(t, updated.ClosedAt)
	})

	t.Run("RejectsForeignVocabulary", func(t *testing.T) {
		f := newLifecycleFixture()
		c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)

		_, err := f.svc.ChangeStatus(ctx, domain.VariantTicket, c.ID, domain.StatusCompraApproved, testActor(), "", false)
		require.Error(t, err)
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	})

	t.Run("UnknownCase", func(t *testing.T) {
		f := newLifecycleFixture()
		_, err := f.svc.ChangeStatus(ctx, domain.VariantTicket, "missing", domain.StatusTicketOpen, testActor(), "", false)
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})

	t.Run("UnknownVariantIsServerError", func(t *testing.T) {
		f := newLifecycleFixture()
		_, err := f.svc.ChangeStatus(ctx, domain.Variant("bogus"), "x", domain.StatusTicketOpen, testActor(), "", false)
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "UNKNOWN_VARIANT", domainErr.Code)
		assert.Equal(t, 500, domainErr.HTTPStatus)
	})

	t.Run("HistoryFailureDoesNotFailOperation", func(t *testing.T) {
		f := newLifecycleFixture()
		c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)
		f.history.createErr = assert.AnError

		updated, err := f.svc.ChangeStatus(ctx, domain.VariantTicket, c.ID, domain.StatusTicketInProgress, testActor(), "", false)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusTicketInProgress, updated.Status)
	})

	t.Run("CustomCommentText", func(t *testing.T) {
		f := newLifecycleFixture()
		c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)

		_, err := f.svc.ChangeStatus(ctx, domain.VariantTicket, c.ID, domain.StatusTicketWaiting, testActor(), "Esperando repuesto", false)
		require.NoError(t, err)
		require.Len(t, f.comments.comments, 1)
		assert.Equal(t, "Esperando repuesto", f.comments.comments[0].Body)
	})
}

func TestChangePriority(t *testing.T) {
	ctx := context.Background()

	t.Run("HappyPath", func(t *testing.T) {
		f := newLifecycleFixture()
		c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)

		updated, err := f.svc.ChangePriority(ctx, domain.VariantTicket, c.ID, domain.CasePriorityUrgent, testActor())
		require.NoError(t, err)
		assert.Equal(t, domain.CasePriorityUrgent, updated.Priority)
		require.Len(t, f.history.entries, 1)
		assert.Equal(t, domain.HistoryFieldPriority, f.history.entries[0].FieldName)
		// priority changes never notify
		assert.Empty(t, f.dispatcher.byType(events.EventCaseStatusChanged))
	})

	t.Run("SamePriorityIsNoOp", func(t *testing.T) {
		f := newLifecycleFixture()
		c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)

		_, err := f.svc.ChangePriority(ctx, domain.VariantTicket, c.ID, domain.CasePriorityMedium, testActor())
		require.NoError(t, err)
		assert.Empty(t, f.history.entries)
	})

	t.Run("InvalidPriority", func(t *testing.T) {
		f := newLifecycleFixture()
		c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)

		_, err := f.svc.ChangePriority(ctx, domain.VariantTicket, c.ID, domain.CasePriority("critica"), testActor())
		assert.Error(t, err)
	})
}

func TestAssign(t *testing.T) {
	ctx := context.Background()
	agent := &domain.Staff{ID: "staff-2", Name: "María", Role: domain.StaffRoleAgent, Active: true}
	inactive := &domain.Staff{ID: "staff-3", Name: "Pedro", Role: domain.StaffRoleAgent, Active: false}
	admin := &domain.Staff{ID: "staff-4", Name: "Lucía", Role: domain.StaffRoleAdmin, Active: true}

	t.Run("AssignsActiveAgent", func(t *testing.T) {
		f := newLifecycleFixture(agent)
		c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)

		updated, err := f.svc.Assign(ctx, domain.VariantTicket, c.ID, strPtr("staff-2"), testActor())
		require.NoError(t, err)
		require.NotNil(t, updated.AssigneeID)
		assert.Equal(t, "staff-2", *updated.AssigneeID)

		require.Len(t, f.history.entries, 1)
		entry := f.history.entries[0]
		assert.Equal(t, domain.HistoryFieldAssignee, entry.FieldName)
		assert.Equal(t, "Sin asignar", entry.OldValue)
		assert.Equal(t, "María", entry.NewValue)

		require.Len(t, f.comments.comments, 1)
		assert.Equal(t, "Caso asignado a María", f.comments.comments[0].Body)
	})

	t.Run("SentinelValuesUnassign", func(t *testing.T) {
		for _, sentinel := range []*string{nil, strPtr(""), strPtr("0")} {
			f := newLifecycleFixture(agent)
			c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)
			_, err := f.svc.Assign(ctx, domain.VariantTicket, c.ID, strPtr("staff-2"), testActor())
			require.NoError(t, err)

			updated, err := f.svc.Assign(ctx, domain.VariantTicket, c.ID, sentinel, testActor())
			require.NoError(t, err)
			assert.Nil(t, updated.AssigneeID)
		}
	})

	t.Run("SameAssigneeIsNoOp", func(t *testing.T) {
		f := newLifecycleFixture(agent)
		c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)
		_, err := f.svc.Assign(ctx, domain.VariantTicket, c.ID, strPtr("staff-2"), testActor())
		require.NoError(t, err)
		historyBefore := len(f.history.entries)

		_, err = f.svc.Assign(ctx, domain.VariantTicket, c.ID, strPtr("staff-2"), testActor())
		require.NoError(t, err)
		assert.Len(t, f.history.entries, historyBefore)
	})

	t.Run("UnassignFromUnassignedIsNoOp", func(t *testing.T) {
		f := newLifecycleFixture(agent)
		c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)

		_, err := f.svc.Assign(ctx, domain.VariantTicket, c.ID, strPtr("0"), testActor())
		require.NoError(t, err)
		assert.Empty(t, f.history.entries)
	})

	t.Run("RejectsInactiveStaff", func(t *testing.T) {
		f := newLifecycleFixture(inactive)
		c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)

		_, err := f.svc.Assign(ctx, domain.VariantTicket, c.ID, strPtr("staff-3"), testActor())
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONFLICT", domainErr.Code)
	})

	t.Run("RejectsRoleOutsideVariant", func(t *testing.T) {
		// compras only accept team leads and admins
		f := newLifecycleFixture(agent, admin)
		profile, err := domain.VariantCompra.Profile()
		require.NoError(t, err)
		c := &domain.SupportCase{
			CaseNumber: "CPR-2026-00001",
			Subject:    "Compra de monitores",
			Status:     domain.StatusCompraRequested,
			Priority:   domain.CasePriorityMedium,
		}
		require.NoError(t, f.cases.Create(ctx, profile, c))

		_, err = f.svc.Assign(ctx, domain.VariantCompra, c.ID, strPtr("staff-2"), testActor())
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "FORBIDDEN", domainErr.Code)

		_, err = f.svc.Assign(ctx, domain.VariantCompra, c.ID, strPtr("staff-4"), testActor())
		assert.NoError(t, err)
	})

	t.Run("UnknownStaff", func(t *testing.T) {
		f := newLifecycleFixture()
		c := f.seedCase(t, domain.VariantTicket, domain.StatusTicketOpen)

		_, err := f.svc.Assign(ctx, domain.VariantTicket, c.ID, strPtr("ghost"), testActor())
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})
}

func TestNormalizeAssigneeRef(t *testing.T) {
	assert.Nil(t, service.NormalizeAssigneeRef(nil))
	assert.Nil(t, service.NormalizeAssigneeRef(strPtr("")))
	assert.Nil(t, service.NormalizeAssigneeRef(strPtr("0")))
	ref := service.NormalizeAssigneeRef(strPtr("staff-9"))
	require.NotNil(t, ref)
	assert.Equal(t, "staff-9", *ref)
}
