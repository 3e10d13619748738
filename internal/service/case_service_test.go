package service_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/service"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

type caseFixture struct {
	cases       *fakeCaseRepo
	comments    *fakeCommentRepo
	history     *fakeHistoryRepo
	attachments *fakeAttachmentRepo
	requesters  *fakeRequesterRepo
	dispatcher  *captureDispatcher
	svc         *service.CaseService
}

func newCaseFixture(requesters ...*domain.Requester) *caseFixture {
	f := &caseFixture{
		cases:       newFakeCaseRepo(),
		comments:    newFakeCommentRepo(),
		history:     newFakeHistoryRepo(),
		attachments: newFakeAttachmentRepo(),
		requesters:  newFakeRequesterRepo(requesters...),
		dispatcher:  &captureDispatcher{},
	}
	f.svc = service.NewCaseService(service.CaseDependencies{
		CaseRepo:       f.cases,
		CommentRepo:    f.comments,
		AttachmentRepo: f.attachments,
		HistoryRepo:    f.history,
		RequesterRepo:  f.requesters,
		Dispatcher:     f.dispatcher,
		Logger:         zap.NewNop(),
	})
	return f
}

func TestCreateCase(t *testing.T) {
	ctx := context.Background()
	caseNumberPattern := regexp.MustCompile(`^(TCK|PQR|CPR)-\d{4}-\d{5}$`)

	t.Run("AssignsNumberAndInitialStatus", func(t *testing.T) {
		f := newCaseFixture()

		created, err := f.svc.CreateCase(ctx, domain.VariantTicket, testActor(), service.CaseCreateInput{
			Subject:        "No carga el portal",
			Description:    "Error 500 al entrar",
			RequesterName:  "Ana",
			RequesterEmail: "ana@example.com",
			NotifyEmail:    true,
			NotifyChat:     true,
		})
		require.NoError(t, err)
		assert.Regexp(t, caseNumberPattern, created.CaseNumber)
		assert.Equal(t, domain.StatusTicketOpen, created.Status)
		assert.Equal(t, domain.CasePriorityMedium, created.Priority, "priority defaults to media")
		assert.Equal(t, domain.ChannelWeb, created.Channel)

		published := f.dispatcher.byType(events.EventCaseCreated)
		require.Len(t, published, 1)
		payload := published[0].Payload.(events.CaseCreatedPayload)
		assert.True(t, payload.NotifyEmail)
		assert.True(t, payload.NotifyChat)
	})

	t.Run("SequentialNumbersPerVariant", func(t *testing.T) {
		f := newCaseFixture()

		first, err := f.svc.CreateCase(ctx, domain.VariantPqrs, testActor(), service.CaseCreateInput{
			Subject: "Primera queja", RequesterEmail: "a@example.com",
		})
		require.NoError(t, err)
		second, err := f.svc.CreateCase(ctx, domain.VariantPqrs, testActor(), service.CaseCreateInput{
			Subject: "Segunda queja", RequesterEmail: "b@example.com",
		})
		require.NoError(t, err)
		other, err := f.svc.CreateCase(ctx, domain.VariantCompra, testActor(), service.CaseCreateInput{
			Subject: "Compra", RequesterEmail: "c@example.com",
		})
		require.NoError(t, err)

		assert.NotEqual(t, first.CaseNumber, second.CaseNumber)
		assert.Contains(t, first.CaseNumber, "PQR-")
		assert.Contains(t, other.CaseNumber, "CPR-")
		assert.Contains(t, other.CaseNumber, "00001", "each variant keeps its own sequence")
	})

	t.Run("ResolvesRegisteredRequester", func(t *testing.T) {
		f := newCaseFixture(&domain.Requester{ID: "req-1", Name: "Ana", Email: "ana@example.com"})

		created, err := f.svc.CreateCase(ctx, domain.VariantTicket, testActor(), service.CaseCreateInput{
			Subject:     "Acceso denegado",
			RequesterID: strPtr("req-1"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Ana", created.RequesterName)
		assert.Equal(t, "ana@example.com", created.RequesterEmail)
	})

	t.Run("UnknownRequester", func(t *testing.T) {
		f := newCaseFixture()

		_, err := f.svc.CreateCase(ctx, domain.VariantTicket, testActor(), service.CaseCreateInput{
			Subject:     "Algo",
			RequesterID: strPtr("ghost"),
		})
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})

	t.Run("RejectsEmptySubject", func(t *testing.T) {
		f := newCaseFixture()
		_, err := f.svc.CreateCase(ctx, domain.VariantTicket, testActor(), service.CaseCreateInput{
			Subject: "  ",
		})
		assert.Error(t, err)
	})

	t.Run("RejectsInvalidPriority", func(t *testing.T) {
		f := newCaseFixture()
		_, err := f.svc.CreateCase(ctx, domain.VariantTicket, testActor(), service.CaseCreateInput{
			Subject:  "Algo",
			Priority: domain.CasePriority("altisima"),
		})
		assert.Error(t, err)
	})
}

func TestGetCase(t *testing.T) {
	ctx := context.Background()

	t.Run("HidesInternalCommentsFromRequesters", func(t *testing.T) {
		f := newCaseFixture(&domain.Requester{ID: "req-1", Name: "Ana", Email: "ana@example.com"})
		created, err := f.svc.CreateCase(ctx, domain.VariantTicket, testActor(), service.CaseCreateInput{
			Subject:     "Consulta",
			RequesterID: strPtr("req-1"),
		})
		require.NoError(t, err)

		profile, _ := domain.VariantTicket.Profile()
		require.NoError(t, f.comments.Create(ctx, profile, &domain.Comment{
			CaseID: created.ID, Body: "pública", Type: domain.CommentTypePublic,
		}))
		require.NoError(t, f.comments.Create(ctx, profile, &domain.Comment{
			CaseID: created.ID, Body: "interna", Type: domain.CommentTypeInternal,
		}))

		staffView, err := f.svc.GetCase(ctx, domain.VariantTicket, created.ID, true)
		require.NoError(t, err)
		assert.Len(t, staffView.Comments, 2)

		requesterView, err := f.svc.GetCaseForRequester(ctx, domain.VariantTicket, created.ID, "req-1")
		require.NoError(t, err)
		require.Len(t, requesterView.Comments, 1)
		assert.Equal(t, "pública", requesterView.Comments[0].Body)
	})

	t.Run("OwnershipEnforced", func(t *testing.T) {
		f := newCaseFixture(&domain.Requester{ID: "req-1", Name: "Ana", Email: "ana@example.com"})
		created, err := f.svc.CreateCase(ctx, domain.VariantTicket, testActor(), service.CaseCreateInput{
			Subject:     "Consulta",
			RequesterID: strPtr("req-1"),
		})
		require.NoError(t, err)

		_, err = f.svc.GetCaseForRequester(ctx, domain.VariantTicket, created.ID, "req-2")
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "FORBIDDEN", domainErr.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newCaseFixture()
		_, err := f.svc.GetCase(ctx, domain.VariantTicket, "missing", true)
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})
}
