package service_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/service"
	"github.com/spec-kit/case-service/internal/storage"
	"github.com/spec-kit/case-service/internal/upload"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

type attachmentFixture struct {
	cases       *fakeCaseRepo
	attachments *fakeAttachmentRepo
	store       *storage.LocalStore
	svc         *service.AttachmentService
}

func newAttachmentFixture(t *testing.T) *attachmentFixture {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	f := &attachmentFixture{
		cases:       newFakeCaseRepo(),
		attachments: newFakeAttachmentRepo(),
		store:       store,
	}
	f.svc = service.NewAttachmentService(service.AttachmentDependencies{
		CaseRepo:       f.cases,
		AttachmentRepo: f.attachments,
		Store:          store,
		Validator:      upload.NewValidator(config.UploadConfig{}),
		Logger:         zap.NewNop(),
	})
	return f
}

func (f *attachmentFixture) seedCase(t *testing.T) *domain.SupportCase {
	t.Helper()
	profile, err := domain.VariantTicket.Profile()
	require.NoError(t, err)
	c := &domain.SupportCase{
		CaseNumber: "TCK-2026-00020",
		Subject:    "Adjuntos",
		Status:     domain.StatusTicketOpen,
		Priority:   domain.CasePriorityMedium,
	}
	require.NoError(t, f.cases.Create(context.Background(), profile, c))
	return c
}

func pdfBytes() []byte {
	return append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte{'x'}, 64)...)
}

func TestSaveUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("StoresFileAndMetadata", func(t *testing.T) {
		f := newAttachmentFixture(t)
		c := f.seedCase(t)
		content := pdfBytes()

		attachment, err := f.svc.SaveUpload(ctx, service.SaveUploadInput{
			Variant:   domain.VariantTicket,
			CaseID:    c.ID,
			Filename:  "cotización final.pdf",
			MimeType:  "application/pdf",
			SizeBytes: int64(len(content)),
			Content:   bytes.NewReader(content),
		})
		require.NoError(t, err)

		assert.Equal(t, "cotizaci_n_final.pdf", attachment.OriginalFilename)
		assert.True(t, strings.HasSuffix(attachment.StoredFilename, ".pdf"))
		assert.NotEqual(t, attachment.OriginalFilename, attachment.StoredFilename)
		assert.True(t, strings.HasPrefix(attachment.RelativePath, "ticket/TCK-2026-00020/"))

		rc, err := f.store.Open(ctx, attachment.RelativePath)
		require.NoError(t, err)
		defer rc.Close()
		stored, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, content, stored)
	})

	t.Run("RejectsDeniedFile", func(t *testing.T) {
		f := newAttachmentFixture(t)
		c := f.seedCase(t)

		_, err := f.svc.SaveUpload(ctx, service.SaveUploadInput{
			Variant:   domain.VariantTicket,
			CaseID:    c.ID,
			Filename:  "script.exe",
			MimeType:  "application/octet-stream",
			SizeBytes: 100,
			Content:   bytes.NewReader([]byte("MZ")),
		})
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ATTACHMENT_REJECTED", domainErr.Code)
		assert.Equal(t, 422, domainErr.HTTPStatus)
	})

	t.Run("AcceptsDocxWithZipSignature", func(t *testing.T) {
		f := newAttachmentFixture(t)
		c := f.seedCase(t)
		content := append([]byte{'P', 'K', 0x03, 0x04}, bytes.Repeat([]byte{0}, 32)...)

		attachment, err := f.svc.SaveUpload(ctx, service.SaveUploadInput{
			Variant:   domain.VariantTicket,
			CaseID:    c.ID,
			Filename:  "informe.docx",
			MimeType:  "application/zip",
			SizeBytes: int64(len(content)),
			Content:   bytes.NewReader(content),
		})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(attachment.StoredFilename, ".docx"))
	})

	t.Run("RowFailureCleansUpFile", func(t *testing.T) {
		f := newAttachmentFixture(t)
		c := f.seedCase(t)
		f.attachments.createErr = assert.AnError
		content := pdfBytes()

		_, err := f.svc.SaveUpload(ctx, service.SaveUploadInput{
			Variant:   domain.VariantTicket,
			CaseID:    c.ID,
			Filename:  "doc.pdf",
			MimeType:  "application/pdf",
			SizeBytes: int64(len(content)),
			Content:   bytes.NewReader(content),
		})
		require.Error(t, err)

		// nothing should remain under the case directory
		exists, statErr := f.store.Exists(ctx, "ticket/TCK-2026-00020")
		require.NoError(t, statErr)
		_ = exists // directory may linger; the file must not
		assert.Empty(t, f.attachments.attachments)
	})

	t.Run("UnknownCase", func(t *testing.T) {
		f := newAttachmentFixture(t)
		_, err := f.svc.SaveUpload(ctx, service.SaveUploadInput{
			Variant:   domain.VariantTicket,
			CaseID:    "missing",
			Filename:  "doc.pdf",
			MimeType:  "application/pdf",
			SizeBytes: 10,
			Content:   bytes.NewReader(pdfBytes()),
		})
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})
}

func TestDeleteAttachment(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovesFileThenRow", func(t *testing.T) {
		f := newAttachmentFixture(t)
		c := f.seedCase(t)
		content := pdfBytes()

		attachment, err := f.svc.SaveUpload(ctx, service.SaveUploadInput{
			Variant:   domain.VariantTicket,
			CaseID:    c.ID,
			Filename:  "doc.pdf",
			MimeType:  "application/pdf",
			SizeBytes: int64(len(content)),
			Content:   bytes.NewReader(content),
		})
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, domain.VariantTicket, attachment.ID))

		exists, err := f.store.Exists(ctx, attachment.RelativePath)
		require.NoError(t, err)
		assert.False(t, exists)
		assert.Empty(t, f.attachments.attachments)
	})

	t.Run("MissingFileStillDeletesRow", func(t *testing.T) {
		f := newAttachmentFixture(t)
		c := f.seedCase(t)

		profile, _ := domain.VariantTicket.Profile()
		require.NoError(t, f.attachments.Create(ctx, profile, &domain.Attachment{
			CaseID:       c.ID,
			RelativePath: "ticket/TCK-2026-00020/gone.pdf",
		}))

		require.NoError(t, f.svc.Delete(ctx, domain.VariantTicket, f.attachments.attachments[0].ID))
		assert.Empty(t, f.attachments.attachments)
	})
}
