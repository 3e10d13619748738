package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/repository"
)

func strPtr(s string) *string { return &s }

type fakeCaseRepo struct {
	mu        sync.Mutex
	seq       int
	numbers   map[string]int
	cases     map[string]*domain.SupportCase
	updateErr error
}

func newFakeCaseRepo() *fakeCaseRepo {
	return &fakeCaseRepo{
		numbers: make(map[string]int),
		cases:   make(map[string]*domain.SupportCase),
	}
}

func (r *fakeCaseRepo) key(profile *domain.VariantProfile, id string) string {
	return string(profile.Variant) + "/" + id
}

func (r *fakeCaseRepo) Create(ctx context.Context, profile *domain.VariantProfile, c *domain.SupportCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c.ID = fmt.Sprintf("case-%d", r.seq)
	c.Variant = profile.Variant
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	clone := *c
	r.cases[r.key(profile, c.ID)] = &clone
	return nil
}

func (r *fakeCaseRepo) Update(ctx context.Context, profile *domain.VariantProfile, c *domain.SupportCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.cases[r.key(profile, c.ID)]; !ok {
		return pgx.ErrNoRows
	}
	c.UpdatedAt = time.Now()
	clone := *c
	r.cases[r.key(profile, c.ID)] = &clone
	return nil
}

func (r *fakeCaseRepo) GetByID(ctx context.Context, profile *domain.VariantProfile, id string) (*domain.SupportCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.cases[r.key(profile, id)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (r *fakeCaseRepo) GetByNumber(ctx context.Context, profile *domain.VariantProfile, number string) (*domain.SupportCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.cases {
		if stored.Variant == profile.Variant && stored.CaseNumber == number {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCaseRepo) ListWithFilter(ctx context.Context, profile *domain.VariantProfile, filter repository.CaseFilter) ([]domain.SupportCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.SupportCase
	for _, stored := range r.cases {
		if stored.Variant != profile.Variant {
			continue
		}
		if filter.RequesterID != nil && (stored.RequesterID == nil || *stored.RequesterID != *filter.RequesterID) {
			continue
		}
		result = append(result, *stored)
	}
	return result, nil
}

func (r *fakeCaseRepo) NextCaseNumber(ctx context.Context, profile *domain.VariantProfile, year int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%s-%d", profile.Variant, year)
	r.numbers[key]++
	return fmt.Sprintf("%s-%d-%05d", profile.NumberPrefix, year, r.numbers[key]), nil
}

type fakeCommentRepo struct {
	mu        sync.Mutex
	seq       int
	comments  []domain.Comment
	createErr error
}

func newFakeCommentRepo() *fakeCommentRepo { return &fakeCommentRepo{} }

func (r *fakeCommentRepo) Create(ctx context.Context, profile *domain.VariantProfile, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	comment.ID = fmt.Sprintf("comment-%d", r.seq)
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) GetByID(ctx context.Context, profile *domain.VariantProfile, id string) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.comments {
		if r.comments[i].ID == id {
			clone := r.comments[i]
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCommentRepo) ListByCase(ctx context.Context, profile *domain.VariantProfile, caseID string) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Comment
	for _, comment := range r.comments {
		if comment.CaseID == caseID {
			result = append(result, comment)
		}
	}
	return result, nil
}

type fakeHistoryRepo struct {
	mu        sync.Mutex
	seq       int
	entries   []domain.HistoryEntry
	createErr error
}

func newFakeHistoryRepo() *fakeHistoryRepo { return &fakeHistoryRepo{} }

func (r *fakeHistoryRepo) Create(ctx context.Context, profile *domain.VariantProfile, entry *domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	entry.ID = fmt.Sprintf("history-%d", r.seq)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByCase(ctx context.Context, profile *domain.VariantProfile, caseID string, limit, offset int) ([]domain.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.HistoryEntry
	for _, entry := range r.entries {
		if entry.CaseID == caseID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type fakeAttachmentRepo struct {
	mu          sync.Mutex
	seq         int
	attachments []domain.Attachment
	createErr   error
}

func newFakeAttachmentRepo() *fakeAttachmentRepo { return &fakeAttachmentRepo{} }

func (r *fakeAttachmentRepo) Create(ctx context.Context, profile *domain.VariantProfile, attachment *domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	attachment.ID = fmt.Sprintf("attachment-%d", r.seq)
	attachment.CreatedAt = time.Now()
	r.attachments = append(r.attachments, *attachment)
	return nil
}

func (r *fakeAttachmentRepo) GetByID(ctx context.Context, profile *domain.VariantProfile, id string) (*domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.attachments {
		if r.attachments[i].ID == id {
			clone := r.attachments[i]
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAttachmentRepo) ListByCase(ctx context.Context, profile *domain.VariantProfile, caseID string) ([]domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Attachment
	for _, attachment := range r.attachments {
		if attachment.CaseID == caseID {
			result = append(result, attachment)
		}
	}
	return result, nil
}

func (r *fakeAttachmentRepo) ListByComment(ctx context.Context, profile *domain.VariantProfile, commentID string) ([]domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Attachment
	for _, attachment := range r.attachments {
		if attachment.CommentID != nil && *attachment.CommentID == commentID {
			result = append(result, attachment)
		}
	}
	return result, nil
}

func (r *fakeAttachmentRepo) Delete(ctx context.Context, profile *domain.VariantProfile, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.attachments {
		if r.attachments[i].ID == id {
			r.attachments = append(r.attachments[:i], r.attachments[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeStaffRepo struct {
	members map[string]*domain.Staff
}

func newFakeStaffRepo(members ...*domain.Staff) *fakeStaffRepo {
	repo := &fakeStaffRepo{members: make(map[string]*domain.Staff)}
	for _, member := range members {
		repo.members[member.ID] = member
	}
	return repo
}

func (r *fakeStaffRepo) GetByID(ctx context.Context, id string) (*domain.Staff, error) {
	member, ok := r.members[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *member
	return &clone, nil
}

func (r *fakeStaffRepo) List(ctx context.Context, filter repository.StaffFilter) ([]domain.Staff, error) {
	var result []domain.Staff
	for _, member := range r.members {
		result = append(result, *member)
	}
	return result, nil
}

type fakeRequesterRepo struct {
	requesters map[string]*domain.Requester
}

func newFakeRequesterRepo(requesters ...*domain.Requester) *fakeRequesterRepo {
	repo := &fakeRequesterRepo{requesters: make(map[string]*domain.Requester)}
	for _, requester := range requesters {
		repo.requesters[requester.ID] = requester
	}
	return repo
}

func (r *fakeRequesterRepo) GetByID(ctx context.Context, id string) (*domain.Requester, error) {
	requester, ok := r.requesters[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *requester
	return &clone, nil
}

func (r *fakeRequesterRepo) GetByEmail(ctx context.Context, email string) (*domain.Requester, error) {
	for _, requester := range r.requesters {
		if requester.Email == email {
			clone := *requester
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// captureDispatcher records published events without delivering them.
type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *captureDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}
