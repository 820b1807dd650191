package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tieubaoca/pdfchat-be/types"
)

// Memory implementations back "storage: memory" and the service tests.

type memoryMessageRepo struct {
	mu   sync.RWMutex
	msgs []types.Message // ordered by ID
}

func NewMemoryMessageRepo() MessageRepo {
	return &memoryMessageRepo{}
}

func (r *memoryMessageRepo) Append(ctx context.Context, documentID, userID string, isUserMessage bool, text string) (*types.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, err := newMessageID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate message id: %v", err)
	}
	msg := types.Message{
		ID:            id,
		DocumentID:    documentID,
		UserID:        userID,
		IsUserMessage: isUserMessage,
		Text:          text,
		CreatedAt:     time.Now().UTC(),
	}
	r.msgs = append(r.msgs, msg)
	return &msg, nil
}

// newestFirst returns messages of documentID accepted by keep, newest first,
// at most limit entries.
func (r *memoryMessageRepo) newestFirst(documentID string, keep func(id string) bool, limit int) []types.Message {
	out := []types.Message{}
	for i := len(r.msgs) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.msgs[i]
		if m.DocumentID != documentID || !keep(m.ID) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (r *memoryMessageRepo) RecentWindow(ctx context.Context, documentID, before string, limit int) ([]types.Message, error) {
	if limit <= 0 {
		return []types.Message{}, nil
	}
	r.mu.RLock()
	msgs := r.newestFirst(documentID, func(id string) bool { return before == "" || id < before }, limit)
	r.mu.RUnlock()
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *memoryMessageRepo) Page(ctx context.Context, documentID, cursor string, limit int) (*types.MessagePage, error) {
	r.mu.RLock()
	msgs := r.newestFirst(documentID, func(id string) bool { return cursor == "" || id <= cursor }, limit+1)
	r.mu.RUnlock()
	return newPage(msgs, limit), nil
}

func (r *memoryMessageRepo) CountByDocument(ctx context.Context, documentID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, m := range r.msgs {
		if m.DocumentID == documentID {
			n++
		}
	}
	return n, nil
}

func (r *memoryMessageRepo) deleteWhere(match func(types.Message) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.msgs[:0]
	for _, m := range r.msgs {
		if !match(m) {
			kept = append(kept, m)
		}
	}
	r.msgs = kept
}

func (r *memoryMessageRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	r.deleteWhere(func(m types.Message) bool { return m.DocumentID == documentID })
	return nil
}

func (r *memoryMessageRepo) DeleteByUser(ctx context.Context, userID string) error {
	r.deleteWhere(func(m types.Message) bool { return m.UserID == userID })
	return nil
}

type memoryDocumentRepo struct {
	mu   sync.RWMutex
	docs map[string]types.Document
}

func NewMemoryDocumentRepo() DocumentRepo {
	return &memoryDocumentRepo{docs: make(map[string]types.Document)}
}

func (r *memoryDocumentRepo) Create(ctx context.Context, doc *types.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.UploadStatus == "" {
		doc.UploadStatus = types.UploadStatusPending
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; ok {
		return fmt.Errorf("failed to insert document: duplicate id %s", doc.ID)
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memoryDocumentRepo) FindOwned(ctx context.Context, id, userID string) (*types.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok || doc.UserID != userID {
		return nil, ErrNotFound
	}
	return &doc, nil
}

func (r *memoryDocumentRepo) FindOwnedByKey(ctx context.Context, key, userID string) (*types.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doc := range r.docs {
		if doc.Key == key && doc.UserID == userID {
			return &doc, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryDocumentRepo) ListByUser(ctx context.Context, userID string) ([]types.Document, error) {
	r.mu.RLock()
	docs := []types.Document{}
	for _, doc := range r.docs {
		if doc.UserID == userID {
			docs = append(docs, doc)
		}
	}
	r.mu.RUnlock()
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID > docs[j].ID
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

func (r *memoryDocumentRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	docs, _ := r.ListByUser(ctx, userID)
	return int64(len(docs)), nil
}

func (r *memoryDocumentRepo) modify(id string, owner func(types.Document) bool, fn func(*types.Document)) (*types.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || !owner(doc) {
		return nil, ErrNotFound
	}
	fn(&doc)
	r.docs[id] = doc
	return &doc, nil
}

func ownedBy(userID string) func(types.Document) bool {
	return func(d types.Document) bool { return d.UserID == userID }
}

func (r *memoryDocumentRepo) UpdateStatus(ctx context.Context, id string, status types.UploadStatus, pageCount int) error {
	_, err := r.modify(id, func(types.Document) bool { return true }, func(d *types.Document) {
		d.UploadStatus = status
		if pageCount > 0 {
			d.PageCount = pageCount
		}
		d.UpdatedAt = time.Now().UTC()
	})
	return err
}

func (r *memoryDocumentRepo) Update(ctx context.Context, id, userID string, req types.UpdateDocumentRequest) (*types.Document, error) {
	return r.modify(id, ownedBy(userID), func(d *types.Document) {
		if req.Name != nil {
			d.Name = *req.Name
		}
		if req.IconIndex != nil {
			d.IconIndex = *req.IconIndex
		}
		if req.ColorIndex != nil {
			d.ColorIndex = *req.ColorIndex
		}
		d.UpdatedAt = time.Now().UTC()
	})
}

func (r *memoryDocumentRepo) IncrementViews(ctx context.Context, id, userID string) (*types.Document, error) {
	return r.modify(id, ownedBy(userID), func(d *types.Document) { d.ViewCount++ })
}

func (r *memoryDocumentRepo) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.UserID != userID {
		return ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

func (r *memoryDocumentRepo) DeleteByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, doc := range r.docs {
		if doc.UserID == userID {
			delete(r.docs, id)
		}
	}
	return nil
}

type memoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]types.User
}

func NewMemoryUserRepo() UserRepo {
	return &memoryUserRepo{users: make(map[string]types.User)}
}

func (r *memoryUserRepo) Ensure(ctx context.Context, user *types.User) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.users[user.ID]; ok {
		return &existing, nil
	}
	u := *user
	if u.Plan == "" {
		u.Plan = types.PlanFree
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.users[u.ID] = u
	return &u, nil
}

func (r *memoryUserRepo) Get(ctx context.Context, id string) (*types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *memoryUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.users, id)
	r.mu.Unlock()
	return nil
}
