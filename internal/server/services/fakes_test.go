package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/pixkeeper/internal/common"
	"github.com/dmitrijs2005/pixkeeper/internal/dbx"
	"github.com/dmitrijs2005/pixkeeper/internal/server/models"
	"github.com/dmitrijs2005/pixkeeper/internal/server/repositories/images"
	"github.com/dmitrijs2005/pixkeeper/internal/server/repositories/invites"
	"github.com/dmitrijs2005/pixkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/pixkeeper/internal/server/storage"
)

// fakeRepoManager hands out the same in-memory repositories regardless of
// the handle, so transactions are only observed through sqlmock.
type fakeRepoManager struct {
	users   *fakeUsersRepo
	invites *fakeInvitesRepo
	images  *fakeImagesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:   &fakeUsersRepo{byID: map[string]*models.User{}},
		invites: &fakeInvitesRepo{tokens: map[string]time.Time{}},
		images:  &fakeImagesRepo{byPath: map[string]*models.ImageRecord{}},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository            { return m.users }
func (m *fakeRepoManager) Invites(dbx.DBTX) invites.Repository        { return m.invites }
func (m *fakeRepoManager) Images(dbx.DBTX) images.Repository          { return m.images }

type fakeUsersRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.User
	seq       int
	createErr error
	getErr    error
	activated int
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.UserName == u.UserName {
			return nil, common.ErrorConflict
		}
	}
	f.seq++
	u.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", f.seq)
	u.CreatedAt = time.Now()
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.UserName == login {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) Activate(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok || u.Status != common.UserStatusPending {
		return false, nil
	}
	now := time.Now()
	u.Status = common.UserStatusActive
	u.ApprovedAt = &now
	f.activated++
	return true, nil
}

func (f *fakeUsersRepo) ListByStatus(ctx context.Context, status string) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.byID {
		if u.Status == status {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeInvitesRepo struct {
	mu        sync.Mutex
	tokens    map[string]time.Time
	createErr error
}

func (f *fakeInvitesRepo) Create(ctx context.Context, token string) (*models.InviteToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.tokens[token]; ok {
		return nil, common.ErrorConflict
	}
	now := time.Now()
	f.tokens[token] = now
	return &models.InviteToken{Token: token, CreatedAt: now}, nil
}

func (f *fakeInvitesRepo) Exists(ctx context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tokens[token]
	return ok, nil
}

func (f *fakeInvitesRepo) Consume(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[token]; !ok {
		return common.ErrorNotFound
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeInvitesRepo) List(ctx context.Context) ([]*models.InviteToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.InviteToken
	for t, at := range f.tokens {
		out = append(out, &models.InviteToken{Token: t, CreatedAt: at})
	}
	return out, nil
}

type fakeImagesRepo struct {
	byPath    map[string]*models.ImageRecord
	order     []string
	upsertErr error
	getErr    error
	listErr   error
}

func (f *fakeImagesRepo) Upsert(ctx context.Context, rec *models.ImageRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if old, ok := f.byPath[rec.StoragePath]; ok {
		rec.ID = old.ID
	} else {
		f.order = append(f.order, rec.StoragePath)
	}
	rec.CreatedAt = time.Now()
	cp := *rec
	f.byPath[rec.StoragePath] = &cp
	return nil
}

func (f *fakeImagesRepo) GetByPath(ctx context.Context, p string) (*models.ImageRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.byPath[p]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return rec, nil
}

func (f *fakeImagesRepo) ListAll(ctx context.Context) ([]*models.ImageRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.ImageRecord
	for i := len(f.order) - 1; i >= 0; i-- {
		if rec, ok := f.byPath[f.order[i]]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeImagesRepo) DeleteByPath(ctx context.Context, p string) error {
	if _, ok := f.byPath[p]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byPath, p)
	return nil
}

type fakeStore struct {
	objects    map[string][]byte
	types      map[string]string
	putErr     error
	getErr     error
	removeErr  error
	presignErr map[string]error
	puts       int
	removes    int
}

var _ storage.ObjectStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}, presignErr: map[string]error{}}
}

func (f *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[key] = append([]byte(nil), data...)
	f.types[key] = contentType
	return nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (*storage.Object, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &storage.Object{Body: io.NopCloser(bytes.NewReader(data)), ContentType: f.types[key], Size: int64(len(data))}, nil
}

func (f *fakeStore) Remove(ctx context.Context, key string) error {
	f.removes++
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := f.presignErr[key]; err != nil {
		return "", err
	}
	return "http://s3.test/gallery/" + key + "?X-Amz-Expires=" + ttl.String(), nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "http://s3.test/gallery/" + key
}

var errBoom = errors.New("boom")
