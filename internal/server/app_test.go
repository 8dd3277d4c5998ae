package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/pixkeeper/internal/dbx"
	"github.com/dmitrijs2005/pixkeeper/internal/logging"
	"github.com/dmitrijs2005/pixkeeper/internal/server/config"
	"github.com/dmitrijs2005/pixkeeper/internal/server/repositories/images"
	"github.com/dmitrijs2005/pixkeeper/internal/server/repositories/invites"
	"github.com/dmitrijs2005/pixkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pixkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/pixkeeper/internal/server/storage"
)

type stubRepoManager struct {
	migrateErr error
	migrated   bool
}

func (m *stubRepoManager) RunMigrations(context.Context, *sql.DB) error {
	m.migrated = true
	return m.migrateErr
}
func (m *stubRepoManager) Users(db dbx.DBTX) users.Repository     { return users.NewPostgresRepository(db) }
func (m *stubRepoManager) Invites(db dbx.DBTX) invites.Repository { return invites.NewPostgresRepository(db) }
func (m *stubRepoManager) Images(db dbx.DBTX) images.Repository   { return images.NewPostgresRepository(db) }

type stubStore struct {
	storage.ObjectStore
	ensureErr error
}

func (s *stubStore) EnsureBucket(context.Context) error { return s.ensureErr }

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.AdminPassword = "admin-secret"
	return c
}

func stubSeams(t *testing.T, rm repomanager.RepositoryManager, store objectStore, storeErr error) {
	t.Helper()
	origRM, origStore := newRepoManager, newObjectStore
	t.Cleanup(func() { newRepoManager, newObjectStore = origRM, origStore })

	newRepoManager = func() repomanager.RepositoryManager { return rm }
	newObjectStore = func(context.Context, *config.Config) (objectStore, error) { return store, storeErr }
}

func TestNewApp_RunsMigrationsAndBuildsServer(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rm := &stubRepoManager{}
	stubSeams(t, rm, &stubStore{ensureErr: errors.New("bucket check failed")}, nil)

	app, err := newApp(context.Background(), testConfig(), logging.Discard(), db)
	require.NoError(t, err)
	assert.True(t, rm.migrated)
	assert.NotNil(t, app.http)
}

func TestNewApp_Errors(t *testing.T) {
	tests := []struct {
		name     string
		rm       *stubRepoManager
		storeErr error
		want     string
	}{
		{"migrations", &stubRepoManager{migrateErr: errors.New("bad sql")}, nil, "migrations: bad sql"},
		{"object store", &stubRepoManager{}, errors.New("no creds"), "object store init error: no creds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			stubSeams(t, tt.rm, &stubStore{}, tt.storeErr)

			_, err = newApp(context.Background(), testConfig(), logging.Discard(), db)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestOpenDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(string) (*sql.DB, error) { return db, nil }

	mock.ExpectPing()
	got, err := OpenDatabase(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Same(t, db, got)

	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()
	_, err = OpenDatabase(context.Background(), testConfig())
	assert.ErrorContains(t, err, "db ping error: refused")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_StopsOnCancelAndClosesDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	stubSeams(t, &stubRepoManager{}, &stubStore{}, nil)
	app, err := newApp(context.Background(), testConfig(), logging.Discard(), db)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

