package draft

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/taskflow/internal/domain"
)

func sampleTasks() []domain.Task {
	return []domain.Task{
		{
			LocalID: "a1",
			Type:    domain.TaskTypeAPI,
			Name:    "Fetch",
			API: &domain.APIConfig{
				URL:          "https://example.com",
				Method:       domain.MethodPost,
				OutputSchema: `{"id":"number"}`,
				RequestBody:  `{"q":1}`,
			},
		},
		{
			LocalID: "e1",
			Type:    domain.TaskTypeEmail,
			Name:    "Notify",
			Email: &domain.EmailConfig{
				RecipientList: "a@example.com",
				Subject:       "Hi",
				Body:          "result {{1.output}}",
			},
		},
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "workflow:42:tasks", Key(42))
}

func TestPersistence_RoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(NewMemoryStore(), nil)

	require.NoError(t, p.Save(ctx, 7, sampleTasks()))

	got := p.Load(ctx, 7)
	assert.Equal(t, sampleTasks(), got)
}

func TestPersistence_LoadMissing(t *testing.T) {
	p := NewPersistence(NewMemoryStore(), nil)

	got := p.Load(context.Background(), 1)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPersistence_LoadUnparseable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"garbage", "not json"},
		{"object instead of array", `{"a":1}`},
		{"unknown task type", `[{"localId":"x","type":"sms","name":"n","config":{}}]`},
		{"null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st := NewMemoryStore()
			require.NoError(t, st.Save(ctx, Key(3), []byte(tt.raw)))

			got := NewPersistence(st, nil).Load(ctx, 3)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("boom")
}

func (failingStore) Save(context.Context, string, []byte) error {
	return errors.New("boom")
}

func TestPersistence_StoreErrors(t *testing.T) {
	p := NewPersistence(failingStore{}, nil)

	assert.Empty(t, p.Load(context.Background(), 1))
	assert.Error(t, p.Save(context.Background(), 1, sampleTasks()))
}

func TestPersistence_SaveEmpty(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	p := NewPersistence(st, nil)

	require.NoError(t, p.Save(ctx, 5, nil))

	raw, err := st.Load(ctx, Key(5))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

// ---- MemoryStore ----

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	value := []byte("abc")
	require.NoError(t, st.Save(ctx, "k", value))
	value[0] = 'x'

	got, err := st.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	_, err = st.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// ---- FileStore ----

func TestFileStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "drafts")

	st, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = st.Load(ctx, Key(1))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Save(ctx, Key(1), []byte(`[1]`)))
	require.NoError(t, st.Save(ctx, Key(1), []byte(`[2]`)))

	got, err := st.Load(ctx, Key(1))
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "workflow_1_tasks.json", entries[0].Name())
}

// ---- RedisStore ----

func TestRedisStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	st := NewRedisStore(client, 0)

	_, err := st.Load(ctx, Key(9))
	assert.ErrorIs(t, err, ErrNotFound)

	p := NewPersistence(st, nil)
	require.NoError(t, p.Save(ctx, 9, sampleTasks()))
	assert.Equal(t, sampleTasks(), p.Load(ctx, 9))
	assert.True(t, mr.Exists(Key(9)))
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	st := NewRedisStore(client, time.Minute)
	require.NoError(t, st.Save(ctx, "k", []byte("v")))
	assert.Equal(t, time.Minute, mr.TTL("k"))

	mr.FastForward(2 * time.Minute)
	_, err := st.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

// ---- PostgresStore ----

func TestPostgresStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM task_drafts`).
		WithArgs(Key(2)).
		WillReturnRows(mock.NewRows([]string{"value"}).AddRow([]byte(`[]`)))

	st := NewPostgresStore(mock)
	got, err := st.Load(context.Background(), Key(2))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM task_drafts`).
		WithArgs(Key(2)).
		WillReturnError(pgx.ErrNoRows)

	_, err = NewPostgresStore(mock).Load(context.Background(), Key(2))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO task_drafts`).
		WithArgs(Key(4), []byte(`[1]`), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewPostgresStore(mock).Save(context.Background(), Key(4), []byte(`[1]`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS task_drafts`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, NewPostgresStore(mock).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
