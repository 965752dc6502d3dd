package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
)

// ─────────────────────────────────────────────────────────────────
// pgx fakes
// ─────────────────────────────────────────────────────────────────

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type fakeRows struct {
	rows []fakeRow
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.pos-1].values, nil }
func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}
func (r *fakeRows) Scan(dest ...any) error { return r.rows[r.pos-1].Scan(dest...) }

type fakeDB struct {
	execSQL  []string
	queryErr error
	rows     *fakeRows
	lastArgs []any
	row      fakeRow
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	f.lastArgs = args
	return f.row
}

func customerRow(id, name, phone string) fakeRow {
	return fakeRow{values: []any{id, name, phone, "", "", "", "", "", "", time.Unix(0, 0).UTC()}}
}

// ─────────────────────────────────────────────────────────────────
// Repository
// ─────────────────────────────────────────────────────────────────

func TestRepositoryEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, NewRepository(db).EnsureSchema(context.Background()))
	require.Len(t, db.execSQL, 1)
	assert.Contains(t, db.execSQL[0], "CREATE TABLE IF NOT EXISTS customers")
}

func TestRepositoryList(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{rows: []fakeRow{
		customerRow("c1", "Alice", "555-1"),
		customerRow("c2", "Bob", ""),
	}}}

	got, err := NewRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Alice", got[0].Name)
	assert.Equal(t, "555-1", got[0].Phone)
	assert.Equal(t, "c2", got[1].ID)
}

func TestRepositoryListErrors(t *testing.T) {
	_, err := NewRepository(&fakeDB{queryErr: errors.New("down")}).List(context.Background())
	assert.Error(t, err)

	_, err = NewRepository(&fakeDB{rows: &fakeRows{err: errors.New("broken stream")}}).List(context.Background())
	assert.Error(t, err)
}

func TestRepositoryUpsert(t *testing.T) {
	db := &fakeDB{row: customerRow("c9", "Jane Doe", "555-9")}
	repo := NewRepository(db)

	got, err := repo.Upsert(context.Background(), domain.CustomerContact{Name: "  Jane Doe ", Phone: " 555-9 "})
	require.NoError(t, err)
	assert.Equal(t, "c9", got.ID)

	require.Len(t, db.lastArgs, 10)
	assert.NotEmpty(t, db.lastArgs[0], "id generated")
	assert.Equal(t, "Jane Doe", db.lastArgs[1])
	assert.Equal(t, "555-9", db.lastArgs[2])

	_, err = repo.Upsert(context.Background(), domain.CustomerContact{Name: " "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.True(t, strings.Contains(upsertSQL, "NULLIF(EXCLUDED.phone, '')"), "blank fields must not overwrite")
}

// ─────────────────────────────────────────────────────────────────
// Directory
// ─────────────────────────────────────────────────────────────────

type fakeSource struct {
	list    []Customer
	err     error
	upserts []domain.CustomerContact
}

func (f *fakeSource) List(context.Context) ([]Customer, error) { return f.list, f.err }

func (f *fakeSource) Upsert(_ context.Context, c domain.CustomerContact) (Customer, error) {
	if f.err != nil {
		return Customer{}, f.err
	}
	f.upserts = append(f.upserts, c)
	return Customer{ID: "id-" + c.Name, Name: c.Name, Phone: c.Phone}, nil
}

type memCache struct{ saved []Customer }

func (m *memCache) LoadCustomers(context.Context) ([]Customer, error) { return m.saved, nil }
func (m *memCache) SaveCustomers(_ context.Context, l []Customer) error {
	m.saved = append([]Customer(nil), l...)
	return nil
}

func TestDirectoryFallsBackToLastList(t *testing.T) {
	src := &fakeSource{list: []Customer{{ID: "c1", Name: "Alice"}}}
	cache := &memCache{}
	d := NewDirectory(src, cache, logger.Nop())
	ctx := context.Background()

	assert.Len(t, d.List(ctx), 1)
	assert.Len(t, cache.saved, 1)

	src.list = nil
	got := d.List(ctx)
	require.Len(t, got, 1, "empty source serves the cache")
	assert.Equal(t, "Alice", got[0].Name)

	src.err = errors.New("down")
	assert.Len(t, d.List(ctx), 1, "failing source serves the cache")

	name, ok := d.CustomerLabel("c1")
	assert.True(t, ok)
	assert.Equal(t, "Alice", name)
}

func TestDirectoryWarmFromCache(t *testing.T) {
	cache := &memCache{saved: []Customer{{ID: "c7", Name: "Cached"}}}
	d := NewDirectory(nil, cache, logger.Nop())
	d.Warm(context.Background())

	assert.Equal(t, 1, d.Count())
	_, ok := d.Lookup("c7")
	assert.True(t, ok)
	assert.False(t, d.HasSource())
}

func TestDirectorySync(t *testing.T) {
	src := &fakeSource{}
	d := NewDirectory(src, nil, logger.Nop())

	got, err := d.Sync(context.Background(), domain.CustomerContact{Name: "Jane", Phone: "1"})
	require.NoError(t, err)
	assert.Equal(t, "id-Jane", got.ID)
	assert.Len(t, src.upserts, 1)
	assert.Equal(t, 1, d.Count())

	src.err = errors.New("down")
	_, err = d.Sync(context.Background(), domain.CustomerContact{Name: "Jane"})
	assert.Error(t, err)
}

func TestDirectorySyncWithoutSourceMerges(t *testing.T) {
	d := NewDirectory(nil, nil, logger.Nop())
	ctx := context.Background()

	first, err := d.Sync(ctx, domain.CustomerContact{Name: "Jane", Phone: "555", Vehicle: "Civic"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := d.Sync(ctx, domain.CustomerContact{Name: "jane", Email: "j@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "555", second.Phone, "blank phone does not overwrite")
	assert.Equal(t, "j@example.com", second.Email)
	assert.Equal(t, 1, d.Count())
}
