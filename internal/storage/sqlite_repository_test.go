package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lianbo/internal/domain"
)

func openTemp(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "news.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func record(date, title, link, itemNumber string, total int) domain.NewsRecord {
	return domain.NewsRecord{
		Date:       date,
		Title:      title,
		Link:       link,
		ItemNumber: itemNumber,
		TotalItems: total,
		Content:    "正文 " + title,
	}
}

func TestUpsertReplacesByLink(t *testing.T) {
	t.Parallel()

	repo := openTemp(t)
	ctx := context.Background()

	link := "https://tv.cctv.com/2024/01/01/VIDEabc.shtml"
	require.NoError(t, repo.Upsert(ctx, record("2024-01-01", "旧标题", link, "1/1", 1)))
	require.NoError(t, repo.Upsert(ctx, record("2024-01-01", "新标题", link, "1/1", 1)))

	records, err := repo.ListByDate(ctx, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "新标题", records[0].Title)
	assert.Equal(t, "正文 新标题", records[0].Content)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestHasDay(t *testing.T) {
	t.Parallel()

	repo := openTemp(t)
	ctx := context.Background()

	got, err := repo.HasDay(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.False(t, got)

	require.NoError(t, repo.Upsert(ctx, record("2024-01-01", "标题", "https://tv.cctv.com/a", "1/1", 1)))

	got, err = repo.HasDay(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = repo.HasDay(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestListByDateOrdersNumerically(t *testing.T) {
	t.Parallel()

	repo := openTemp(t)
	ctx := context.Background()

	// inserted out of order; "10" must sort after "2", not before
	for _, n := range []string{"10/12", "2/12", "1/12"} {
		rec := record("2024-01-01", "条目 "+n, "https://tv.cctv.com/"+n, n, 12)
		require.NoError(t, repo.Upsert(ctx, rec))
	}

	records, err := repo.ListByDate(ctx, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "1/12", records[0].ItemNumber)
	assert.Equal(t, "2/12", records[1].ItemNumber)
	assert.Equal(t, "10/12", records[2].ItemNumber)
}

func TestListByDateEmptyDay(t *testing.T) {
	t.Parallel()

	repo := openTemp(t)

	records, err := repo.ListByDate(context.Background(), "1999-12-31")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetByID(t *testing.T) {
	t.Parallel()

	repo := openTemp(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, record("2024-01-01", "标题", "https://tv.cctv.com/a", "1/1", 1)))

	records, err := repo.ListByDate(ctx, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec, err := repo.GetByID(ctx, records[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "标题", rec.Title)
	assert.Equal(t, 1, rec.TotalItems)

	_, err = repo.GetByID(ctx, records[0].ID+1000)
	assert.ErrorIs(t, err, ErrNotFound)
}
