package history

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/footprint-estimator/internal/carbon"
)

func quickRecord(t *testing.T, userID string, createdAt time.Time) Record {
	t.Helper()

	in := carbon.QuickInput{Commute: "scooter_gas", Diet: "meat_heavy", Shopping: "high"}
	result := carbon.NewQuickEstimator(carbon.FallbackTable(), nil).Estimate(context.Background(), in)

	r, err := NewRecord(userID, in, result)
	require.NoError(t, err)
	r.CreatedAt = createdAt
	return r
}

func TestNewRecord(t *testing.T) {
	in := carbon.QuickInput{Commute: "scooter_gas", Diet: "meat_heavy", Shopping: "high"}
	result := carbon.NewQuickEstimator(carbon.FallbackTable(), nil).Estimate(context.Background(), in)

	r, err := NewRecord("user-1", in, result)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, "user-1", r.UserID)
	assert.Equal(t, carbon.ModeQuick, r.LogType)
	assert.JSONEq(t, `{"commute":"scooter_gas","diet":"meat_heavy","shopping":"high"}`, string(r.InputData))
	assert.JSONEq(t, `{"transport":230,"diet":2372.5,"consumption":432}`, string(r.Breakdown))
	assert.Equal(t, 3034.5, r.Total)
	assert.Equal(t, result.Suggestion, r.Suggestion)
	assert.WithinDuration(t, time.Now(), r.CreatedAt, time.Minute)
}

func TestNewRecord_Detailed(t *testing.T) {
	in := carbon.DetailedInput{
		Energy:      carbon.EnergyInput{Electricity: carbon.NewQuantity(100), Water: carbon.NewQuantity(0), Gas: carbon.NewQuantity(0)},
		Transport:   carbon.TransportInput{Type: "bike", Km: carbon.NewQuantity(50)},
		Diet:        carbon.DietInput{Meat: carbon.NewQuantity(0), Veg: carbon.NewQuantity(14)},
		Consumption: carbon.ConsumptionInput{Clothes: carbon.NewQuantity(0), Electronics: carbon.NewQuantity(0)},
		Waste:       carbon.WasteInput{Bags: carbon.NewQuantity(1), Recycle: carbon.NewQuantity(1)},
	}
	result, err := carbon.NewDetailedEstimator(carbon.FallbackTable(), nil).Estimate(context.Background(), in)
	require.NoError(t, err)

	r, err := NewRecord("user-2", in, result)
	require.NoError(t, err)

	assert.Equal(t, carbon.ModeDetailed, r.LogType)

	var decoded carbon.DetailedInput
	require.NoError(t, json.Unmarshal(r.InputData, &decoded))
	km, err := decoded.Transport.Km.Value()
	require.NoError(t, err)
	assert.Equal(t, 50.0, km)
	assert.False(t, decoded.Diet.Grain.Present())
}

// repositoryContract exercises the behavior every Repository must share.
func repositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty user", func(t *testing.T) {
		repo := newRepo(t)

		records, err := repo.ListByUser(ctx, "nobody", 0)
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("newest first per user", func(t *testing.T) {
		repo := newRepo(t)

		older := quickRecord(t, "alice", base)
		newer := quickRecord(t, "alice", base.Add(time.Hour))
		other := quickRecord(t, "bob", base.Add(2*time.Hour))
		require.NoError(t, repo.Save(ctx, older))
		require.NoError(t, repo.Save(ctx, other))
		require.NoError(t, repo.Save(ctx, newer))

		records, err := repo.ListByUser(ctx, "alice", 0)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, newer.ID, records[0].ID)
		assert.Equal(t, older.ID, records[1].ID)

		assert.Equal(t, "alice", records[0].UserID)
		assert.Equal(t, carbon.ModeQuick, records[0].LogType)
		assert.Equal(t, 3034.5, records[0].Total)
		assert.JSONEq(t, string(newer.Breakdown), string(records[0].Breakdown))
		assert.JSONEq(t, string(newer.InputData), string(records[0].InputData))
		assert.True(t, newer.CreatedAt.Equal(records[0].CreatedAt))
	})

	t.Run("limit", func(t *testing.T) {
		repo := newRepo(t)

		for i := 0; i < 5; i++ {
			require.NoError(t, repo.Save(ctx, quickRecord(t, "carol", base.Add(time.Duration(i)*time.Minute))))
		}

		records, err := repo.ListByUser(ctx, "carol", 2)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.True(t, records[0].CreatedAt.Equal(base.Add(4*time.Minute)))
		assert.True(t, records[1].CreatedAt.Equal(base.Add(3*time.Minute)))

		all, err := repo.ListByUser(ctx, "carol", -1)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("concurrent saves", func(t *testing.T) {
		repo := newRepo(t)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, repo.Save(ctx, quickRecord(t, "dave", base.Add(time.Duration(i)*time.Second))))
			}(i)
		}
		wg.Wait()

		records, err := repo.ListByUser(ctx, "dave", 0)
		require.NoError(t, err)
		assert.Len(t, records, 20)
	})
}

func TestMemoryRepository(t *testing.T) {
	repositoryContract(t, func(t *testing.T) Repository {
		return NewMemoryRepository()
	})
}

func TestFileRepository(t *testing.T) {
	repositoryContract(t, func(t *testing.T) Repository {
		repo, err := NewFileRepository(filepath.Join(t.TempDir(), "nested", "history.jsonl"), zerolog.Nop())
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	})
}

func TestFileRepository_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.jsonl")

	first, err := NewFileRepository(path, zerolog.Nop())
	require.NoError(t, err)
	saved := quickRecord(t, "erin", time.Now().UTC())
	require.NoError(t, first.Save(ctx, saved))
	require.NoError(t, first.Close())

	second, err := NewFileRepository(path, zerolog.Nop())
	require.NoError(t, err)

	records, err := second.ListByUser(ctx, "erin", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, saved.ID, records[0].ID)
}

func TestFileRepository_SkipsCorruptLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.jsonl")

	repo, err := NewFileRepository(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, quickRecord(t, "frank", time.Now().UTC())))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, repo.Save(ctx, quickRecord(t, "frank", time.Now().UTC())))

	records, err := repo.ListByUser(ctx, "frank", 0)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestNewFileRepository_EmptyPath(t *testing.T) {
	_, err := NewFileRepository("", zerolog.Nop())
	assert.Error(t, err)
}
