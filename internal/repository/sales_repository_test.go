package repository_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/repository"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/testutil"
)

// TestSalesRepository_ReplaceAndGet tests staging round trips.
//
// WHY: The analyzer enumerates products in first-appearance order, so records
// must come back in the order they were staged, with exact amounts.
func TestSalesRepository_ReplaceAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSalesRepository(db)
	ctx := context.Background()
	session := testutil.MakeID()

	records := []model.CanonicalRecord{
		{ProductName: "Zeta", OrderDate: testutil.BaseDate.AddDate(0, 0, 1), SalesAmount: decimal.RequireFromString("19.99")},
		{ProductName: "Alpha", OrderDate: testutil.BaseDate, SalesAmount: decimal.RequireFromString("0.1")},
	}
	require.NoError(t, repo.ReplaceSessionRecords(ctx, session, records))

	got, err := repo.GetRecords(ctx, session)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Zeta", got[0].ProductName)
	assert.Equal(t, testutil.BaseDate.AddDate(0, 0, 1), got[0].OrderDate)
	assert.True(t, got[0].SalesAmount.Equal(decimal.RequireFromString("19.99")))

	t.Run("replace swaps the whole table", func(t *testing.T) {
		require.NoError(t, repo.ReplaceSessionRecords(ctx, session, records[:1]))
		got, err := repo.GetRecords(ctx, session)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("unknown session is empty", func(t *testing.T) {
		got, err := repo.GetRecords(ctx, testutil.MakeID())
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("delete", func(t *testing.T) {
		n, err := repo.DeleteSession(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		testutil.AssertRowCount(t, db, "sales_record", 0)
	})
}

func TestSalesRepository_Aggregates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSalesRepository(db)
	ctx := context.Background()
	session := testutil.MakeID()

	var records []model.CanonicalRecord
	records = append(records, testutil.NewSales("B").Days(3).WithAmount(10).Build()...)
	records = append(records, testutil.NewSales("A").Days(2).WithAmount(15).Build()...)
	records = append(records, testutil.NewSales("C").Days(1).WithAmount(5).Build()...)
	require.NoError(t, repo.ReplaceSessionRecords(ctx, session, records))

	total, err := repo.TotalSales(ctx, session)
	require.NoError(t, err)
	assert.InDelta(t, 65.0, total, 1e-9)

	unique, err := repo.UniqueProducts(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 3, unique)

	top, err := repo.TopProducts(ctx, session, 2)
	require.NoError(t, err)
	// A and B tie at 30; ties are broken by name.
	assert.Equal(t, []model.ProductTotal{{ProductName: "A", Sales: 30}, {ProductName: "B", Sales: 30}}, top)

	daily, err := repo.DailyTotals(ctx, session)
	require.NoError(t, err)
	require.Len(t, daily, 3)
	assert.InDelta(t, 30.0, daily[0].Sales, 1e-9)
	assert.InDelta(t, 25.0, daily[1].Sales, 1e-9)
	assert.InDelta(t, 10.0, daily[2].Sales, 1e-9)

	names, err := repo.ProductNames(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, names)

	total, err = repo.TotalSales(ctx, testutil.MakeID())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestParseTime(t *testing.T) {
	got, err := repository.ParseTime("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Day())

	_, err = repository.ParseTime("05/03/2024")
	assert.Error(t, err)
}
