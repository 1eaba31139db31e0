package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisReportCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisReportCache(client, 15*time.Minute), mr
}

func seed(t *testing.T, c *RedisReportCache, keys ...domain.ReportImageKey) {
	t.Helper()
	ctx := context.Background()
	for _, k := range keys {
		gen, err := c.Generation(ctx, k.UserID)
		require.NoError(t, err)
		stored, err := c.Set(ctx, k, gen, []byte("png:"+k.String()))
		require.NoError(t, err)
		require.True(t, stored)
	}
}

func TestRedisReportCache_GetSet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	key := domain.ReportImageKey{Type: domain.ChartMonthly, UserID: 42, Year: 2024, Month: 12}

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := c.Set(ctx, key, 0, []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	require.True(t, stored)
	img, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, img)

	assert.Equal(t, 15*time.Minute, mr.TTL(key.String()))

	mr.FastForward(16 * time.Minute)
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisReportCache_SetAfterInvalidateIsDropped(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	key := domain.ReportImageKey{Type: domain.ChartMonthly, UserID: 42, Year: 2024, Month: 12}

	gen, err := c.Generation(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	// a write lands while the image is being drawn
	require.NoError(t, c.Invalidate(ctx, 42, 2024, 12))

	stored, err := c.Set(ctx, key, gen, []byte("stale"))
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists(key.String()))

	gen, err = c.Generation(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	stored, err = c.Set(ctx, key, gen, []byte("fresh"))
	require.NoError(t, err)
	assert.True(t, stored)

	// other users keep their own counter
	otherGen, err := c.Generation(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), otherGen)
}

func TestRedisReportCache_InvalidateMonth(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	dec := domain.ReportImageKey{Type: domain.ChartDaily, UserID: 42, Year: 2024, Month: 12}
	nov := domain.ReportImageKey{Type: domain.ChartDaily, UserID: 42, Year: 2024, Month: 11}
	yearly := domain.ReportImageKey{Type: domain.ChartYearly, UserID: 42, Year: 2024}
	lastYear := domain.ReportImageKey{Type: domain.ChartYearly, UserID: 42, Year: 2023}
	otherUser := domain.ReportImageKey{Type: domain.ChartDaily, UserID: 7, Year: 2024, Month: 12}
	seed(t, c, dec, nov, yearly, lastYear, otherUser)

	require.NoError(t, c.Invalidate(ctx, 42, 2024, 12))

	assert.False(t, mr.Exists(dec.String()))
	assert.False(t, mr.Exists(yearly.String()))
	assert.True(t, mr.Exists(nov.String()))
	assert.True(t, mr.Exists(lastYear.String()))
	assert.True(t, mr.Exists(otherUser.String()))
}

func TestRedisReportCache_InvalidateYear(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	dec := domain.ReportImageKey{Type: domain.ChartMonthly, UserID: 42, Year: 2024, Month: 12}
	jan := domain.ReportImageKey{Type: domain.ChartIncomeExpenseDaily, UserID: 42, Year: 2024, Month: 1}
	yearly := domain.ReportImageKey{Type: domain.ChartIncomeExpenseMonthly, UserID: 42, Year: 2024}
	lastYear := domain.ReportImageKey{Type: domain.ChartMonthly, UserID: 42, Year: 2023, Month: 12}
	// user id equal to the year must not be caught by the pattern
	userNamedLikeYear := domain.ReportImageKey{Type: domain.ChartMonthly, UserID: 2024, Year: 2024, Month: 1}
	seed(t, c, dec, jan, yearly, lastYear, userNamedLikeYear)

	require.NoError(t, c.Invalidate(ctx, 42, 2024, 0))

	assert.False(t, mr.Exists(dec.String()))
	assert.False(t, mr.Exists(jan.String()))
	assert.False(t, mr.Exists(yearly.String()))
	assert.True(t, mr.Exists(lastYear.String()))
	assert.True(t, mr.Exists(userNamedLikeYear.String()))
}

func TestRedisReportCache_InvalidateUser(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	mine := []domain.ReportImageKey{
		{Type: domain.ChartMonthly, UserID: 42, Year: 2024, Month: 12},
		{Type: domain.ChartYearly, UserID: 42, Year: 2023},
	}
	other := domain.ReportImageKey{Type: domain.ChartMonthly, UserID: 142, Year: 2024, Month: 12}
	seed(t, c, append(mine, other)...)

	require.NoError(t, c.Invalidate(ctx, 42, 0, 0))

	for _, k := range mine {
		assert.False(t, mr.Exists(k.String()), k.String())
	}
	assert.True(t, mr.Exists(other.String()))
}

func TestNoopReportCache(t *testing.T) {
	var c domain.ReportImageCache = NoopReportCache{}
	ctx := context.Background()
	key := domain.ReportImageKey{Type: domain.ChartYearly, UserID: 1, Year: 2024}

	stored, err := c.Set(ctx, key, 0, []byte("x"))
	require.NoError(t, err)
	assert.False(t, stored)
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx, 1, 0, 0))
}
