//go:build integration

package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sahakosh/pkg/platform/sentinel"
	"sahakosh/pkg/testutil/containers"
)

func TestRedis_RoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedis(rc.Client)
	ctx := context.Background()

	doc := Document{
		"id":      "tx-1",
		"from_id": "c-1",
		"to_id":   "v-1",
		"amount":  float64(75),
	}
	require.NoError(t, store.Set(ctx, KindTransaction, "tx-1", doc))

	got, err := store.Get(ctx, KindTransaction, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	_, err = store.Get(ctx, KindTransaction, "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedis_QueryByField(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedis(rc.Client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KindTransaction, "tx-1", Document{"id": "tx-1", "from_id": "c-1"}))
	require.NoError(t, store.Set(ctx, KindTransaction, "tx-2", Document{"id": "tx-2", "from_id": "c-2"}))

	docs, err := store.QueryByField(ctx, KindTransaction, "from_id", "c-1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "tx-1", docs[0]["id"])
}

func TestRedis_UpdateAndArrayUnion(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedis(rc.Client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KindCitizen, "c-1", Document{
		"wallet_info": map[string]any{
			"personal_wallet": map[string]any{
				"balance":         float64(100),
				"transaction_ids": []any{},
			},
		},
	}))

	require.NoError(t, store.Update(ctx, KindCitizen, "c-1", map[string]any{
		"wallet_info.personal_wallet.balance": float64(40),
	}))
	require.NoError(t, store.ArrayUnion(ctx, KindCitizen, "c-1", "wallet_info.personal_wallet.transaction_ids", []any{"tx-1", "tx-1"}))

	doc, err := store.Get(ctx, KindCitizen, "c-1")
	require.NoError(t, err)
	balance, _ := resolvePath(doc, "wallet_info.personal_wallet.balance")
	assert.Equal(t, float64(40), balance)
	ids, _ := resolvePath(doc, "wallet_info.personal_wallet.transaction_ids")
	assert.Equal(t, []any{"tx-1"}, ids)

	err = store.Update(ctx, KindCitizen, "missing", map[string]any{"wallet_info.personal_wallet.balance": float64(1)})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedis_ApplyBatch_Atomic(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedis(rc.Client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KindCitizen, "c-1", Document{
		"wallet_info": map[string]any{"personal_wallet": map[string]any{"balance": float64(100)}},
	}))

	err := store.ApplyBatch(ctx, []Op{
		{Kind: KindCitizen, ID: "c-1", Fields: map[string]any{"wallet_info.personal_wallet.balance": float64(0)}},
		{Kind: KindVendor, ID: "missing", Fields: map[string]any{"wallet_info.balance": float64(100)}},
	})
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	doc, err := store.Get(ctx, KindCitizen, "c-1")
	require.NoError(t, err)
	balance, _ := resolvePath(doc, "wallet_info.personal_wallet.balance")
	assert.Equal(t, float64(100), balance, "aborted batch must leave records untouched")
}

func TestRedis_ApplyBatch_Incr(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedis(rc.Client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KindCitizen, "c-1", Document{
		"wallet_info": map[string]any{"personal_wallet": map[string]any{"balance": float64(100)}},
	}))

	require.NoError(t, store.ApplyBatch(ctx, []Op{
		{Kind: KindCitizen, ID: "c-1", Incr: map[string]float64{"wallet_info.personal_wallet.balance": -25}},
	}))

	err := store.ApplyBatch(ctx, []Op{
		{Kind: KindCitizen, ID: "c-1", Incr: map[string]float64{"wallet_info.personal_wallet.balance": -100}},
	})
	require.ErrorIs(t, err, ErrBelowZero)

	doc, err := store.Get(ctx, KindCitizen, "c-1")
	require.NoError(t, err)
	balance, _ := resolvePath(doc, "wallet_info.personal_wallet.balance")
	assert.Equal(t, float64(75), balance)
}

func TestRedis_DeleteRemovesIndexEntry(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedis(rc.Client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KindScheme, "s-1", Document{"id": "s-1"}))
	require.NoError(t, store.Delete(ctx, KindScheme, "s-1"))

	docs, err := store.ListAll(ctx, KindScheme)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
