package provider_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/walletgate/internal/account"
	"github.com/mrz1836/walletgate/internal/provider"
	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

func TestStaticWallet_PromptGrantsPermission(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w := provider.NewStaticWallet([]account.Account{"0xAA", "0xBB"})

	ok, err := w.HasPermissions(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	accounts, err := w.GetAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	res, err := w.RequestPermissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []account.Account{"0xAA", "0xBB"}, res.Accounts)

	ok, err = w.HasPermissions(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	w.Revoke()
	ok, err = w.HasPermissions(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStaticWallet_Options(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pre := provider.NewStaticWallet([]account.Account{"0xAA"}, provider.Preauthorized())
	accounts, err := pre.GetAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []account.Account{"0xAA"}, accounts)

	rej := provider.NewStaticWallet([]account.Account{"0xAA"}, provider.RejectPrompts())
	_, err = rej.RequestPermissions(ctx)
	require.ErrorIs(t, err, gateerr.ErrUserRejected)
	assert.True(t, provider.IsUserRejection(err))
}

func TestStaticWallet_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := provider.NewStaticWallet(nil, provider.Preauthorized())
	_, err := w.HasPermissions(ctx)
	require.ErrorIs(t, err, context.Canceled)
	_, err = w.RequestPermissions(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
