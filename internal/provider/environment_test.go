package provider_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/walletgate/internal/provider"
	"github.com/mrz1836/walletgate/internal/provider/providertest"
)

func TestMapEnvironment(t *testing.T) {
	t.Parallel()

	a := providertest.Authorized("0xAA")
	env := provider.NewMapEnvironment(map[string]provider.Wallet{
		"a":   a,
		"nil": nil,
	})
	assert.Equal(t, []string{"a"}, env.Bindings())

	got, ok := env.Lookup("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	b := providertest.Fresh("0xBB")
	env.Inject("b", b)
	assert.Equal(t, []string{"a", "b"}, env.Bindings())

	env.Inject("a", nil)
	_, ok = env.Lookup("a")
	assert.False(t, ok)

	env.Remove("b")
	env.Remove("missing")
	assert.Empty(t, env.Bindings())
}

func TestMapEnvironment_Concurrent(t *testing.T) {
	t.Parallel()

	env := provider.NewMapEnvironment(nil)
	w := providertest.Authorized("0xAA")

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if i%2 == 0 {
					env.Inject("x", w)
				} else {
					env.Remove("x")
				}
				_, _ = env.Lookup("x")
			}
		}()
	}
	wg.Wait()
}

func TestLayered(t *testing.T) {
	t.Parallel()

	first := providertest.Authorized("0x01")
	second := providertest.Authorized("0x02")
	env := provider.Layered(
		nil,
		provider.NewMapEnvironment(map[string]provider.Wallet{"x": first}),
		provider.NewMapEnvironment(map[string]provider.Wallet{"x": second, "y": second}),
	)

	got, ok := env.Lookup("x")
	require.True(t, ok)
	assert.Same(t, first, got)

	got, ok = env.Lookup("y")
	require.True(t, ok)
	assert.Same(t, second, got)

	_, ok = env.Lookup("z")
	assert.False(t, ok)
}

func TestEnvironmentFunc(t *testing.T) {
	t.Parallel()

	w := providertest.Fresh()
	env := provider.EnvironmentFunc(func(binding string) (provider.Wallet, bool) {
		return w, binding == "only"
	})
	_, ok := env.Lookup("only")
	assert.True(t, ok)
	_, ok = env.Lookup("other")
	assert.False(t, ok)
}
