package datalayer

import (
	"context"
	"testing"

	"gallery-be/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRegistry_Increment(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		v, err := r.Evaluate(ctx, "increment", nil)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestRegistry_Mod(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	ctx := context.Background()

	t.Run("NumbersAndStrings", func(t *testing.T) {
		v, err := r.Evaluate(ctx, "mod", map[string]interface{}{"key1": float64(17), "key2": "5"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)
	})

	bad := map[string]map[string]interface{}{
		"MissingKey1": {"key2": "5"},
		"MissingKey2": {"key1": 3},
		"ZeroDivisor": {"key1": 3, "key2": "0"},
		"Fractional":  {"key1": 3.5, "key2": 2},
		"NotNumeric":  {"key1": "three", "key2": 2},
		"WrongType":   {"key1": true, "key2": 2},
	}
	for name, params := range bad {
		params := params
		t.Run(name, func(t *testing.T) {
			_, err := r.Evaluate(ctx, "mod", params)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestRegistry_UnknownMacro(t *testing.T) {
	r := NewRegistry()
	_, err := r.Evaluate(context.Background(), "random", nil)
	assert.ErrorIs(t, err, ErrUnknownMacro)
}

func TestRegistry_Macros(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	assert.Equal(t, []string{"increment", "mod"}, r.Macros())
}

func TestRegistry_CustomTag(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	r := NewRegistry()
	RegisterDefaults(r)

	assert.Equal(t, 1, r.Fire(context.Background(), "custom_tag", nil))
	assert.Equal(t, 0, r.Fire(context.Background(), "refresh", nil))

	logs := observed.FilterMessage("custom function call tag fired").TakeAll()
	require.Len(t, logs, 1)
	assert.Equal(t, "custom_tag", logs[0].ContextMap()["tag"])
}

func TestRegistry_RegisterDefaultsAgain(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	ctx := context.Background()

	_, err := r.Evaluate(ctx, "increment", nil)
	require.NoError(t, err)

	var extra int
	r.RegisterTag("audit", "custom_tag", func(ctx context.Context, tag string, params map[string]interface{}) {
		extra++
	})
	RegisterDefaults(r)

	assert.Equal(t, 2, r.Fire(ctx, "custom_tag", nil))
	assert.Equal(t, 1, extra)

	v, err := r.Evaluate(ctx, "increment", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}
