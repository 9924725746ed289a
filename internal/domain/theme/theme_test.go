package theme_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/jan-imagegen/internal/domain/theme"
	"github.com/janhq/jan-imagegen/internal/infrastructure/kvstore"
	"github.com/janhq/jan-imagegen/internal/utils/platformerrors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw     string
		want    theme.Theme
		wantErr bool
	}{
		{"light", theme.Light, false},
		{"DARK", theme.Dark, false},
		{" dark ", theme.Dark, false},
		{"sepia", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := theme.Parse(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	svc := theme.NewService(kv)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, theme.Light, got)

	require.NoError(t, svc.Set(ctx, theme.Dark))
	got, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, theme.Dark, got)

	raw, ok, err := kv.Get(ctx, theme.Key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", raw)

	err = svc.Set(ctx, theme.Theme("sepia"))
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestService_UnknownStoredValueFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, theme.Key, "neon"))

	got, err := theme.NewService(kv).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, theme.Default, got)
}
