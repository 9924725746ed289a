package gallery_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/jan-imagegen/internal/domain/gallery"
	"github.com/janhq/jan-imagegen/internal/infrastructure/kvstore"
	"github.com/janhq/jan-imagegen/internal/utils/platformerrors"
)

type MockAssetDeleter struct {
	DeleteImagesFunc func(ctx context.Context, ids []string) error
	Calls            [][]string
}

func (m *MockAssetDeleter) DeleteImages(ctx context.Context, ids []string) error {
	m.Calls = append(m.Calls, ids)
	if m.DeleteImagesFunc != nil {
		return m.DeleteImagesFunc(ctx, ids)
	}
	return nil
}

type MockAlerter struct {
	Messages []string
}

func (m *MockAlerter) Alert(ctx context.Context, message string) {
	m.Messages = append(m.Messages, message)
}

type statusErr struct{ code int }

func (e statusErr) Error() string   { return "status" }
func (e statusErr) HTTPStatus() int { return e.code }

func seed(t *testing.T, store *gallery.Store, records ...gallery.ImageRecord) {
	t.Helper()
	// Add prepends, so insert oldest first.
	for i := len(records) - 1; i >= 0; i-- {
		require.NoError(t, store.Add(context.Background(), records[i]))
	}
}

var fixtures = []gallery.ImageRecord{
	{ImageURL: "http://h/images/original_a.png", Prompt: "a cat", Description: "cat", RefinedPrompt: "a fluffy cat", AspectRatio: "1:1"},
	{ImageURL: "http://h/images/original_b.png", Prompt: "a dog", AspectRatio: "16:9"},
	{ImageURL: "http://h/images/c.png", Prompt: "a bird"},
}

func TestStore_AddPrependsAndPersists(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	store := gallery.NewStore(kv, &MockAssetDeleter{})

	require.NoError(t, store.Add(ctx, fixtures[1]))
	require.NoError(t, store.Add(ctx, fixtures[0]))

	// A fresh store over the same storage simulates a page reload.
	reloaded := gallery.NewStore(kv, &MockAssetDeleter{})
	got, err := reloaded.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []gallery.ImageRecord{fixtures[0], fixtures[1]}, got)
}

func TestStore_AddAllowsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := gallery.NewStore(kvstore.NewMemoryStore(), &MockAssetDeleter{})
	require.NoError(t, store.Add(ctx, fixtures[0]))
	require.NoError(t, store.Add(ctx, fixtures[0]))

	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestStore_AddRejectsEmptyURL(t *testing.T) {
	store := gallery.NewStore(kvstore.NewMemoryStore(), &MockAssetDeleter{})
	err := store.Add(context.Background(), gallery.ImageRecord{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, gallery.ErrInvalidRecord)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestStore_ListEmptyAndCorrupt(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	store := gallery.NewStore(kv, &MockAssetDeleter{})

	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, kv.Set(ctx, gallery.ImagesKey, "null"))
	got, err = store.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	require.NoError(t, kv.Set(ctx, gallery.ImagesKey, "{broken"))
	_, err = store.List(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, gallery.ErrCorruptGallery)
}

func TestStore_ReadsBrowserShapedJSON(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, gallery.ImagesKey,
		`[{"imageUrl":"http://h/images/original_x.png","prompt":"p","description":"d","refinedPrompt":"rp","aspectRatio":"4:3"}]`))

	got, err := gallery.NewStore(kv, &MockAssetDeleter{}).List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, gallery.ImageRecord{
		ImageURL: "http://h/images/original_x.png", Prompt: "p", Description: "d", RefinedPrompt: "rp", AspectRatio: "4:3",
	}, got[0])
}

func TestStore_Remove(t *testing.T) {
	for i := range fixtures {
		t.Run(fixtures[i].Prompt, func(t *testing.T) {
			ctx := context.Background()
			deleter := &MockAssetDeleter{}
			store := gallery.NewStore(kvstore.NewMemoryStore(), deleter)
			seed(t, store, fixtures...)

			require.NoError(t, store.Remove(ctx, i))

			want := slices.Delete(slices.Clone(fixtures), i, i+1)
			got, err := store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			require.Len(t, deleter.Calls, 1)
			assert.Equal(t, gallery.AssetIDs(fixtures[i].ImageURL), deleter.Calls[0])
		})
	}
}

func TestStore_RemoveSendsBothAssetIDs(t *testing.T) {
	deleter := &MockAssetDeleter{}
	store := gallery.NewStore(kvstore.NewMemoryStore(), deleter)
	seed(t, store, fixtures...)

	require.NoError(t, store.Remove(context.Background(), 0))
	assert.Equal(t, [][]string{{"original_a.png", "a.png"}}, deleter.Calls)
}

func TestStore_RemoveOutOfRange(t *testing.T) {
	deleter := &MockAssetDeleter{}
	store := gallery.NewStore(kvstore.NewMemoryStore(), deleter)
	seed(t, store, fixtures...)

	for _, idx := range []int{-1, 3, 100} {
		err := store.Remove(context.Background(), idx)
		require.Error(t, err)
		assert.ErrorIs(t, err, gallery.ErrIndexOutOfRange)
		assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
	}
	assert.Empty(t, deleter.Calls)
}

func TestStore_RemoveFailureRetainsRecord(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"backend rejects", statusErr{code: 500}, gallery.MsgDeleteRejected},
		{"transport fails", errors.New("connection refused"), gallery.MsgDeleteFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			alerter := &MockAlerter{}
			deleter := &MockAssetDeleter{DeleteImagesFunc: func(ctx context.Context, ids []string) error { return tt.err }}
			store := gallery.NewStore(kvstore.NewMemoryStore(), deleter, gallery.WithAlerter(alerter))
			seed(t, store, fixtures...)

			err := store.Remove(ctx, 1)
			require.Error(t, err)
			assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))
			assert.ErrorIs(t, err, tt.err)

			got, err := store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, fixtures, got)
			assert.Equal(t, []string{tt.message}, alerter.Messages)
		})
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	deleter := &MockAssetDeleter{}
	var sizes []int
	store := gallery.NewStore(kvstore.NewMemoryStore(), deleter,
		gallery.WithChangeHook(func(ctx context.Context, count int) { sizes = append(sizes, count) }))
	seed(t, store, fixtures...)

	require.NoError(t, store.Clear(ctx))

	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.Len(t, deleter.Calls, 1)
	assert.Equal(t, []string{"original_a.png", "a.png", "original_b.png", "b.png", "c.png"}, deleter.Calls[0])
	assert.Equal(t, []int{1, 2, 3, 0}, sizes)
}

func TestStore_ClearFailureLeavesCollection(t *testing.T) {
	ctx := context.Background()
	alerter := &MockAlerter{}
	deleter := &MockAssetDeleter{DeleteImagesFunc: func(ctx context.Context, ids []string) error { return statusErr{code: 400} }}
	store := gallery.NewStore(kvstore.NewMemoryStore(), deleter, gallery.WithAlerter(alerter))
	seed(t, store, fixtures...)

	require.Error(t, store.Clear(ctx))

	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, fixtures, got)
	assert.Equal(t, []string{gallery.MsgClearRejected}, alerter.Messages)
}

func TestStore_ClearEmptyIsNoop(t *testing.T) {
	deleter := &MockAssetDeleter{}
	store := gallery.NewStore(kvstore.NewMemoryStore(), deleter)
	require.NoError(t, store.Clear(context.Background()))
	assert.Empty(t, deleter.Calls)
}

func TestStore_Render(t *testing.T) {
	ctx := context.Background()
	store := gallery.NewStore(kvstore.NewMemoryStore(), &MockAssetDeleter{})

	view, err := store.Render(ctx)
	require.NoError(t, err)
	assert.False(t, view.ShowClear)
	assert.Zero(t, view.Count)
	assert.Empty(t, slices.Collect(view.Thumbnails))

	seed(t, store, fixtures...)
	view, err = store.Render(ctx)
	require.NoError(t, err)
	assert.True(t, view.ShowClear)
	assert.Equal(t, 3, view.Count)

	thumbs := slices.Collect(view.Thumbnails)
	require.Len(t, thumbs, 3)
	assert.Equal(t, gallery.Thumbnail{Index: 0, ImageURL: fixtures[0].ImageURL, AspectRatio: "1:1", Caption: "Aspect Ratio: 1:1"}, thumbs[0])
	assert.Equal(t, "Aspect Ratio: 16:9", thumbs[1].Caption)
	assert.Empty(t, thumbs[2].Caption)
}

func TestStore_Detail(t *testing.T) {
	ctx := context.Background()
	fixed := time.UnixMilli(1700000000123)
	store := gallery.NewStore(kvstore.NewMemoryStore(), &MockAssetDeleter{}, gallery.WithClock(func() time.Time { return fixed }))
	seed(t, store, fixtures...)

	detail, err := store.Detail(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "http://h/images/a.png", detail.DownloadURL)
	assert.Equal(t, "image_1700000000123.png", detail.DownloadName)
	assert.True(t, detail.ShowRefinedPrompt)
	assert.True(t, detail.ShowDescription)

	_, err = store.Detail(ctx, 9)
	assert.ErrorIs(t, err, gallery.ErrIndexOutOfRange)
}

func TestStore_RemoveWithoutAssetIDsKeepsRecord(t *testing.T) {
	ctx := context.Background()
	alerter := &MockAlerter{}
	deleter := &MockAssetDeleter{}
	store := gallery.NewStore(kvstore.NewMemoryStore(), deleter, gallery.WithAlerter(alerter))
	broken := gallery.ImageRecord{ImageURL: "http://h/images/", Prompt: "no name"}
	seed(t, store, broken)

	err := store.Remove(ctx, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, gallery.ErrNoAssetIDs)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
	assert.Empty(t, deleter.Calls)
	assert.Equal(t, []string{gallery.MsgNoAssetIDs}, alerter.Messages)

	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []gallery.ImageRecord{broken}, got)
}

func TestStore_ClearKeepsRecordsWithoutAssetIDs(t *testing.T) {
	broken := gallery.ImageRecord{ImageURL: "http://h/images/", Prompt: "no name"}

	t.Run("mixed", func(t *testing.T) {
		ctx := context.Background()
		deleter := &MockAssetDeleter{}
		store := gallery.NewStore(kvstore.NewMemoryStore(), deleter)
		seed(t, store, fixtures[0], broken, fixtures[2])

		require.NoError(t, store.Clear(ctx))

		require.Len(t, deleter.Calls, 1)
		assert.Equal(t, []string{"original_a.png", "a.png", "c.png"}, deleter.Calls[0])
		got, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []gallery.ImageRecord{broken}, got)
	})

	t.Run("only underivable", func(t *testing.T) {
		ctx := context.Background()
		alerter := &MockAlerter{}
		deleter := &MockAssetDeleter{DeleteImagesFunc: func(ctx context.Context, ids []string) error {
			return errors.New("unexpected delete")
		}}
		store := gallery.NewStore(kvstore.NewMemoryStore(), deleter, gallery.WithAlerter(alerter))
		seed(t, store, broken)

		err := store.Clear(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, gallery.ErrNoAssetIDs)
		assert.Empty(t, deleter.Calls)
		assert.Equal(t, []string{gallery.MsgNoAssetIDs}, alerter.Messages)

		got, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []gallery.ImageRecord{broken}, got)
	})
}
