package gallery

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/jan-imagegen/internal/domain/kv"
	"github.com/janhq/jan-imagegen/internal/utils/platformerrors"
)

// AssetDeleter removes generated assets from the backend.
type AssetDeleter interface {
	DeleteImages(ctx context.Context, ids []string) error
}

// Alerter surfaces a user-facing message.
type Alerter interface {
	Alert(ctx context.Context, message string)
}

// Store owns the persisted list of image records, newest first.
//
// Every read-modify-write cycle, including the backend deletion it waits on,
// runs under one mutex so positional indexes stay stable for its duration.
type Store struct {
	kv       kv.Store
	deleter  AssetDeleter
	alerter  Alerter
	log      zerolog.Logger
	now      func() time.Time
	onChange func(ctx context.Context, count int)

	mu sync.Mutex
}

type Option func(*Store)

func WithAlerter(a Alerter) Option {
	return func(s *Store) { s.alerter = a }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithClock overrides the clock used for download file names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithChangeHook registers fn to receive the collection size after each mutation.
func WithChangeHook(fn func(ctx context.Context, count int)) Option {
	return func(s *Store) { s.onChange = fn }
}

func NewStore(store kv.Store, deleter AssetDeleter, opts ...Option) *Store {
	s := &Store{
		kv:      store,
		deleter: deleter,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the records, most recent first.
func (s *Store) List(ctx context.Context) ([]ImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns the record at index.
func (s *Store) Get(ctx context.Context, index int) (ImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return ImageRecord{}, err
	}
	if err := checkIndex(ctx, index, len(records)); err != nil {
		return ImageRecord{}, err
	}
	return records[index], nil
}

// Add prepends record and persists the collection.
func (s *Store) Add(ctx context.Context, record ImageRecord) error {
	if record.ImageURL == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"cannot add image", ErrInvalidRecord, "")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return err
	}
	records = append([]ImageRecord{record}, records...)
	if err := s.save(ctx, records); err != nil {
		return err
	}

	s.log.Debug().Int("count", len(records)).Str("image_url", record.ImageURL).Msg("image added to gallery")
	s.changed(ctx, len(records))
	return nil
}

// Remove deletes the backend assets of the record at index and, only once the
// backend confirms, drops the record.
func (s *Store) Remove(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := checkIndex(ctx, index, len(records)); err != nil {
		return err
	}

	ids := AssetIDs(records[index].ImageURL)
	if len(ids) == 0 {
		s.notify(ctx, MsgNoAssetIDs)
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"delete image assets", ErrNoAssetIDs, "", map[string]any{"index": index, "image_url": records[index].ImageURL})
	}
	if err := s.deleter.DeleteImages(ctx, ids); err != nil {
		s.alert(ctx, err, MsgDeleteRejected, MsgDeleteFailed)
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"delete image assets", err, "", map[string]any{"index": index, "image_ids": ids})
	}

	records = append(records[:index], records[index+1:]...)
	if err := s.save(ctx, records); err != nil {
		return err
	}

	s.log.Debug().Int("index", index).Int("count", len(records)).Msg("image removed from gallery")
	s.changed(ctx, len(records))
	return nil
}

// Clear deletes every record's assets in one batch and drops those records
// once the backend confirms. Records whose URL yields no asset id are kept.
// An empty gallery sends nothing.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, 0, len(records)*2)
	var kept []ImageRecord
	for _, r := range records {
		rids := AssetIDs(r.ImageURL)
		if len(rids) == 0 {
			kept = append(kept, r)
			continue
		}
		ids = append(ids, rids...)
	}
	if len(ids) == 0 {
		s.notify(ctx, MsgNoAssetIDs)
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"clear image assets", ErrNoAssetIDs, "", map[string]any{"records": len(records)})
	}

	if err := s.deleter.DeleteImages(ctx, ids); err != nil {
		s.alert(ctx, err, MsgClearRejected, MsgClearFailed)
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"clear image assets", err, "", map[string]any{"records": len(records)})
	}

	if len(kept) > 0 {
		if err := s.save(ctx, kept); err != nil {
			return err
		}
		s.log.Warn().Int("removed", len(records)-len(kept)).Int("kept", len(kept)).Msg("gallery cleared except records without asset ids")
		s.changed(ctx, len(kept))
		return nil
	}

	if err := s.kv.Remove(ctx, ImagesKey); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			"remove gallery", err, "")
	}

	s.log.Debug().Int("removed", len(records)).Msg("gallery cleared")
	s.changed(ctx, 0)
	return nil
}

func (s *Store) load(ctx context.Context) ([]ImageRecord, error) {
	raw, ok, err := s.kv.Get(ctx, ImagesKey)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			"read gallery", err, "")
	}
	if !ok || raw == "" {
		return []ImageRecord{}, nil
	}

	var records []ImageRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			"decode gallery", fmt.Errorf("%w: %v", ErrCorruptGallery, err), "")
	}
	if records == nil {
		records = []ImageRecord{}
	}
	return records, nil
}

func (s *Store) save(ctx context.Context, records []ImageRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"encode gallery", err, "")
	}
	if err := s.kv.Set(ctx, ImagesKey, string(data)); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			"write gallery", err, "")
	}
	return nil
}

func (s *Store) alert(ctx context.Context, err error, rejected, failed string) {
	msg := failed
	if rejectedByBackend(err) {
		msg = rejected
	}
	s.log.Warn().Err(err).Msg(msg)
	s.notify(ctx, msg)
}

func (s *Store) notify(ctx context.Context, msg string) {
	if s.alerter != nil {
		s.alerter.Alert(ctx, msg)
	}
}

func (s *Store) changed(ctx context.Context, count int) {
	if s.onChange != nil {
		s.onChange(ctx, count)
	}
}

func checkIndex(ctx context.Context, index, length int) error {
	if index >= 0 && index < length {
		return nil
	}
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
		fmt.Sprintf("no image at index %d", index), ErrIndexOutOfRange, "", map[string]any{"index": index, "count": length})
}
