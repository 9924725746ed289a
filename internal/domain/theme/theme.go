// Package theme persists the light/dark UI preference.
package theme

import (
	"context"
	"fmt"
	"strings"

	"github.com/janhq/jan-imagegen/internal/domain/kv"
	"github.com/janhq/jan-imagegen/internal/utils/platformerrors"
)

// Key is the storage key holding the theme.
const Key = "theme"

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Default is used when nothing valid is stored.
const Default = Light

// Parse accepts light or dark, case-insensitively.
func Parse(raw string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(raw))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return "", fmt.Errorf("unknown theme %q (want light or dark)", raw)
}

type Service struct {
	kv kv.Store
}

func NewService(store kv.Store) *Service {
	return &Service{kv: store}
}

// Get returns the stored theme, or Default when unset or unrecognized.
func (s *Service) Get(ctx context.Context) (Theme, error) {
	raw, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return Default, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage, "read theme", err, "")
	}
	if !ok {
		return Default, nil
	}
	t, err := Parse(raw)
	if err != nil {
		return Default, nil
	}
	return t, nil
}

func (s *Service) Set(ctx context.Context, t Theme) error {
	if _, err := Parse(string(t)); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "set theme", err, "")
	}
	if err := s.kv.Set(ctx, Key, string(t)); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage, "write theme", err, "")
	}
	return nil
}
