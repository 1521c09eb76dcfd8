package domain

import "errors"

var (
	ErrUnsupportedEventType = errors.New("unsupported event type")
	ErrUnsupportedAction    = errors.New("unsupported action")
	ErrUnsupportedAssetType = errors.New("unsupported asset type")
	ErrMissingColumns       = errors.New("missing required columns")
	ErrTemplatesCreated     = errors.New("raw templates created, fill and rerun")
)
