package cache

import (
	"context"
	"time"
)

// Noop never stores anything. Used when caching is disabled.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (Noop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Close() error                                             { return nil }
