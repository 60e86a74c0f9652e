package app

import (
	"context"
	"time"

	"bookshelf/internal/controller"
	"bookshelf/internal/storage"
)

type notifierFunc func(msg string)

func (f notifierFunc) Notify(msg string, _ controller.Severity, _ time.Duration) { f(msg) }

func writeRaw(dir, key, value string) error {
	kv, err := storage.NewFileKV(dir)
	if err != nil {
		return err
	}
	return kv.Set(context.Background(), key, []byte(value))
}
