//go:build js && wasm

package kv

import (
	"context"
	"errors"
	"fmt"
	"syscall/js"
)

// LocalStorage is a Slot over window.localStorage.
type LocalStorage struct {
	v js.Value
}

func NewLocalStorage() (*LocalStorage, error) {
	ls := js.Global().Get("localStorage")
	if ls.IsUndefined() || ls.IsNull() {
		return nil, errors.New("kv: localStorage is not available")
	}
	return &LocalStorage{v: ls}, nil
}

func (l *LocalStorage) Get(_ context.Context, key string) (value string, err error) {
	defer recoverJS(&err)
	v := l.v.Call("getItem", key)
	if v.IsNull() || v.IsUndefined() {
		return "", ErrNotFound
	}
	return v.String(), nil
}

func (l *LocalStorage) Set(_ context.Context, key string, value string) (err error) {
	defer recoverJS(&err)
	l.v.Call("setItem", key, value)
	return nil
}

func (l *LocalStorage) Delete(_ context.Context, key string) (err error) {
	defer recoverJS(&err)
	l.v.Call("removeItem", key)
	return nil
}

// recoverJS converts a thrown DOMException into an error.
func recoverJS(err *error) {
	r := recover()
	if r == nil {
		return
	}
	jsErr, ok := r.(js.Error)
	if !ok {
		panic(r)
	}
	if name := jsErr.Get("name"); name.Type() == js.TypeString && name.String() == "QuotaExceededError" {
		*err = fmt.Errorf("%w: %s", ErrQuotaExceeded, jsErr.Error())
		return
	}
	*err = fmt.Errorf("kv: localStorage: %s", jsErr.Error())
}

var _ Slot = (*LocalStorage)(nil)
