package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"kvfiles/internal/keystore"
)

// scriptedStore 按游标返回预设页面，并记录每次调用参数。
type scriptedStore struct {
	pages map[string]*keystore.Page
	calls []keystore.ListOptions
}

func (s *scriptedStore) List(ctx context.Context, opts keystore.ListOptions) (*keystore.Page, error) {
	s.calls = append(s.calls, opts)
	page, ok := s.pages[opts.Cursor]
	if !ok {
		return nil, fmt.Errorf("unexpected cursor %q", opts.Cursor)
	}
	return page, nil
}

// endlessStore 永远返回非空游标且从不报告完成。
type endlessStore struct {
	calls int
}

func (s *endlessStore) List(ctx context.Context, opts keystore.ListOptions) (*keystore.Page, error) {
	s.calls++
	return &keystore.Page{
		Keys:   []keystore.Key{fileKey(fmt.Sprintf("f%d.png", s.calls))},
		Cursor: fmt.Sprintf("c%d", s.calls),
	}, nil
}

// failingStore 在第 failAt 次调用时返回 err。
type failingStore struct {
	failAt int
	err    error
	calls  int
}

func (s *failingStore) List(ctx context.Context, opts keystore.ListOptions) (*keystore.Page, error) {
	s.calls++
	if s.calls >= s.failAt {
		return nil, s.err
	}
	return &keystore.Page{Keys: []keystore.Key{fileKey("a.png")}, Cursor: "next"}, nil
}

func fileKey(name string) keystore.Key {
	return keystore.Key{Name: name, Metadata: map[string]any{"fileName": name, "TimeStamp": float64(1700000000)}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
