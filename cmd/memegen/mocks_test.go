package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// memoryReader はメモリ上のファイルを返す remoteio.InputReader なのだ。
type memoryReader struct {
	files map[string][]byte
}

func (r *memoryReader) Open(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := r.files[path]
	if !ok {
		return nil, fmt.Errorf("not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (r *memoryReader) List(_ context.Context, _ string, callback func(string) error) error {
	for path := range r.files {
		if err := callback(path); err != nil {
			return err
		}
	}
	return nil
}

// memoryWriter は書き込まれた内容を URI ごとに記録する remoteio.OutputWriter なのだ。
type memoryWriter struct {
	mu           sync.Mutex
	written      map[string][]byte
	contentTypes map[string]string
}

func (w *memoryWriter) Write(_ context.Context, uri string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.written == nil {
		w.written = map[string][]byte{}
		w.contentTypes = map[string]string{}
	}
	w.written[uri] = data
	w.contentTypes[uri] = contentType
	return nil
}
