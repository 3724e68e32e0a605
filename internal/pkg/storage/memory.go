package storage

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Memory keeps objects in process. PresignGet returns a memory:// URL.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory constructs an empty in-process store.
func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}}
}

func (m *Memory) PutObject(ctx context.Context, bucket, key string, r io.Reader, _ PutOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	buf := &bytes.Buffer{}
	n, err := io.Copy(buf, r)
	if err != nil {
		return ObjectInfo{}, err
	}

	m.mu.Lock()
	m.objects[bucket+"/"+key] = buf.Bytes()
	m.mu.Unlock()

	return ObjectInfo{Bucket: bucket, Key: key, Size: n}, nil
}

func (m *Memory) DeleteObject(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[bucket+"/"+key]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, bucket+"/"+key)
	return nil
}

func (m *Memory) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[bucket+"/"+key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrObjectNotFound
	}

	u := url.URL{
		Scheme:   "memory",
		Host:     bucket,
		Path:     "/" + key,
		RawQuery: url.Values{"expires": {strconv.FormatInt(time.Now().Add(expiry).Unix(), 10)}}.Encode(),
	}
	return u.String(), nil
}

// Object returns a stored object.
func (m *Memory) Object(bucket, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[bucket+"/"+key]
	return b, ok
}

func (m *Memory) Close() error {
	return nil
}
