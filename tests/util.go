package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/disiplinku/backend/core"
	"github.com/disiplinku/backend/core/notification"
	"github.com/disiplinku/backend/storage/inmem"
)

var ErrProvider = errors.New("provider unavailable")

// SeedStore returns an in-memory store holding root.
func SeedStore(t *testing.T, root core.Document) *inmemdb.DB {
	db := inmemdb.Open()
	if err := db.Set(context.Background(), "", root); err != nil {
		t.Fatalf("SeedStore() failed: %v", err)
	}
	return db
}

// CountingStore counts the calls made to a core.Store.
type CountingStore struct {
	core.Store
	Reads   int32
	Updates int32
	Paths   sync.Map // path read -> struct{}
}

func (s *CountingStore) ReadTree(ctx context.Context, path string) (core.Document, error) {
	atomic.AddInt32(&s.Reads, 1)
	s.Paths.Store(path, struct{}{})
	return s.Store.ReadTree(ctx, path)
}

func (s *CountingStore) ReadOne(ctx context.Context, path string) (core.Document, error) {
	atomic.AddInt32(&s.Reads, 1)
	s.Paths.Store(path, struct{}{})
	return s.Store.ReadOne(ctx, path)
}

func (s *CountingStore) UpdateField(ctx context.Context, path, field string, value interface{}) error {
	atomic.AddInt32(&s.Updates, 1)
	return s.Store.UpdateField(ctx, path, field, value)
}

func (s *CountingStore) ReadCount() int { return int(atomic.LoadInt32(&s.Reads)) }

func (s *CountingStore) WasRead(path string) bool {
	_, ok := s.Paths.Load(path)
	return ok
}

// FakeProvider records payloads. Payloads matching FailWhen are rejected.
type FakeProvider struct {
	mu       sync.Mutex
	payloads []*notification.Payload
	FailWhen func(p *notification.Payload) bool
}

func (p *FakeProvider) Send(_ context.Context, payload *notification.Payload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	if p.FailWhen != nil && p.FailWhen(payload) {
		return ErrProvider
	}
	return nil
}

func (p *FakeProvider) Payloads() []*notification.Payload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*notification.Payload(nil), p.payloads...)
}

func (p *FakeProvider) Calls() int { return len(p.Payloads()) }

// FakeProber rejects the URLs in Unreachable.
type FakeProber struct {
	Unreachable map[string]bool
	probes      int32
}

func (p *FakeProber) Probe(_ context.Context, url string) error {
	atomic.AddInt32(&p.probes, 1)
	if p.Unreachable[url] {
		return errors.New("media probe - status: 404")
	}
	return nil
}

func (p *FakeProber) Probes() int { return int(atomic.LoadInt32(&p.probes)) }

// Fixture is a realtime database snapshot with one unprocessed event of each kind.
func Fixture() core.Document {
	return core.Document{
		"user-name-admin": core.Document{
			"siswa1": core.Document{"name": "Ani", "oneSignalPlayerId": "player-ani"},
			"guru1":  core.Document{"name": "Pak Budi", "oneSignalPlayerId": "player-budi"},
		},
		"incomingCalls": core.Document{
			"siswa1": core.Document{
				"-Call1": core.Document{"callerId": "guru1", "callerName": "Budi", "callType": "video", "callID": "c-1"},
			},
		},
		"notifications": core.Document{
			"-Post1": core.Document{"name": "OSIS", "date": "2024-08-17", "content": "Upacara jam 7", "imageUrl": "https://cdn.sekolah.id/upacara.jpg"},
		},
		"peringatan-popup": core.Document{
			"-Warn1": core.Document{"nis": "12345", "name": "Ani", "kelas": "XI IPA 1", "message": "Terlambat", "timestamp": "2024-08-17T07:15:00Z"},
		},
	}
}
