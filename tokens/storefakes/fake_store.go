package storefakes

import (
	"sync"

	"github.com/careercompass/compass-client/api"
	"github.com/careercompass/compass-client/tokens"
)

var _ tokens.Store = (*FakeStore)(nil)

// FakeStore is an in-memory token store for tests. It counts mutations so
// tests can assert on write-through behaviour.
type FakeStore struct {
	lock       sync.RWMutex
	access     string
	refresh    string
	SetCalls   int
	ClearCalls int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (fs *FakeStore) Get(kind tokens.Kind) string {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	switch kind {
	case tokens.KindAccess:
		return fs.access
	case tokens.KindRefresh:
		return fs.refresh
	}
	return ""
}

func (fs *FakeStore) Set(tr *api.TokenResponse) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.access = tr.AccessToken
	fs.refresh = tr.RefreshToken
	fs.SetCalls++
	return nil
}

func (fs *FakeStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.access = ""
	fs.refresh = ""
	fs.ClearCalls++
	return nil
}

func (fs *FakeStore) IsAuthenticated() bool {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.access != ""
}
