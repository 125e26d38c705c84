package tokens

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/careercompass/compass-client/api"
)

const tokenFileName = "compass_tokens.json"

// tokenPair is the plaintext payload sealed inside the token file.
type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// tokenFile is the on-disk envelope. The salt is stored alongside the sealed
// payload so the key can be re-derived on load.
type tokenFile struct {
	Salt string `json:"salt"`
	Data string `json:"data"`
}

// FileStore persists the token pair in an encrypted file under the data
// folder. Reads are served from memory; Set and Clear write through to disk
// before returning.
type FileStore struct {
	path       string
	passphrase string

	lock sync.RWMutex
	pair tokenPair
}

var _ Store = (*FileStore)(nil)

// NewFileStore loads any existing token file from dataFolder. A missing file
// is an anonymous store, not an error. A file sealed with a different
// passphrase fails to open.
func NewFileStore(dataFolder, passphrase string) (*FileStore, error) {
	if dataFolder == "" {
		return nil, errors.New("[NewFileStore] data folder is required")
	}
	if passphrase == "" {
		return nil, errors.New("[NewFileStore] passphrase is required")
	}
	if err := os.MkdirAll(dataFolder, 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewFileStore] create data folder")
	}

	fs := &FileStore{
		path:       filepath.Join(dataFolder, tokenFileName),
		passphrase: passphrase,
	}
	if err := fs.load(); err != nil {
		return nil, errors.Wrap(err, "[NewFileStore] load token file")
	}
	return fs, nil
}

func (fs *FileStore) Get(kind Kind) string {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	switch kind {
	case KindAccess:
		return fs.pair.AccessToken
	case KindRefresh:
		return fs.pair.RefreshToken
	}
	return ""
}

func (fs *FileStore) Set(tokens *api.TokenResponse) error {
	if tokens == nil {
		return errors.New("[FileStore.Set] nil token response")
	}
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.pair = tokenPair{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}
	return fs.persist()
}

func (fs *FileStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.pair = tokenPair{}
	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileStore.Clear] remove token file")
	}
	return nil
}

func (fs *FileStore) IsAuthenticated() bool {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.pair.AccessToken != ""
}

func (fs *FileStore) load() error {
	raw, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file tokenFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return errors.Wrap(err, "unmarshal envelope")
	}
	salt, err := decodeSalt(file.Salt)
	if err != nil {
		return err
	}
	cipher, err := newTokenCipher(fs.passphrase, salt)
	if err != nil {
		return err
	}
	plain, err := cipher.Decrypt(file.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(plain, &fs.pair)
}

func (fs *FileStore) persist() error {
	salt, err := newSalt()
	if err != nil {
		return err
	}
	cipher, err := newTokenCipher(fs.passphrase, salt)
	if err != nil {
		return err
	}
	plain, err := json.Marshal(fs.pair)
	if err != nil {
		return errors.Wrap(err, "marshal token pair")
	}
	sealed, err := cipher.Encrypt(plain)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(tokenFile{Salt: encodeSalt(salt), Data: sealed})
	if err != nil {
		return errors.Wrap(err, "marshal envelope")
	}
	return os.WriteFile(fs.path, raw, 0o600)
}
