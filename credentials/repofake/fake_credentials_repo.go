package repofake

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-gate/credentials"
	autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"
)

var _ credentials.Repo = (*FakeCredentialsRepo)(nil)

// FakeCredentialsRepo keeps logins in memory and counts the writes the auth
// core performs so tests can assert on them.
type FakeCredentialsRepo struct {
	lock       sync.RWMutex
	logins     map[string]*credentials.Record // loginID -> record
	usernames  map[string]string              // username -> loginID
	addresses  map[string]string              // remote address -> username
	settings   map[string]map[string]string   // userID -> settings
	masks      map[string]time.Time           // maskID -> expiry
	userMasks  map[string]string              // userID -> maskID
	maskOwners map[string]string              // maskID -> operator loginID
	activity   map[string]time.Time           // loginID -> last activity
	hashWrites map[string][]string            // loginID -> stored digests in order

	// Set to make the best-effort writes fail
	ActivityErr   error
	MasqueradeErr error
}

func NewFakeCredentialsRepo() *FakeCredentialsRepo {
	return &FakeCredentialsRepo{
		logins:     make(map[string]*credentials.Record),
		usernames:  make(map[string]string),
		addresses:  make(map[string]string),
		settings:   make(map[string]map[string]string),
		masks:      make(map[string]time.Time),
		userMasks:  make(map[string]string),
		maskOwners: make(map[string]string),
		activity:   make(map[string]time.Time),
		hashWrites: make(map[string][]string),
	}
}

func (r *FakeCredentialsRepo) Upsert(_ context.Context, rec *credentials.Record) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if rec.LoginID == "" {
		if id, ok := r.usernames[rec.Username]; ok {
			rec.LoginID = id
		} else {
			rec.LoginID = uuid.New().String()
		}
	}
	r.logins[rec.LoginID] = rec.Clone()
	r.usernames[rec.Username] = rec.LoginID
	return nil
}

func (r *FakeCredentialsRepo) FindByUsername(_ context.Context, username string) (*credentials.Record, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	id, ok := r.usernames[username]
	if !ok {
		return nil, autherrors.ErrLoginNotFound
	}
	return r.logins[id].Clone(), nil
}

func (r *FakeCredentialsRepo) FindByRemoteAddress(_ context.Context, remoteAddr string) (string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.addresses[remoteAddr], nil
}

func (r *FakeCredentialsRepo) FindForMasquerade(_ context.Context, userID string) (*credentials.Record, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, rec := range r.logins {
		if rec.UserID != userID {
			continue
		}
		c := rec.Clone()
		c.MaskID = r.userMasks[userID]
		c.MaskLoginID = r.maskOwners[c.MaskID]
		return c, nil
	}
	return nil, autherrors.ErrUserNotFound
}

func (r *FakeCredentialsRepo) LoadSettings(_ context.Context, userID string) (map[string]string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return maps.Clone(r.settings[userID]), nil
}

func (r *FakeCredentialsRepo) UpdateStoredHash(_ context.Context, loginID, digest string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	rec, ok := r.logins[loginID]
	if !ok {
		return autherrors.ErrLoginNotFound
	}
	rec.PasswordHash = digest
	r.hashWrites[loginID] = append(r.hashWrites[loginID], digest)
	return nil
}

func (r *FakeCredentialsRepo) ExtendMasqueradeExpiry(_ context.Context, maskID string, until time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.MasqueradeErr != nil {
		return r.MasqueradeErr
	}
	if _, ok := r.masks[maskID]; !ok {
		return autherrors.ErrNotFound
	}
	r.masks[maskID] = until
	return nil
}

func (r *FakeCredentialsRepo) RecordLastActivity(_ context.Context, loginID string, at time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.ActivityErr != nil {
		return r.ActivityErr
	}
	r.activity[loginID] = at
	return nil
}

// BindRemoteAddress makes requests from remoteAddr log in as username
func (r *FakeCredentialsRepo) BindRemoteAddress(remoteAddr, username string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.addresses[remoteAddr] = username
}

func (r *FakeCredentialsRepo) SetSettings(userID string, settings map[string]string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.settings[userID] = maps.Clone(settings)
}

// AddMask opens a masquerade window on userID and returns its id
func (r *FakeCredentialsRepo) AddMask(userID string, until time.Time) string {
	return r.AddOperatorMask("", userID, until)
}

// AddOperatorMask is AddMask owned by the operator login loginID
func (r *FakeCredentialsRepo) AddOperatorMask(loginID, userID string, until time.Time) string {
	r.lock.Lock()
	defer r.lock.Unlock()

	id := uuid.New().String()
	r.masks[id] = until
	r.userMasks[userID] = id
	r.maskOwners[id] = loginID
	return id
}

func (r *FakeCredentialsRepo) MaskExpiry(maskID string) time.Time {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.masks[maskID]
}

func (r *FakeCredentialsRepo) LastActivity(loginID string) (time.Time, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	at, ok := r.activity[loginID]
	return at, ok
}

// HashWrites lists every digest UpdateStoredHash stored for loginID
func (r *FakeCredentialsRepo) HashWrites(loginID string) []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]string(nil), r.hashWrites[loginID]...)
}
