package impl

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"smartblog/internal/domain/entity"
	"smartblog/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errInjected = errors.New("injected failure")

// memStore is an in-memory database behind every repository interface. Transactions
// roll back by restoring a snapshot, and AcquireSessionMutex holds a per-user lock
// until the surrounding transaction ends.
type memStore struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*entity.User
	sessions      map[string]*entity.SessionToken
	verifications map[string]*entity.VerificationToken
	posts         map[uuid.UUID]*entity.Post

	locksMu  sync.Mutex
	rowLocks map[uuid.UUID]*sync.Mutex

	failVerificationCreate bool
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[uuid.UUID]*entity.User),
		sessions:      make(map[string]*entity.SessionToken),
		verifications: make(map[string]*entity.VerificationToken),
		posts:         make(map[uuid.UUID]*entity.Post),
		rowLocks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

type memSnapshot struct {
	users         map[uuid.UUID]entity.User
	sessions      map[string]entity.SessionToken
	verifications map[string]entity.VerificationToken
	posts         map[uuid.UUID]entity.Post
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		users:         make(map[uuid.UUID]entity.User, len(s.users)),
		sessions:      make(map[string]entity.SessionToken, len(s.sessions)),
		verifications: make(map[string]entity.VerificationToken, len(s.verifications)),
		posts:         make(map[uuid.UUID]entity.Post, len(s.posts)),
	}
	for k, v := range s.users {
		snap.users[k] = *v
	}
	for k, v := range s.sessions {
		snap.sessions[k] = *v
	}
	for k, v := range s.verifications {
		snap.verifications[k] = *v
	}
	for k, v := range s.posts {
		snap.posts[k] = *v
	}

	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[uuid.UUID]*entity.User, len(snap.users))
	for k, v := range snap.users {
		s.users[k] = &v
	}
	s.sessions = make(map[string]*entity.SessionToken, len(snap.sessions))
	for k, v := range snap.sessions {
		s.sessions[k] = &v
	}
	s.verifications = make(map[string]*entity.VerificationToken, len(snap.verifications))
	for k, v := range snap.verifications {
		s.verifications[k] = &v
	}
	s.posts = make(map[uuid.UUID]*entity.Post, len(snap.posts))
	for k, v := range snap.posts {
		s.posts[k] = &v
	}
}

func (s *memStore) rowLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.rowLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.rowLocks[id] = lock
	}

	return lock
}

// sessionsOf returns the session tokens recorded for userID.
func (s *memStore) sessionsOf(userID uuid.UUID) []*entity.SessionToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*entity.SessionToken
	for _, token := range s.sessions {
		if token.UserID == userID {
			clone := *token
			out = append(out, &clone)
		}
	}

	return out
}

// verificationsOf returns the verification tokens recorded for userID.
func (s *memStore) verificationsOf(userID uuid.UUID) []*entity.VerificationToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*entity.VerificationToken
	for _, token := range s.verifications {
		if token.UserID == userID {
			clone := *token
			out = append(out, &clone)
		}
	}

	return out
}

func (s *memStore) putUser(user *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *user
	s.users[user.ID] = &clone
}

func (s *memStore) putVerification(token *entity.VerificationToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *token
	s.verifications[token.Token] = &clone
}

func (s *memStore) userByID(id uuid.UUID) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil
	}
	clone := *user

	return &clone
}

// --- transaction manager ---

type memTx struct {
	held []*sync.Mutex
}

type memTxManager struct {
	store *memStore
}

func (tm *memTxManager) Execute(_ context.Context, fn func(txRepoFactory repository.RepositoryFactory) error) error {
	snap := tm.store.snapshot()
	tx := &memTx{}

	defer func() {
		// Row locks are released only after commit or rollback.
		for i := len(tx.held) - 1; i >= 0; i-- {
			tx.held[i].Unlock()
		}
	}()

	if err := fn(&memFactory{store: tm.store, tx: tx}); err != nil {
		tm.store.restore(snap)

		return err
	}

	return nil
}

type memFactory struct {
	store *memStore
	tx    *memTx
}

func (f *memFactory) UserRepo() repository.UserRepository {
	return &memUserRepo{store: f.store, tx: f.tx}
}

func (f *memFactory) SessionTokenRepo() repository.SessionTokenRepository {
	return &memSessionRepo{store: f.store}
}

func (f *memFactory) VerificationTokenRepo() repository.VerificationTokenRepository {
	return &memVerificationRepo{store: f.store}
}

func (f *memFactory) PostRepo() repository.PostRepository {
	return &memPostRepo{store: f.store}
}

// --- users ---

type memUserRepo struct {
	store *memStore
	tx    *memTx
}

func (r *memUserRepo) find(match func(*entity.User) bool) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, user := range r.store.users {
		if match(user) {
			clone := *user

			return &clone, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ID == id })
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email })
}

func (r *memUserRepo) FindByUserName(_ context.Context, userName string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.UserName == userName })
}

func (r *memUserRepo) List(_ context.Context, page entity.PageRequest) ([]*entity.User, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	all := make([]*entity.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		clone := *user
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	return paginate(all, page), int64(len(all)), nil
}

func (r *memUserRepo) conflict(user *entity.User) error {
	for _, other := range r.store.users {
		if other.ID == user.ID {
			continue
		}
		if other.UserName == user.UserName {
			return repository.ErrUserNameConflict
		}
		if other.Email == user.Email {
			return repository.ErrEmailConflict
		}
	}

	return nil
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.conflict(user); err != nil {
		return err
	}
	clone := *user
	r.store.users[user.ID] = &clone

	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	if err := r.conflict(user); err != nil {
		return err
	}
	clone := *user
	r.store.users[user.ID] = &clone

	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.store.users, id)
	for key, token := range r.store.sessions {
		if token.UserID == id {
			delete(r.store.sessions, key)
		}
	}
	for key, token := range r.store.verifications {
		if token.UserID == id {
			delete(r.store.verifications, key)
		}
	}
	for key, post := range r.store.posts {
		if post.UserID == id {
			delete(r.store.posts, key)
		}
	}

	return nil
}

func (r *memUserRepo) AcquireSessionMutex(_ context.Context, id uuid.UUID) error {
	if r.store.userByID(id) == nil {
		return repository.ErrUserNotFound
	}

	lock := r.store.rowLock(id)
	lock.Lock()
	if r.tx != nil {
		r.tx.held = append(r.tx.held, lock)
	} else {
		lock.Unlock()
	}

	return nil
}

// --- session tokens ---

type memSessionRepo struct {
	store *memStore
}

func (r *memSessionRepo) Create(_ context.Context, token *entity.SessionToken) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[token.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	if _, ok := r.store.sessions[token.Token]; ok {
		return errors.New("duplicate session token")
	}
	clone := *token
	r.store.sessions[token.Token] = &clone

	return nil
}

func (r *memSessionRepo) FindByToken(_ context.Context, token string) (*entity.SessionToken, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	found, ok := r.store.sessions[token]
	if !ok {
		return nil, repository.ErrSessionTokenNotFound
	}
	clone := *found

	return &clone, nil
}

func (r *memSessionRepo) FindByUserID(_ context.Context, userID uuid.UUID) ([]*entity.SessionToken, error) {
	return r.store.sessionsOf(userID), nil
}

func (r *memSessionRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for key, token := range r.store.sessions {
		if token.UserID == userID {
			delete(r.store.sessions, key)
		}
	}

	return nil
}

// --- verification tokens ---

type memVerificationRepo struct {
	store *memStore
}

func (r *memVerificationRepo) Create(_ context.Context, token *entity.VerificationToken) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.failVerificationCreate {
		return errInjected
	}
	clone := *token
	r.store.verifications[token.Token] = &clone

	return nil
}

func (r *memVerificationRepo) FindByToken(_ context.Context, token string) (*entity.VerificationToken, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	found, ok := r.store.verifications[token]
	if !ok {
		return nil, repository.ErrVerificationTokenNotFound
	}
	clone := *found

	return &clone, nil
}

func (r *memVerificationRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for key, token := range r.store.verifications {
		if token.UserID == userID {
			delete(r.store.verifications, key)
		}
	}

	return nil
}

func (r *memVerificationRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var deleted int64
	for key, token := range r.store.verifications {
		if token.IsExpired(now) {
			delete(r.store.verifications, key)
			deleted++
		}
	}

	return deleted, nil
}

// --- posts ---

type memPostRepo struct {
	store *memStore
}

func (r *memPostRepo) withAuthor(post *entity.Post) *entity.Post {
	clone := *post
	if user, ok := r.store.users[post.UserID]; ok {
		clone.Author = &entity.Author{FirstName: user.FirstName, LastName: user.LastName, UserName: user.UserName}
	}

	return &clone
}

func (r *memPostRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Post, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	post, ok := r.store.posts[id]
	if !ok {
		return nil, repository.ErrPostNotFound
	}

	return r.withAuthor(post), nil
}

func (r *memPostRepo) FindOwnerID(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	post, ok := r.store.posts[id]
	if !ok {
		return uuid.Nil, repository.ErrPostNotFound
	}

	return post.UserID, nil
}

func (r *memPostRepo) list(match func(*entity.Post) bool, page entity.PageRequest) ([]*entity.Post, int64) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var all []*entity.Post
	for _, post := range r.store.posts {
		if match(post) {
			all = append(all, r.withAuthor(post))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	return paginate(all, page), int64(len(all))
}

func (r *memPostRepo) List(_ context.Context, page entity.PageRequest) ([]*entity.Post, int64, error) {
	posts, total := r.list(func(*entity.Post) bool { return true }, page)

	return posts, total, nil
}

func (r *memPostRepo) ListByUserID(_ context.Context, userID uuid.UUID, page entity.PageRequest) ([]*entity.Post, int64, error) {
	posts, total := r.list(func(p *entity.Post) bool { return p.UserID == userID }, page)

	return posts, total, nil
}

func (r *memPostRepo) Create(_ context.Context, post *entity.Post) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	clone := *post
	clone.Author = nil
	r.store.posts[post.ID] = &clone

	return nil
}

func (r *memPostRepo) Update(_ context.Context, post *entity.Post) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.posts[post.ID]
	if !ok {
		return repository.ErrPostNotFound
	}
	stored.Text = post.Text
	stored.UpdatedAt = post.UpdatedAt
	stored.UpdatedBy = post.UpdatedBy

	return nil
}

func (r *memPostRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.posts[id]; !ok {
		return repository.ErrPostNotFound
	}
	delete(r.store.posts, id)

	return nil
}

func paginate[T any](all []T, page entity.PageRequest) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(all) {
		return []T{}
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}

	return all[start:end]
}

// --- notifications ---

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []entity.Notification
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n entity.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sent = append(d.sent, n)
}

func (d *recordingDispatcher) notifications() []entity.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]entity.Notification(nil), d.sent...)
}
