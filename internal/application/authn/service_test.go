package authn

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalenso/kalenso/internal/domain/entity"
	"github.com/kalenso/kalenso/internal/domain/rbac"
	repo "github.com/kalenso/kalenso/internal/domain/repository"
	"github.com/kalenso/kalenso/pkg/helpers"
	"github.com/kalenso/kalenso/pkg/mailer"
	"github.com/kalenso/kalenso/pkg/oauth"
)

// memUsers mimics the insert-or-conflict semantics of the Postgres store,
// including default-role bookkeeping so tests can assert on provisioning.
type memUsers struct {
	mu    sync.Mutex
	seq   int64
	users map[int64]*entity.User
	roles map[int64][]string
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[int64]*entity.User), roles: make(map[int64][]string)}
}

func (m *memUsers) byEmail(email string) *entity.User {
	for _, u := range m.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func clone(u *entity.User) *entity.User {
	c := *u
	return &c
}

func (m *memUsers) CreatePasswordUser(_ context.Context, u *entity.User, defaultRole string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byEmail(u.Email) != nil {
		return repo.ErrDuplicateEmail
	}
	m.seq++
	u.ID = m.seq
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = clone(u)
	m.roles[u.ID] = []string{defaultRole}
	return nil
}

func (m *memUsers) UpsertGoogleUser(_ context.Context, email, googleID string, name, image *string, defaultRole string) (*entity.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u := m.byEmail(email); u != nil {
		if u.GoogleID == nil {
			u.GoogleID = &googleID
		}
		if name != nil {
			u.Name = name
		}
		if image != nil {
			u.Image = image
		}
		u.UpdatedAt = time.Now()
		return clone(u), false, nil
	}
	m.seq++
	u := &entity.User{
		ID:            m.seq,
		Email:         email,
		Name:          name,
		Image:         image,
		GoogleID:      &googleID,
		EmailVerified: true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	m.users[u.ID] = u
	m.roles[u.ID] = []string{defaultRole}
	return clone(u), true, nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return clone(u), nil
	}
	return nil, repo.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u := m.byEmail(email); u != nil {
		return clone(u), nil
	}
	return nil, repo.ErrNotFound
}

func (m *memUsers) GetByVerificationToken(_ context.Context, token string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			return clone(u), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memUsers) SetVerified(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.EmailVerified = true
	u.VerificationToken = nil
	u.VerificationTokenExpires = nil
	return nil
}

func (m *memUsers) SetVerificationToken(_ context.Context, userID int64, token string, expires time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.VerificationToken = &token
	u.VerificationTokenExpires = &expires
	return nil
}

func (m *memUsers) SetPassword(_ context.Context, userID int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.PasswordHash = &passwordHash
	return nil
}

func (m *memUsers) UpdateProfile(_ context.Context, userID int64, name, image *string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if name != nil {
		u.Name = name
	}
	if image != nil {
		u.Image = image
	}
	return clone(u), nil
}

func (m *memUsers) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return repo.ErrNotFound
	}
	delete(m.users, userID)
	delete(m.roles, userID)
	return nil
}

var _ repo.UserRepository = (*memUsers)(nil)

type capturePub struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
}

func (p *capturePub) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if job, ok := body.(mailer.EmailJob); ok {
		p.jobs = append(p.jobs, job)
	}
	return nil
}

type fakeGoogle struct {
	identity *oauth.Identity
	err      error
}

func (f *fakeGoogle) AuthCodeURL(state string) string { return "https://accounts.example/auth?state=" + state }
func (f *fakeGoogle) Exchange(context.Context, string) (*oauth.Identity, error) {
	return f.identity, f.err
}
func (f *fakeGoogle) VerifyIDToken(context.Context, string) (*oauth.Identity, error) {
	return f.identity, f.err
}

type testEnv struct {
	svc   *Service
	users *memUsers
	pub   *capturePub
	mr    *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	users := newMemUsers()
	pub := &capturePub{}
	svc := &Service{
		Users:  users,
		JWT:    helpers.NewJWTManager("access-secret", "refresh-secret", time.Minute, time.Hour),
		Redis:  rdb,
		Logger: logger,
		Pub:    pub,

		VerifyTTL:   24 * time.Hour,
		VerifyURL:   "https://app.example/verify-email",
		ResetTTL:    30 * time.Minute,
		ResetURL:    "https://app.example/reset-password",
		MailEnabled: true,
	}
	return &testEnv{svc: svc, users: users, pub: pub, mr: mr}
}

func TestRegisterAndVerify(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	name := "Alice"
	u, err := env.svc.Register(ctx, "alice@example.com", "hunter2pass", &name)
	require.NoError(t, err)
	assert.False(t, u.EmailVerified)
	require.NotNil(t, u.VerificationToken)

	// default role assigned together with the account
	assert.Equal(t, []string{rbac.DefaultRole}, env.users.roles[u.ID])

	// a verification email job was enqueued
	require.Len(t, env.pub.jobs, 1)
	assert.Equal(t, "alice@example.com", env.pub.jobs[0].To)
	assert.Contains(t, env.pub.jobs[0].Data["VerifyURL"], *u.VerificationToken)

	token := *u.VerificationToken
	require.NoError(t, env.svc.VerifyEmail(ctx, token))

	stored, err := env.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)
	assert.Nil(t, stored.VerificationToken)

	// token is single use
	assert.ErrorIs(t, env.svc.VerifyEmail(ctx, token), ErrInvalidOrExpiredToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.Register(ctx, "alice@example.com", "hunter2pass", nil)
	require.NoError(t, err)

	_, err = env.svc.Register(ctx, "alice@example.com", "differentpass", nil)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.svc.VerifyTTL = -time.Hour

	u, err := env.svc.Register(ctx, "alice@example.com", "hunter2pass", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.VerifyEmail(ctx, *u.VerificationToken), ErrInvalidOrExpiredToken)
}

func TestVerifyEmailUnknownToken(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.svc.VerifyEmail(context.Background(), "nope"), ErrInvalidOrExpiredToken)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	u, err := env.svc.Register(ctx, "alice@example.com", "hunter2pass", nil)
	require.NoError(t, err)

	// unverified account with the right password is told so
	_, _, err = env.svc.Login(ctx, "alice@example.com", "hunter2pass")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	// unverified account with the wrong password only sees invalid credentials
	_, _, err = env.svc.Login(ctx, "alice@example.com", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, env.svc.VerifyEmail(ctx, *u.VerificationToken))

	res, pair, err := env.svc.Login(ctx, "alice@example.com", "hunter2pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.UserID)
	assert.False(t, res.IsNewAccount)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	// session recorded in redis
	assert.Equal(t, "alice@example.com", env.mr.HGet(sessionKey(u.ID), "email"))
}

func TestLoginUnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.Register(ctx, "alice@example.com", "hunter2pass", nil)
	require.NoError(t, err)

	_, _, errUnknown := env.svc.Login(ctx, "nobody@example.com", "hunter2pass")
	_, _, errWrong := env.svc.Login(ctx, "alice@example.com", "wrongpassword")
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLoginOAuthOnlyAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.svc.Google = &fakeGoogle{identity: &oauth.Identity{
		Subject: "google-sub-1", Email: "carol@example.com", Name: "Carol",
	}}

	_, _, err := env.svc.GoogleSignIn(ctx, "code")
	require.NoError(t, err)

	// no password credential exists, so any password is invalid
	_, _, err = env.svc.Login(ctx, "carol@example.com", "whatever123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResendVerification(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	u, err := env.svc.Register(ctx, "alice@example.com", "hunter2pass", nil)
	require.NoError(t, err)
	oldToken := *u.VerificationToken

	require.NoError(t, env.svc.ResendVerification(ctx, "alice@example.com"))
	require.Len(t, env.pub.jobs, 2)

	// old token stops working, the rotated one verifies
	assert.ErrorIs(t, env.svc.VerifyEmail(ctx, oldToken), ErrInvalidOrExpiredToken)
	stored, err := env.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationToken)
	require.NoError(t, env.svc.VerifyEmail(ctx, *stored.VerificationToken))

	// verified account refuses another resend
	assert.ErrorIs(t, env.svc.ResendVerification(ctx, "alice@example.com"), ErrAlreadyVerified)

	// unknown email looks exactly like success
	assert.NoError(t, env.svc.ResendVerification(ctx, "nobody@example.com"))
}

func TestGoogleSignInNewAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.svc.Google = &fakeGoogle{identity: &oauth.Identity{
		Subject: "google-sub-1", Email: "bob@example.com", Name: "Bob", Picture: "https://img.example/bob.png",
	}}

	res, pair, err := env.svc.GoogleSignIn(ctx, "code")
	require.NoError(t, err)
	assert.True(t, res.IsNewAccount)
	assert.Equal(t, "bob@example.com", res.Email)
	assert.NotEmpty(t, pair.AccessToken)

	stored, err := env.users.GetByID(ctx, res.UserID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)
	assert.True(t, stored.HasGoogle())
	assert.False(t, stored.HasPassword())
	assert.Equal(t, []string{rbac.DefaultRole}, env.users.roles[res.UserID])
}

func TestGoogleSignInMergesExistingAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	u, err := env.svc.Register(ctx, "alice@example.com", "hunter2pass", nil)
	require.NoError(t, err)

	env.svc.Google = &fakeGoogle{identity: &oauth.Identity{
		Subject: "google-sub-2", Email: "alice@example.com", Name: "Alice G",
	}}
	res, _, err := env.svc.GoogleSignIn(ctx, "code")
	require.NoError(t, err)
	assert.False(t, res.IsNewAccount)
	assert.Equal(t, u.ID, res.UserID)

	stored, err := env.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasGoogle())
	assert.True(t, stored.HasPassword(), "merge must not drop the password credential")
	require.NotNil(t, stored.Name)
	assert.Equal(t, "Alice G", *stored.Name)

	// password login still works after the merge, once verified
	require.NoError(t, env.svc.VerifyEmail(ctx, *u.VerificationToken))
	_, _, err = env.svc.Login(ctx, "alice@example.com", "hunter2pass")
	assert.NoError(t, err)
}

func TestGoogleSignInBadCode(t *testing.T) {
	env := newTestEnv(t)
	env.svc.Google = &fakeGoogle{err: fmt.Errorf("%w: exchange code: invalid_grant", oauth.ErrIdentityRejected)}

	_, _, err := env.svc.GoogleSignIn(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGoogleSignInProviderOutage(t *testing.T) {
	env := newTestEnv(t)
	env.svc.Google = &fakeGoogle{err: context.DeadlineExceeded}

	_, _, err := env.svc.GoogleSignIn(context.Background(), "code")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrInvalidCredentials, "an outage must not read as a denial")

	_, _, err = env.svc.GoogleSignInWithIDToken(context.Background(), "token")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGoogleSignInUnconfigured(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GoogleAuthURL("state")
	assert.ErrorIs(t, err, ErrGoogleNotConfigured)

	_, _, err = env.svc.GoogleSignIn(context.Background(), "code")
	assert.ErrorIs(t, err, ErrGoogleNotConfigured)

	_, _, err = env.svc.GoogleSignInWithIDToken(context.Background(), "token")
	assert.ErrorIs(t, err, ErrGoogleNotConfigured)
}

func TestRefreshRotatesSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	u, err := env.svc.Register(ctx, "alice@example.com", "hunter2pass", nil)
	require.NoError(t, err)
	require.NoError(t, env.svc.VerifyEmail(ctx, *u.VerificationToken))

	_, pair, err := env.svc.Login(ctx, "alice@example.com", "hunter2pass")
	require.NoError(t, err)

	newPair, uid, err := env.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	// the old refresh token belongs to the rotated-out session
	_, _, err = env.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshAfterLogout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	u, err := env.svc.Register(ctx, "alice@example.com", "hunter2pass", nil)
	require.NoError(t, err)
	require.NoError(t, env.svc.VerifyEmail(ctx, *u.VerificationToken))

	_, pair, err := env.svc.Login(ctx, "alice@example.com", "hunter2pass")
	require.NoError(t, err)

	env.svc.Logout(ctx, u.ID)

	_, _, err = env.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshGarbageToken(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.svc.Refresh(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	u, err := env.svc.Register(ctx, "alice@example.com", "hunter2pass", nil)
	require.NoError(t, err)
	require.NoError(t, env.svc.VerifyEmail(ctx, *u.VerificationToken))

	link, err := env.svc.ResetInit(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, link)
	require.Len(t, env.pub.jobs, 2)

	token := link[len(env.svc.ResetURL+"?token="):]
	require.NoError(t, env.svc.ResetConfirm(ctx, token, "newpassword1"))

	_, _, err = env.svc.Login(ctx, "alice@example.com", "hunter2pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = env.svc.Login(ctx, "alice@example.com", "newpassword1")
	assert.NoError(t, err)

	// token is single use
	assert.ErrorIs(t, env.svc.ResetConfirm(ctx, token, "anotherpass2"), ErrInvalidOrExpiredToken)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	link, err := env.svc.ResetInit(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, link)
	assert.Empty(t, env.pub.jobs)
}

func TestPasswordResetBadToken(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.svc.ResetConfirm(context.Background(), "bogus", "newpassword1"),
		ErrInvalidOrExpiredToken)
}
