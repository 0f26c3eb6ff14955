package users

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalenso/kalenso/internal/domain/entity"
	repo "github.com/kalenso/kalenso/internal/domain/repository"
)

// profileStore implements just enough of the user repository for profile
// operations; credential writes are never reached from this service.
type profileStore struct {
	users map[int64]*entity.User
}

func (p *profileStore) CreatePasswordUser(context.Context, *entity.User, string) error {
	panic("not used")
}

func (p *profileStore) UpsertGoogleUser(context.Context, string, string, *string, *string, string) (*entity.User, bool, error) {
	panic("not used")
}

func (p *profileStore) GetByID(_ context.Context, id int64) (*entity.User, error) {
	if u, ok := p.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, repo.ErrNotFound
}

func (p *profileStore) GetByEmail(context.Context, string) (*entity.User, error) {
	panic("not used")
}

func (p *profileStore) GetByVerificationToken(context.Context, string) (*entity.User, error) {
	panic("not used")
}

func (p *profileStore) SetVerified(context.Context, int64) error { panic("not used") }

func (p *profileStore) SetVerificationToken(context.Context, int64, string, time.Time) error {
	panic("not used")
}

func (p *profileStore) SetPassword(context.Context, int64, string) error { panic("not used") }

func (p *profileStore) UpdateProfile(_ context.Context, userID int64, name, image *string) (*entity.User, error) {
	u, ok := p.users[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if name != nil {
		u.Name = name
	}
	if image != nil {
		u.Image = image
	}
	c := *u
	return &c, nil
}

func (p *profileStore) Delete(_ context.Context, userID int64) error {
	if _, ok := p.users[userID]; !ok {
		return repo.ErrNotFound
	}
	delete(p.users, userID)
	return nil
}

var _ repo.UserRepository = (*profileStore)(nil)

func newTestService() (*Service, *profileStore) {
	name := "Alice"
	store := &profileStore{users: map[int64]*entity.User{
		1: {ID: 1, Email: "alice@example.com", Name: &name, EmailVerified: true},
	}}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewService(store, logger, nil, "", nil, ""), store
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	u, err := svc.GetProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = svc.GetProfile(ctx, 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	newName := "Alice B"
	u, err := svc.UpdateProfile(ctx, 1, &newName, nil)
	require.NoError(t, err)
	require.NotNil(t, u.Name)
	assert.Equal(t, "Alice B", *u.Name)

	// untouched fields survive a partial update
	assert.Equal(t, "alice@example.com", store.users[1].Email)
	assert.Nil(t, store.users[1].Image)

	_, err = svc.UpdateProfile(ctx, 99, &newName, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUploadAvatarUnconfigured(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.UploadAvatar(context.Background(), 1, nil, "a.png", "image/png")
	assert.Error(t, err)
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	require.NoError(t, svc.Delete(ctx, 1))
	assert.ErrorIs(t, svc.Delete(ctx, 1), ErrUserNotFound)

	_, err := svc.GetProfile(ctx, 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSearchWithoutES(t *testing.T) {
	svc, _ := newTestService()
	hits, err := svc.Search(context.Background(), "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
