// Package authn reconciles password and Google-OAuth credentials into one
// canonical user record and issues sessions for resolved users.
package authn

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/kalenso/kalenso/internal/domain/entity"
	"github.com/kalenso/kalenso/internal/domain/rbac"
	repo "github.com/kalenso/kalenso/internal/domain/repository"
	"github.com/kalenso/kalenso/pkg/helpers"
	"github.com/kalenso/kalenso/pkg/mailer"
	tpl "github.com/kalenso/kalenso/pkg/mailer/templates"
	"github.com/kalenso/kalenso/pkg/oauth"
)

const verificationTokenBytes = 32

// GoogleProvider is the slice of the OAuth client the sign-in flow needs;
// tests substitute a fake.
type GoogleProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.Identity, error)
	VerifyIDToken(ctx context.Context, rawIDToken string) (*oauth.Identity, error)
}

// Publisher enqueues outbound email jobs. Dispatch is fire-and-forget: the
// durable queue retries delivery, and a publish failure never rolls back the
// account mutation that triggered it.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type Service struct {
	Users  repo.UserRepository
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
	Pub    Publisher
	Google GoogleProvider

	VerifyTTL   time.Duration
	VerifyURL   string
	ResetTTL    time.Duration
	ResetURL    string
	MailEnabled bool
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// SignInResult is the operation-layer contract: a stable numeric user id plus
// whether this sign-in created the account.
type SignInResult struct {
	UserID       int64
	Email        string
	Name         string
	IsNewAccount bool
}

func sessionKey(userID int64) string {
	return "user:session:" + strconv.FormatInt(userID, 10)
}

func keyResetToken(t string) string { return "pwd:reset:token:" + t }

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Register creates a password-credential account in the Pending-Verification
// state and emits a verification email. The user row and its default role are
// written atomically; a duplicate email yields ErrEmailTaken without touching
// the existing row.
func (s *Service) Register(ctx context.Context, email, password string, name *string) (*entity.User, error) {
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	token, err := helpers.GenToken(verificationTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}
	expires := time.Now().Add(s.VerifyTTL)

	u := &entity.User{
		Email:                    email,
		Name:                     name,
		PasswordHash:             &hash,
		VerificationToken:        &token,
		VerificationTokenExpires: &expires,
	}
	if err := s.Users.CreatePasswordUser(ctx, u, rbac.DefaultRole); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.enqueueEmail(ctx, u.Email, tpl.VerifyEmail, map[string]any{
		"Name":      strOrEmpty(u.Name),
		"VerifyURL": s.VerifyURL + "?token=" + token,
		"ExpiresIn": s.VerifyTTL.String(),
	})
	return u, nil
}

// Login authenticates a password credential. Unknown email and wrong password
// are the same error; the verified flag is only consulted after the password
// matches.
func (s *Service) Login(ctx context.Context, email, password string) (*SignInResult, TokenPair, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	if !u.HasPassword() || !helpers.CompareHashAndPassword(*u.PasswordHash, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if !u.EmailVerified {
		return nil, TokenPair{}, ErrEmailNotVerified
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return &SignInResult{UserID: u.ID, Email: u.Email, Name: strOrEmpty(u.Name)}, pair, nil
}

// VerifyEmail consumes a single-use verification token. The token is cleared
// on success, so replaying it fails with ErrInvalidOrExpiredToken.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	u, err := s.Users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}
	if u.VerificationTokenExpires == nil || time.Now().After(*u.VerificationTokenExpires) {
		return ErrInvalidOrExpiredToken
	}
	return s.Users.SetVerified(ctx, u.ID)
}

// ResendVerification rotates the pending token and re-sends the email. The
// old token stops working immediately. Unknown emails return nil so the
// endpoint cannot be used for account enumeration.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.Logger.WithField("email", email).Info("resend verification for unknown email")
			return nil
		}
		return err
	}
	if u.EmailVerified {
		return ErrAlreadyVerified
	}
	token, err := helpers.GenToken(verificationTokenBytes)
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}
	expires := time.Now().Add(s.VerifyTTL)
	if err := s.Users.SetVerificationToken(ctx, u.ID, token, expires); err != nil {
		return err
	}
	s.enqueueEmail(ctx, u.Email, tpl.VerifyEmail, map[string]any{
		"Name":      strOrEmpty(u.Name),
		"VerifyURL": s.VerifyURL + "?token=" + token,
		"ExpiresIn": s.VerifyTTL.String(),
	})
	return nil
}

// GoogleAuthURL returns the provider redirect for the given state, or
// ErrGoogleNotConfigured when no provider was wired at startup.
func (s *Service) GoogleAuthURL(state string) (string, error) {
	if s.Google == nil {
		return "", ErrGoogleNotConfigured
	}
	return s.Google.AuthCodeURL(state), nil
}

// GoogleSignIn completes the OAuth code flow and resolves the identity to a
// user record: a new email creates a verified account, an existing email
// merges the Google identity in place. The local email_verified flag never
// blocks this path.
func (s *Service) GoogleSignIn(ctx context.Context, code string) (*SignInResult, TokenPair, error) {
	if s.Google == nil {
		return nil, TokenPair{}, ErrGoogleNotConfigured
	}
	id, err := s.Google.Exchange(ctx, code)
	if err != nil {
		// Only an explicit provider rejection is a credential failure;
		// an outage reaching the provider surfaces as a 500.
		if errors.Is(err, oauth.ErrIdentityRejected) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	return s.resolveGoogleIdentity(ctx, id)
}

// GoogleSignInWithIDToken resolves a raw ID token (SPA flows that run the
// code exchange client side).
func (s *Service) GoogleSignInWithIDToken(ctx context.Context, rawIDToken string) (*SignInResult, TokenPair, error) {
	if s.Google == nil {
		return nil, TokenPair{}, ErrGoogleNotConfigured
	}
	id, err := s.Google.VerifyIDToken(ctx, rawIDToken)
	if err != nil {
		if errors.Is(err, oauth.ErrIdentityRejected) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	return s.resolveGoogleIdentity(ctx, id)
}

func (s *Service) resolveGoogleIdentity(ctx context.Context, id *oauth.Identity) (*SignInResult, TokenPair, error) {
	u, created, err := s.Users.UpsertGoogleUser(ctx, id.Email,
		id.Subject, strPtr(id.Name), strPtr(id.Picture), rbac.DefaultRole)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return &SignInResult{UserID: u.ID, Email: u.Email, Name: strOrEmpty(u.Name), IsNewAccount: created}, pair, nil
}

// IssueTokens generates an access/refresh pair and records a session in Redis.
func (s *Service) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       strOrEmpty(u.Name),
			"sid":        sid,
			"created_at": nowRFC3339(),
		}
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh rotates the session id and both tokens after validating the refresh
// token against the active session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, int64, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, 0, ErrInvalidCredentials
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TokenPair{}, 0, ErrInvalidCredentials
		}
		return TokenPair{}, 0, err
	}
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, sessionKey(u.ID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, 0, ErrInvalidCredentials
		}
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return TokenPair{}, 0, err
	}
	return pair, u.ID, nil
}

// Logout drops the Redis session.
func (s *Service) Logout(ctx context.Context, userID int64) {
	if s.Redis != nil {
		if err := s.Redis.Del(ctx, sessionKey(userID)).Err(); err != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Warn("delete session failed")
		}
	}
}

// ResetInit issues a password-reset token. The returned link is empty for an
// unknown email; callers respond identically either way.
func (s *Service) ResetInit(ctx context.Context, email string) (string, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	token, err := helpers.GenToken(verificationTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	if s.Redis != nil {
		if err := s.Redis.Set(ctx, keyResetToken(token), u.ID, s.ResetTTL).Err(); err != nil {
			return "", err
		}
	}
	link := s.ResetURL + "?token=" + token
	s.enqueueEmail(ctx, u.Email, tpl.ResetPassword, map[string]any{
		"Name":      strOrEmpty(u.Name),
		"Email":     u.Email,
		"ResetURL":  link,
		"ExpiresIn": s.ResetTTL.String(),
	})
	return link, nil
}

// ResetConfirm consumes a reset token and sets the new password.
func (s *Service) ResetConfirm(ctx context.Context, token, newPassword string) error {
	if s.Redis == nil {
		return errors.New("reset unavailable")
	}
	val, err := s.Redis.Get(ctx, keyResetToken(token)).Result()
	if err != nil || val == "" {
		return ErrInvalidOrExpiredToken
	}
	uid, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Users.SetPassword(ctx, uid, hash); err != nil {
		return err
	}
	s.Redis.Del(ctx, keyResetToken(token))
	return nil
}

func (s *Service) enqueueEmail(ctx context.Context, to, template string, data map[string]any) {
	if s.Pub == nil || !s.MailEnabled {
		return
	}
	job := mailer.EmailJob{To: to, Template: template, Data: data}
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Pub.PublishJSON(c, job); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"to": to, "template": template}).
			Warn("enqueue email failed")
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
