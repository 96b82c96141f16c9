package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/notespace-api/internal/application/otp"
	"github.com/notespace-api/internal/application/refresh"
	"github.com/notespace-api/internal/domain"
	jwtinfra "github.com/notespace-api/internal/infrastructure/jwt"
	"github.com/notespace-api/internal/pkg/keylock"
)

// UserStore is the identity collaborator. The first successful code
// verification for an unseen email provisions the user.
type UserStore interface {
	FindOrCreateByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, userID string) (*domain.User, error)
}

// Mailer is the delivery collaborator for issued login codes.
type Mailer interface {
	SendLoginCode(to, code string) error
}

// SendCodeResult carries the generic acknowledgement plus, outside
// production, a signed magic-link token equivalent to the emailed code.
type SendCodeResult struct {
	MagicLink string
}

// LoginResult is one established session: a short-lived access token, a
// freshly stored refresh token, and the resolved user.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

type Service interface {
	SendCode(ctx context.Context, email string) (*SendCodeResult, error)
	VerifyCode(ctx context.Context, email, code string) (*LoginResult, error)
	VerifyMagicLink(ctx context.Context, token string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResult, error)
	Logout(ctx context.Context, refreshToken, accessToken string) error
	Me(ctx context.Context, userID string) (*domain.User, error)
}

type service struct {
	otpMgr     *otp.Manager
	refreshMgr *refresh.Manager
	users      UserStore
	mailer     Mailer
	jwt        *jwtinfra.Provider
	rotation   *keylock.KeyLock
	devMode    bool
}

func NewService(
	otpMgr *otp.Manager,
	refreshMgr *refresh.Manager,
	users UserStore,
	mailer Mailer,
	jwt *jwtinfra.Provider,
	devMode bool,
) Service {
	return &service{
		otpMgr:     otpMgr,
		refreshMgr: refreshMgr,
		users:      users,
		mailer:     mailer,
		jwt:        jwt,
		rotation:   keylock.New(),
		devMode:    devMode,
	}
}

// SendCode issues a login code for email and hands it to the delivery
// collaborator. The acknowledgement is identical whether or not the address
// belongs to an existing account.
//
// Known edge: the challenge is persisted before delivery is attempted, so a
// delivery failure surfaces as an error while the code remains verifiable.
func (s *service) SendCode(ctx context.Context, email string) (*SendCodeResult, error) {
	email = otp.Normalize(email)
	code, err := s.otpMgr.Issue(ctx, email)
	if err != nil {
		return nil, err
	}

	result := &SendCodeResult{}
	if s.devMode {
		link, err := s.jwt.SignMagicLink(email, code)
		if err != nil {
			return nil, err
		}
		result.MagicLink = link
	}

	if err := s.mailer.SendLoginCode(email, code); err != nil {
		slog.Error("failed to deliver login code", "email", email, "err", err)
		return nil, fmt.Errorf("deliver login code: %w", err)
	}
	return result, nil
}

// VerifyCode exchanges a valid code for an access token and a refresh token,
// provisioning the user on first sight. All credential failures collapse into
// one generic unauthorized error.
func (s *service) VerifyCode(ctx context.Context, email, code string) (*LoginResult, error) {
	email = otp.Normalize(email)
	ok, err := s.otpMgr.Verify(ctx, email, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("invalid or expired code: %w", domain.ErrUnauthorized)
	}

	user, err := s.users.FindOrCreateByEmail(ctx, email)
	if err != nil {
		slog.Error("identity store failure during login", "email", email, "err", err)
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return s.establishSession(ctx, user)
}

// VerifyMagicLink validates the signed developer-channel token and feeds the
// recovered code through the normal verification path, so single-use and
// attempt-limit invariants apply unchanged.
func (s *service) VerifyMagicLink(ctx context.Context, token string) (*LoginResult, error) {
	claims, err := s.jwt.VerifyMagicLink(token)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired magic link: %w", domain.ErrUnauthorized)
	}
	return s.VerifyCode(ctx, claims.Email, claims.Code)
}

// Refresh rotates a refresh token: the old token is verified and revoked, and
// a new access/refresh pair is issued in its place. The sequence is
// serialized per token, so of two concurrent refreshes with the same token
// exactly one wins and the other observes it as already revoked.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	s.rotation.Lock(refreshToken)
	defer s.rotation.Unlock(refreshToken)

	userID, ok, err := s.refreshMgr.Verify(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("invalid or expired refresh token: %w", domain.ErrUnauthorized)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		// The owner vanished between issuance and refresh. Surfaced as
		// unauthorized, not as not-found, so a token probe learns nothing.
		if errors.Is(err, domain.ErrNotFound) {
			slog.Warn("refresh token owner no longer exists", "user_id", userID)
			return nil, fmt.Errorf("session owner unknown: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}

	result, err := s.establishSession(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.refreshMgr.Revoke(ctx, refreshToken); err != nil {
		return nil, err
	}
	return result, nil
}

// Logout revokes the supplied refresh token. When an access token accompanies
// the request it is verified purely to attribute the logout in audit logs;
// a stale or invalid access token never blocks logout, since the point is to
// kill the refresh token.
func (s *service) Logout(ctx context.Context, refreshToken, accessToken string) error {
	if accessToken != "" {
		if claims, err := s.jwt.Verify(accessToken); err == nil {
			slog.Info("logout", "user_id", claims.UserID, "email", claims.Email)
		} else {
			slog.Info("logout with unverifiable access token")
		}
	}
	return s.refreshMgr.Revoke(ctx, refreshToken)
}

func (s *service) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown user: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	return user, nil
}

func (s *service) establishSession(ctx context.Context, user *domain.User) (*LoginResult, error) {
	accessToken, err := s.jwt.Sign(user.UserID, user.Email)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.refreshMgr.Generate()
	if err != nil {
		return nil, err
	}
	if err := s.refreshMgr.Store(ctx, user.UserID, refreshToken); err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}
