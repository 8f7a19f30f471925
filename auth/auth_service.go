package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/jobboard-auth/internal/config"
	"github.com/jrsteele09/jobboard-auth/internal/errors"
	"github.com/jrsteele09/jobboard-auth/roles"
	"github.com/jrsteele09/jobboard-auth/sessions"
	"github.com/jrsteele09/jobboard-auth/token"
	"github.com/jrsteele09/jobboard-auth/users"
)

// Repos holds the repository dependencies of the AuthService
type Repos struct {
	Users users.UserRepo
	Roles roles.Repo
}

// LoginResult is returned by Login and Refresh. The refresh token is meant for an
// HTTP-only cookie that lives for RefreshTTL.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	RefreshTTL   time.Duration
	User         *Principal
}

// AuthService runs the session lifecycle: login, refresh with rotation, logout,
// account fetch and registration. It keeps no state between calls; everything
// lives in the repositories.
type AuthService struct {
	repos    Repos
	sessions *sessions.Store
	codec    *token.Codec
	resolver *roles.Resolver
	hasher   users.PasswordHasher
	config   config.SecurityConfig
}

func NewAuthService(repos Repos, codec *token.Codec, hasher users.PasswordHasher, cfg config.SecurityConfig) *AuthService {
	return &AuthService{
		repos:    repos,
		sessions: sessions.NewStore(repos.Users),
		codec:    codec,
		resolver: roles.NewResolver(repos.Roles),
		hasher:   hasher,
		config:   cfg,
	}
}

// Resolver exposes the permission resolver shared with the HTTP authorization
// middleware.
func (as *AuthService) Resolver() *roles.Resolver {
	return as.resolver
}

// CredentialValidator returns a validator over the same identity store.
func (as *AuthService) CredentialValidator() *CredentialValidator {
	return NewCredentialValidator(as.repos.Users, as.hasher, as.resolver)
}

// Codec exposes the token codec used to verify bearer tokens.
func (as *AuthService) Codec() *token.Codec {
	return as.codec
}

// Login starts a session for a principal produced by the CredentialValidator. A
// nil principal means the credentials were rejected. Any earlier session of the
// identity ends.
func (as *AuthService) Login(ctx context.Context, principal *Principal) (*LoginResult, error) {
	if principal == nil {
		return nil, errors.ErrInvalidCredentials
	}

	result, err := as.issue(principal, token.SubjectLogin)
	if err != nil {
		return nil, errors.Wrapf(err, "[AuthService.Login] %s", principal.ID)
	}
	if err := as.sessions.Persist(ctx, principal.ID, result.RefreshToken); err != nil {
		return nil, errors.Wrapf(err, "[AuthService.Login]")
	}
	return result, nil
}

// Refresh exchanges the presented refresh token for a new pair. The presented
// token must verify and still be the identity's stored token; afterwards it is
// dead. Every failure is errors.ErrInvalidSession except storage outages.
func (as *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := as.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("[AuthService.Refresh] %v: %w", err, errors.ErrInvalidSession)
	}

	user, err := as.sessions.FindByToken(ctx, refreshToken)
	if errors.Is(err, errors.ErrSessionNotFound) {
		log.Warn().Str("user_id", claims.UserID).Msg("refresh token is not the stored session")
		return nil, fmt.Errorf("[AuthService.Refresh] %w", errors.ErrInvalidSession)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[AuthService.Refresh]")
	}
	if user.ID != claims.UserID {
		return nil, fmt.Errorf("[AuthService.Refresh] token subject mismatch: %w", errors.ErrInvalidSession)
	}

	role, perms := as.resolver.Lookup(ctx, user.RoleID)
	principal := newPrincipal(user, role, perms)

	result, err := as.issue(principal, token.SubjectRefresh)
	if err != nil {
		return nil, errors.Wrapf(err, "[AuthService.Refresh] %s", user.ID)
	}
	if err := as.sessions.Rotate(ctx, user.ID, refreshToken, result.RefreshToken); err != nil {
		if errors.Is(err, errors.ErrInvalidSession) {
			log.Warn().Str("user_id", user.ID).Msg("refresh lost a concurrent rotation")
		}
		return nil, errors.Wrapf(err, "[AuthService.Refresh]")
	}
	return result, nil
}

// Logout ends the session that refreshToken belongs to. An unknown or empty token
// is not an error: the caller is already logged out.
func (as *AuthService) Logout(ctx context.Context, refreshToken string) error {
	user, err := as.sessions.FindByToken(ctx, refreshToken)
	if errors.Is(err, errors.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "[AuthService.Logout]")
	}
	if err := as.sessions.Clear(ctx, user.ID); err != nil {
		return errors.Wrapf(err, "[AuthService.Logout]")
	}
	return nil
}

// Account returns the principal with its role and permissions resolved afresh.
func (as *AuthService) Account(ctx context.Context, principal *Principal) (*Principal, error) {
	if principal == nil {
		return nil, errors.ErrUnauthorized
	}
	role, perms := as.resolver.Lookup(ctx, principal.Role.ID)
	if role.Name == "" {
		role.Name = principal.Role.Name
	}

	account := *principal
	account.Role = role
	account.Permissions = perms
	return &account, nil
}

// Register creates a self-service identity with the default role. It does not
// log the identity in.
func (as *AuthService) Register(ctx context.Context, in RegisterInput) (*users.User, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	roleID := ""
	role, err := as.repos.Roles.GetByName(ctx, as.config.GetDefaultRole())
	switch {
	case err == nil:
		roleID = role.ID
	case errors.Is(err, errors.ErrNotFound):
		log.Warn().Str("role", as.config.GetDefaultRole()).Msg("default role missing, registering without a role")
	default:
		return nil, errors.Wrapf(err, "[AuthService.Register]")
	}

	return as.create(ctx, in, roleID, nil)
}

// CreateIdentity is the administrative variant of Register: the role is chosen by
// the caller and must exist. actor is the authenticated principal performing the
// creation and is only recorded in the log.
func (as *AuthService) CreateIdentity(ctx context.Context, in CreateInput, actor *Principal) (*users.User, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	if _, err := as.repos.Roles.Get(ctx, in.Role); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, fmt.Errorf("%w: role %s does not exist", errors.ErrInvalidRequest, in.Role)
		}
		return nil, errors.Wrapf(err, "[AuthService.CreateIdentity]")
	}

	user, err := as.create(ctx, in.RegisterInput, in.Role, in.Company)
	if err != nil {
		return nil, err
	}
	if actor != nil {
		log.Info().Str("user_id", user.ID).Str("created_by", actor.ID).Msg("identity created")
	}
	return user, nil
}

func (as *AuthService) create(ctx context.Context, in RegisterInput, roleID string, company *users.CompanyRef) (*users.User, error) {
	if _, err := as.repos.Users.GetByEmail(ctx, in.Email); err == nil {
		return nil, DuplicateEmailError(in.Email)
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, errors.Wrapf(err, "[AuthService.create]")
	}

	hash, err := as.hasher.Hash(in.Password)
	if err != nil {
		return nil, errors.Wrapf(err, "[AuthService.create] hashing password")
	}

	user := &users.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Age:          in.Age,
		Gender:       in.Gender,
		Address:      in.Address,
		RoleID:       roleID,
		Company:      company,
	}
	if err := as.repos.Users.Create(ctx, user); err != nil {
		if errors.Is(err, errors.ErrDuplicateIdentity) {
			return nil, DuplicateEmailError(in.Email)
		}
		return nil, errors.Wrapf(err, "[AuthService.create]")
	}
	return user, nil
}

func (as *AuthService) issue(principal *Principal, subject string) (*LoginResult, error) {
	claims := principal.Claims(subject)
	access, err := as.codec.IssueAccess(claims)
	if err != nil {
		return nil, err
	}
	refresh, err := as.codec.IssueRefresh(claims)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		RefreshTTL:   as.codec.RefreshTTL(),
		User:         principal,
	}, nil
}

// DuplicateEmailError names the taken email while still matching
// errors.ErrDuplicateIdentity.
func DuplicateEmailError(email string) error {
	return fmt.Errorf("email %s already exists: %w", email, errors.ErrDuplicateIdentity)
}
