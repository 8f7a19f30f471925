package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/jobboard-auth/auth"
	"github.com/jrsteele09/jobboard-auth/internal/config"
	"github.com/jrsteele09/jobboard-auth/internal/errors"
	"github.com/jrsteele09/jobboard-auth/roles"
	"github.com/jrsteele09/jobboard-auth/users"
)

const (
	DefaultAdminEmail = "admin@gmail.com"
	DefaultUserEmail  = "user@gmail.com"
)

// InitialPermissions is the permission catalog created on an empty database.
var InitialPermissions = []roles.Permission{
	{Name: "Create user", APIPath: "/users", Method: "POST", Module: "USERS"},
	{Name: "List users", APIPath: "/users", Method: "GET", Module: "USERS"},
	{Name: "Get user", APIPath: "/users/{id}", Method: "GET", Module: "USERS"},
	{Name: "Update user", APIPath: "/users/{id}", Method: "PATCH", Module: "USERS"},
	{Name: "Delete user", APIPath: "/users/{id}", Method: "DELETE", Module: "USERS"},
	{Name: "Create company", APIPath: "/companies", Method: "POST", Module: "COMPANIES"},
	{Name: "Update company", APIPath: "/companies/{id}", Method: "PATCH", Module: "COMPANIES"},
	{Name: "Delete company", APIPath: "/companies/{id}", Method: "DELETE", Module: "COMPANIES"},
	{Name: "Create job", APIPath: "/jobs", Method: "POST", Module: "JOBS"},
	{Name: "Update job", APIPath: "/jobs/{id}", Method: "PATCH", Module: "JOBS"},
	{Name: "Delete job", APIPath: "/jobs/{id}", Method: "DELETE", Module: "JOBS"},
	{Name: "List resumes", APIPath: "/resumes", Method: "GET", Module: "RESUMES"},
	{Name: "Update resume status", APIPath: "/resumes/{id}", Method: "PATCH", Module: "RESUMES"},
	{Name: "Dashboard overview", APIPath: "/dashboard/overview", Method: "GET", Module: "DASHBOARD"},
}

// InitialiseSystem seeds the permission catalog, the admin and default roles and
// the initial identities. Each step only runs when its data is missing, so calling
// it on every start is safe. When no initial password is configured one is
// generated and returned so it can be shown once.
func InitialiseSystem(ctx context.Context, repos auth.Repos, hasher users.PasswordHasher, cfg config.Config) (generatedPassword string, err error) {
	log.Info().Msg("Bootstrap: checking system configuration")

	perms, err := initialisePermissions(ctx, repos.Roles)
	if err != nil {
		return "", fmt.Errorf("failed to bootstrap permissions: %w", err)
	}

	adminRole, err := initialiseRole(ctx, repos.Roles, cfg.GetAdminRole(), "Administrator", perms)
	if err != nil {
		return "", fmt.Errorf("failed to bootstrap admin role: %w", err)
	}
	userRole, err := initialiseRole(ctx, repos.Roles, cfg.GetDefaultRole(), "User", nil)
	if err != nil {
		return "", fmt.Errorf("failed to bootstrap default role: %w", err)
	}

	password := cfg.GetInitPassword()
	if password == "" {
		if password, err = generatePassword(); err != nil {
			return "", err
		}
	}

	adminCreated, err := initialiseIdentity(ctx, repos.Users, hasher, &users.User{
		Name:    "Admin",
		Email:   DefaultAdminEmail,
		Age:     21,
		Gender:  "Male",
		Address: "123 Admin Street",
		RoleID:  adminRole.ID,
	}, password)
	if err != nil {
		return "", fmt.Errorf("failed to bootstrap admin identity: %w", err)
	}
	userCreated, err := initialiseIdentity(ctx, repos.Users, hasher, &users.User{
		Name:    "User",
		Email:   DefaultUserEmail,
		Age:     25,
		Gender:  "Male",
		Address: "123 User Street",
		RoleID:  userRole.ID,
	}, password)
	if err != nil {
		return "", fmt.Errorf("failed to bootstrap default identity: %w", err)
	}

	if !adminCreated && !userCreated {
		log.Info().Msg("Bootstrap: sample data already initialised")
		return "", nil
	}
	if cfg.GetInitPassword() == "" {
		generatedPassword = password
		log.Warn().Str("email", DefaultAdminEmail).Msg("Bootstrap: no INIT_PASSWORD set, generated a password for the seeded identities")
	}
	log.Info().Str("admin", DefaultAdminEmail).Str("user", DefaultUserEmail).Msg("Bootstrap complete")
	return generatedPassword, nil
}

func initialisePermissions(ctx context.Context, repo roles.Repo) ([]roles.Permission, error) {
	existing, err := repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	created := make([]roles.Permission, 0, len(InitialPermissions))
	for _, p := range InitialPermissions {
		if err := repo.CreatePermission(ctx, &p); err != nil {
			return nil, err
		}
		created = append(created, p)
	}
	log.Info().Int("count", len(created)).Msg("   Created permission catalog")
	return created, nil
}

func initialiseRole(ctx context.Context, repo roles.Repo, name, description string, perms []roles.Permission) (*roles.Role, error) {
	role, err := repo.GetByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	role = &roles.Role{
		Name:        name,
		Description: description,
		Active:      true,
		Permissions: perms,
	}
	if err := repo.Create(ctx, role); err != nil {
		return nil, err
	}
	log.Info().Str("role", name).Int("permissions", len(perms)).Msg("   Created role")
	return role, nil
}

func initialiseIdentity(ctx context.Context, repo users.UserRepo, hasher users.PasswordHasher, user *users.User, password string) (bool, error) {
	_, err := repo.GetByEmail(ctx, user.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return false, err
	}

	user.PasswordHash, err = hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := repo.Create(ctx, user); err != nil {
		return false, err
	}
	log.Info().Str("email", user.Email).Msg("   Created identity")
	return true, nil
}

func generatePassword() (string, error) {
	passwordBytes := make([]byte, 16)
	if _, err := rand.Read(passwordBytes); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(passwordBytes), nil
}
