package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"research_portal/portal/store"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrGeneratingJwt      = errors.New("error generating access token")
)

const tokenLifetime = 60 * time.Minute

// Provider authenticates users against credentials held on User nodes in the
// metadata graph and issues bearer tokens for the HTTP surface.
type Provider struct {
	jwtManager *JwtManager
	store      store.Gateway

	adminUsername string
}

type ProviderArgs struct {
	Secret        []byte
	AdminUsername string
	AdminPassword string
}

// NewProvider provisions the initial admin user and returns the provider.
// Provisioning is an upsert, so restarting the server is safe.
func NewProvider(ctx context.Context, gateway store.Gateway, args ProviderArgs) (*Provider, error) {
	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(args.AdminPassword), 10)
	if err != nil {
		return nil, fmt.Errorf("error encrypting admin password: %w", err)
	}

	if err := gateway.EnsureUser(ctx, args.AdminUsername, hashedPwd); err != nil {
		return nil, fmt.Errorf("error adding initial admin user: %w", err)
	}

	return &Provider{
		jwtManager:    NewJwtManager(args.Secret),
		store:         gateway,
		adminUsername: args.AdminUsername,
	}, nil
}

func (p *Provider) AuthMiddleware() chi.Middlewares {
	return chi.Middlewares{p.jwtManager.Verifier(), p.jwtManager.Authenticator()}
}

// AdminOnly restricts an endpoint to the provisioned admin user.
func (p *Provider) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, err := UsernameFromContext(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		if username != p.adminUsername {
			http.Error(w, "user must be an admin to access this endpoint", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Provider) Login(ctx context.Context, username, password string) (string, error) {
	hash, err := p.store.GetUserCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		slog.Error("error retrieving user credentials", "username", username, "error", err)
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := p.jwtManager.CreateUserJwt(username, tokenLifetime)
	if err != nil {
		return "", ErrGeneratingJwt
	}
	return token, nil
}

// CreateUser grants login credentials to a username, upserting the User node.
// Authors that already exist as credential-less nodes become login capable.
func (p *Provider) CreateUser(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errors.New("username and password must be specified")
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return fmt.Errorf("error encrypting password: %w", err)
	}

	if err := p.store.EnsureUser(ctx, username, hashedPwd); err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}
