package casdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// sdkClient is the part of *casdoorsdk.Client used here
type sdkClient interface {
	GetUserByEmail(email string) (*casdoorsdk.User, error)
	AddUser(user *casdoorsdk.User) (bool, error)
	CheckUserPassword(user *casdoorsdk.User) (bool, error)
}

// account is the cached subset of a Casdoor user needed to check a password
type account struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
	ID    string `json:"id"`
	Email string `json:"email"`
}

type IdentityCasdoor struct {
	client sdkClient
	redis  *redis.Client
	config CasdoorConfig
	logger *slog.Logger

	// Cache settings
	cachePrefix string
	cacheTTL    time.Duration
}

func NewIdentityCasdoor(config CasdoorConfig, redisClient *redis.Client, logger *slog.Logger) repositories.IdentityProvider {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)
	return newIdentityCasdoor(client, config, redisClient, logger)
}

func newIdentityCasdoor(client sdkClient, config CasdoorConfig, redisClient *redis.Client, logger *slog.Logger) *IdentityCasdoor {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityCasdoor{
		client:      client,
		redis:       redisClient,
		config:      config,
		logger:      logger,
		cachePrefix: "idp:account:",
		cacheTTL:    15 * time.Minute,
	}
}

// ===== CACHE METHODS =====

func (c *IdentityCasdoor) getCacheKey(email string) string {
	return fmt.Sprintf("%s%s", c.cachePrefix, email)
}

func (c *IdentityCasdoor) getAccountFromCache(ctx context.Context, email string) (*account, error) {
	if c.redis == nil {
		return nil, nil
	}

	data, err := c.redis.Get(ctx, c.getCacheKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var acc account
	if err := json.Unmarshal([]byte(data), &acc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached account: %w", err)
	}
	return &acc, nil
}

func (c *IdentityCasdoor) setAccountCache(ctx context.Context, acc *account) {
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(acc)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.getCacheKey(acc.Email), data, c.cacheTTL).Err(); err != nil {
		c.logger.WarnContext(ctx, "Failed to cache identity account", "error", err)
	}
}

// ===== LOOKUPS =====

// lookup resolves an email to its Casdoor account; nil when none exists
func (c *IdentityCasdoor) lookup(ctx context.Context, email string) (*account, error) {
	if acc, err := c.getAccountFromCache(ctx, email); err == nil && acc != nil {
		return acc, nil
	}

	casdoorUser, err := c.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email from Casdoor: %w", err)
	}
	if casdoorUser == nil || casdoorUser.Name == "" {
		return nil, nil
	}

	acc := &account{
		Owner: casdoorUser.Owner,
		Name:  casdoorUser.Name,
		ID:    casdoorUser.Id,
		Email: strings.ToLower(casdoorUser.Email),
	}
	if acc.Owner == "" {
		acc.Owner = c.config.OrganizationName
	}
	if acc.Email == "" {
		acc.Email = email
	}
	c.setAccountCache(ctx, acc)
	return acc, nil
}

// ===== IDENTITY PROVIDER =====

// SignUp adds the account to the configured organization
func (c *IdentityCasdoor) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("sign up failed: email and password are required")
	}

	existing, err := c.lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("sign up %s: %w", email, repositories.ErrAlreadyExists)
	}

	id := uuid.NewString()
	casdoorUser := &casdoorsdk.User{
		Owner:             c.config.OrganizationName,
		Name:              accountName(email),
		Id:                id,
		CreatedTime:       time.Now().UTC().Format(time.RFC3339),
		Type:              "normal-user",
		Password:          password,
		DisplayName:       email,
		Email:             email,
		SignupApplication: c.config.ApplicationName,
	}

	ok, err := c.client.AddUser(casdoorUser)
	if err != nil {
		return nil, fmt.Errorf("failed to add user to Casdoor: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("sign up %s: %w", email, repositories.ErrAlreadyExists)
	}

	c.setAccountCache(ctx, &account{Owner: casdoorUser.Owner, Name: casdoorUser.Name, ID: id, Email: email})
	c.logger.InfoContext(ctx, "auth_event", "event", "sign_up", "email", email, "provider", "casdoor")

	return &models.Identity{UID: id, Email: email}, nil
}

// SignIn checks the password against Casdoor
func (c *IdentityCasdoor) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	acc, err := c.lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if acc == nil || password == "" {
		c.logger.InfoContext(ctx, "auth_event", "event", "sign_in_failed", "email", email, "provider", "casdoor")
		return nil, repositories.ErrInvalidCredentials
	}

	ok, err := c.client.CheckUserPassword(&casdoorsdk.User{
		Owner:    acc.Owner,
		Name:     acc.Name,
		Password: password,
	})
	if err != nil && !isPasswordRejected(err) {
		return nil, fmt.Errorf("failed to check password with Casdoor: %w", err)
	}
	if err != nil || !ok {
		c.logger.InfoContext(ctx, "auth_event", "event", "sign_in_failed", "email", email, "provider", "casdoor")
		return nil, repositories.ErrInvalidCredentials
	}

	c.logger.InfoContext(ctx, "auth_event", "event", "sign_in", "email", email, "provider", "casdoor")
	return &models.Identity{UID: acc.ID, Email: acc.Email}, nil
}

// passwordRejections are fragments of the messages Casdoor answers with
// when it refuses a password check
var passwordRejections = []string{
	"incorrect",
	"wrong password",
	"doesn't exist",
	"forbidden",
}

// isPasswordRejected tells a Casdoor refusal apart from a transport failure
func isPasswordRejected(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range passwordRejections {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// accountName derives a Casdoor user name from an email
func accountName(email string) string {
	var b strings.Builder
	for _, r := range email {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
