package service

import (
	"context"
	"fmt"
	"time"

	appErrors "github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/farmbasket/farmbasket-backend/internal/pubsub"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService issues and verifies session identities. Guest sessions are
// first class: SignInAnonymously creates a credential-less user so a buyer
// can fill a basket and order before ever registering.
type AuthService interface {
	SignInAnonymously(ctx context.Context) (*models.AuthResponse, error)
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	IssueToken(user *models.User) (string, int, error)
	VerifyToken(tokenString string) (*models.Claims, error)
	ObserveAuthState() (<-chan models.AuthState, func())
	PublishAuthState(state models.AuthState)
	Close()
}

type authService struct {
	users       UserStore
	profiles    ProfileStore
	rateLimiter LoginRateLimiter
	jwtKey      []byte
	expiry      time.Duration
	stream      *pubsub.Stream[models.AuthState]
}

func NewAuthService(users UserStore, profiles ProfileStore, rateLimiter LoginRateLimiter, jwtKey []byte, expiryHours int) AuthService {
	return &authService{
		users:       users,
		profiles:    profiles,
		rateLimiter: rateLimiter,
		jwtKey:      jwtKey,
		expiry:      time.Duration(expiryHours) * time.Hour,
		stream:      pubsub.NewStream[models.AuthState](),
	}
}

// SignInAnonymously creates a fresh guest identity with an empty profile and
// returns a token for it. No credentials are stored until the guest links a
// permanent account.
func (s *authService) SignInAnonymously(ctx context.Context) (*models.AuthResponse, error) {

	user := &models.User{
		ID:        uuid.New(),
		Anonymous: true,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, appErrors.DatabaseError("Failed to create guest session").WithError(err)
	}

	profile := &models.BuyerProfile{
		ID:             user.ID,
		PlacedOrderIDs: map[string]uuid.UUID{},
	}

	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		return nil, appErrors.DatabaseError("Failed to create guest profile").WithError(err)
	}

	token, expiresIn, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	userID := user.ID
	s.PublishAuthState(models.AuthState{UserID: &userID, Anonymous: true})

	return &models.AuthResponse{
		Success:   true,
		Token:     token,
		ExpiresIn: expiresIn,
		UserID:    user.ID,
		Anonymous: true,
	}, nil
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {

	existingUser, _ := s.users.GetUserByEmail(ctx, req.Email)
	if existingUser != nil {
		return nil, appErrors.DuplicateEntryError("Email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.InternalError("Failed to secure password").WithError(err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeDuplicateEntry) {
			return nil, err
		}

		return nil, appErrors.DatabaseError("Failed to create user").WithError(err)
	}

	profile := &models.BuyerProfile{
		ID:             user.ID,
		DisplayName:    sanitizeText(req.DisplayName),
		Email:          req.Email,
		PlacedOrderIDs: map[string]uuid.UUID{},
	}

	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		return nil, appErrors.DatabaseError("Failed to create buyer profile").WithError(err)
	}

	token, expiresIn, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	userID := user.ID
	s.PublishAuthState(models.AuthState{UserID: &userID})

	return &models.AuthResponse{
		Success:   true,
		Token:     token,
		ExpiresIn: expiresIn,
		UserID:    user.ID,
	}, nil
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {

	allowed, remaining, retryAfter, err := s.rateLimiter.CheckLoginRateLimit(ctx, req.Email)
	if err != nil {
		return nil, appErrors.RemoteFailureError("Rate limit check failed").WithError(err)
	}

	if !allowed {
		return nil, appErrors.TooManyRequestsError("Too many login attempts. Please try again later.").
			WithDetail(fmt.Sprintf("retry after %d seconds", retryAfter))
	}

	// One generic failure for a missing user and a wrong password, so the
	// endpoint cannot be used to probe which emails are registered.
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, appErrors.UnauthorizedError("Invalid email or password").
			WithDetail(fmt.Sprintf("%d attempts remaining", remaining))
	}

	token, expiresIn, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	userID := user.ID
	s.PublishAuthState(models.AuthState{UserID: &userID, Anonymous: user.Anonymous})

	return &models.AuthResponse{
		Success:   true,
		Token:     token,
		ExpiresIn: expiresIn,
		UserID:    user.ID,
		Anonymous: user.Anonymous,
	}, nil
}

// IssueToken signs a bearer token for the user. Returns the token and its
// lifetime in seconds.
func (s *authService) IssueToken(user *models.User) (string, int, error) {

	claims := &models.Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Anonymous: user.Anonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.jwtKey)
	if err != nil {
		return "", 0, appErrors.InternalError("Failed to generate authentication token").WithError(err)
	}

	return tokenString, int(time.Until(claims.ExpiresAt.Time).Seconds()), nil
}

// VerifyToken parses and validates a bearer token, returning its claims.
func (s *authService) VerifyToken(tokenString string) (*models.Claims, error) {

	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.BadRequestError("unexpected signing method")
		}

		return s.jwtKey, nil
	})

	if err != nil || !token.Valid {
		return nil, appErrors.UnauthorizedError("Invalid or expired token").WithError(err)
	}

	return claims, nil
}

// ObserveAuthState subscribes to session starts and ends. The most recent
// state is replayed to new observers.
func (s *authService) ObserveAuthState() (<-chan models.AuthState, func()) {
	return s.stream.Subscribe()
}

func (s *authService) PublishAuthState(state models.AuthState) {
	s.stream.Publish(state)
}

func (s *authService) Close() {
	s.stream.Close()
}
