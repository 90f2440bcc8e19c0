package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/Falcon-J/saathi/core/config"
	"github.com/Falcon-J/saathi/internal/model"
	"github.com/Falcon-J/saathi/internal/store"
)

const sessionIDBytes = 32

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\s-]+$`)
)

type AuthService interface {
	Signup(ctx context.Context, email, username, password string) (*model.User, *model.Session, error)
	Login(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	ValidateSession(ctx context.Context, sessionID string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

type authService struct {
	userStore    store.UserStore
	sessionStore store.SessionStore
	cfg          config.SessionConfig
	hashCost     int
}

func NewAuthService(userStore store.UserStore, sessionStore store.SessionStore, cfg config.SessionConfig) AuthService {
	return &authService{
		userStore:    userStore,
		sessionStore: sessionStore,
		cfg:          cfg,
		hashCost:     bcrypt.DefaultCost,
	}
}

func (s *authService) Signup(ctx context.Context, email, username, password string) (*model.User, *model.Session, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)

	if err := validateEmail(email); err != nil {
		return nil, nil, err
	}
	if n := utf8.RuneCountInString(username); n < 2 || n > 50 || !usernamePattern.MatchString(username) {
		return nil, nil, invalid("username must be 2-50 characters, letters, numbers, spaces, hyphens, or underscores only")
	}
	if n := len(password); n < 6 || n > 72 {
		return nil, nil, invalid("password must be 6-72 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, fmt.Errorf("creating user: %w", err)
	}

	session, err := s.createSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	slog.InfoContext(ctx, "user signed up", "email", email)
	return user, session, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, nil, err
	}
	if password == "" {
		return nil, nil, invalid("password is required")
	}

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("getting user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.InfoContext(ctx, "login rejected", "email", email)
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	slog.InfoContext(ctx, "user logged in", "email", email)
	return user, session, nil
}

func (s *authService) ValidateSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}

	if session.IsExpired(time.Now()) {
		if err := s.sessionStore.Delete(ctx, sessionID); err != nil {
			slog.WarnContext(ctx, "failed to delete expired session", "error", err)
		}
		return nil, ErrSessionExpired
	}

	return session, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessionStore.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *authService) createSession(ctx context.Context, user *model.User) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}
	if err := s.sessionStore.Create(ctx, session, s.cfg.TTL); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return session, nil
}

func generateSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if len(email) > 255 || !emailPattern.MatchString(email) {
		return invalid("please enter a valid email address")
	}
	return nil
}
