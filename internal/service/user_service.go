package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"everytask/internal/auth"
	"everytask/internal/gamification"
	"everytask/internal/model"
	"everytask/internal/repository"
)

// LevelView describes a user's level as shown to clients.
type LevelView struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	PointsToNextLevel int    `json:"pointsToNextLevel"`
}

// Profile is the public view of a user.
type Profile struct {
	ID         uint      `json:"id"`
	Email      string    `json:"email,omitempty"`
	Name       string    `json:"name"`
	DateFormat string    `json:"dateFormat"`
	Points     int       `json:"points"`
	Level      LevelView `json:"level"`
}

// NewProfile builds the public view of user.
func NewProfile(user *model.User) Profile {
	level := gamification.LevelByID(user.Level)
	p := Profile{
		ID:         user.ID,
		Name:       user.Name,
		DateFormat: user.DateFormat,
		Points:     user.Points,
		Level: LevelView{
			ID:                level.ID,
			Name:              level.Name,
			PointsToNextLevel: gamification.PointsToNextLevel(user.Points),
		},
	}
	if user.Email != nil {
		p.Email = *user.Email
	}
	return p
}

// ProfileUpdate is a partial profile update.
type ProfileUpdate struct {
	Name       *string
	DateFormat *string
}

// UserService handles accounts: registration, login, profile and the Telegram link.
type UserService struct {
	store *repository.Store
	auth  *auth.Manager
}

func NewUserService(store *repository.Store, authManager *auth.Manager) *UserService {
	return &UserService{store: store, auth: authManager}
}

// Register creates an email account and returns it with an access token.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if name == "" {
		return nil, "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := validatePassword(password); err != nil {
		return nil, "", err
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Email: &email, Name: name, PasswordHash: hash, DateFormat: "YYYY-MM-DD", Level: 1}
	err = s.store.Transaction(ctx, func(tx *repository.Tx) error {
		if _, err := tx.Users.FindByEmail(ctx, email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if err := tx.Users.Create(ctx, user); err != nil {
			return err
		}
		_, err := tx.Counters.GetOrCreate(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.auth.GenerateToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if user.PasswordHash == "" || s.auth.ComparePassword(user.PasswordHash, password) != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.auth.GenerateToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

func (s *UserService) Get(ctx context.Context, userID uint) (*model.User, error) {
	return s.store.Users.FindByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*model.User, error) {
	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		fields["name"] = name
	}
	if update.DateFormat != nil {
		format := strings.TrimSpace(*update.DateFormat)
		if format == "" {
			return nil, fmt.Errorf("%w: date format is required", ErrInvalidInput)
		}
		fields["date_format"] = format
	}
	if len(fields) == 0 {
		return user, nil
	}
	if err := s.store.Users.Updates(ctx, user, fields); err != nil {
		return nil, err
	}
	return s.store.Users.FindByID(ctx, userID)
}

func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash == "" || s.auth.ComparePassword(user.PasswordHash, current) != nil {
		return ErrInvalidCredentials
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	hash, err := s.auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.Users.Updates(ctx, user, map[string]interface{}{"password_hash": hash})
}

func (s *UserService) Delete(ctx context.Context, userID uint) error {
	return s.store.Transaction(ctx, func(tx *repository.Tx) error {
		if _, err := tx.Users.FindByID(ctx, userID); err != nil {
			return err
		}
		return tx.Users.Delete(ctx, userID)
	})
}

// EnsureTelegramUser finds or creates the user behind a Telegram account.
func (s *UserService) EnsureTelegramUser(ctx context.Context, telegramID int64, name string) (*model.User, error) {
	var user *model.User
	err := s.store.Transaction(ctx, func(tx *repository.Tx) error {
		u, created, err := tx.Users.UpsertFromTelegram(ctx, telegramID, strings.TrimSpace(name))
		if err != nil {
			return err
		}
		user = u
		if created {
			_, err = tx.Counters.GetOrCreate(ctx, u.ID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListTelegramUsers returns users the bot can message.
func (s *UserService) ListTelegramUsers(ctx context.Context) ([]model.User, error) {
	return s.store.Users.ListWithTelegram(ctx)
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	var digit, upper, lower bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
	}
	if !digit || !upper || !lower {
		return fmt.Errorf("%w: password needs a digit, an upper case and a lower case letter", ErrInvalidInput)
	}
	return nil
}
