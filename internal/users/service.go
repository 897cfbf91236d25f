// Package users manages the accounts stored in the users collection.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/docstore"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/models"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrConflict           = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Service encapsulates user-related business logic
type Service struct {
	store *docstore.Store
	cost  int
}

func NewService(store *docstore.Store) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost}
}

func (s *Service) all(ctx context.Context) ([]models.User, error) {
	return docstore.Read(ctx, s.store, models.CollectionUsers, []models.User{})
}

func (s *Service) update(ctx context.Context, fn func([]models.User) ([]models.User, error)) error {
	_, err := docstore.Update(ctx, s.store, models.CollectionUsers, fn, []models.User{})
	return err
}

// List returns every account without password hashes.
func (s *Service) List(ctx context.Context) ([]models.Principal, error) {
	list, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Principal, 0, len(list))
	for _, u := range list {
		out = append(out, u.Principal())
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.Principal, error) {
	list, err := s.all(ctx)
	if err != nil {
		return models.Principal{}, err
	}
	i := indexByID(list, id)
	if i < 0 {
		return models.Principal{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return list[i].Principal(), nil
}

func (s *Service) Create(ctx context.Context, username string, role models.Role, password string) (models.Principal, error) {
	hash, err := s.hash(password)
	if err != nil {
		return models.Principal{}, err
	}
	u := models.User{ID: uuid.NewString(), Username: username, Role: role, PasswordHash: hash}
	err = s.update(ctx, func(list []models.User) ([]models.User, error) {
		if indexByName(list, username, "") >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrConflict, username)
		}
		return append(append([]models.User{}, list...), u), nil
	})
	if err != nil {
		return models.Principal{}, err
	}
	return u.Principal(), nil
}

// Update renames and re-roles an account. An empty password keeps the current one.
func (s *Service) Update(ctx context.Context, id, username string, role models.Role, password string) (models.Principal, error) {
	var hash string
	if password != "" {
		var err error
		if hash, err = s.hash(password); err != nil {
			return models.Principal{}, err
		}
	}
	var out models.User
	err := s.update(ctx, func(list []models.User) ([]models.User, error) {
		i := indexByID(list, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if indexByName(list, username, id) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrConflict, username)
		}
		next := append([]models.User{}, list...)
		next[i].Username = username
		next[i].Role = role
		if hash != "" {
			next[i].PasswordHash = hash
		}
		out = next[i]
		return next, nil
	})
	if err != nil {
		return models.Principal{}, err
	}
	return out.Principal(), nil
}

func (s *Service) Delete(ctx context.Context, id string) (models.Principal, error) {
	var removed models.User
	err := s.update(ctx, func(list []models.User) ([]models.User, error) {
		i := indexByID(list, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		removed = list[i]
		return append(list[:i:i], list[i+1:]...), nil
	})
	return removed.Principal(), err
}

// Authenticate checks a username (case-insensitive) and password.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.Principal, error) {
	list, err := s.all(ctx)
	if err != nil {
		return models.Principal{}, err
	}
	i := indexByName(list, username, "")
	if i < 0 {
		return models.Principal{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(list[i].PasswordHash), []byte(password)); err != nil {
		return models.Principal{}, ErrInvalidCredentials
	}
	return list[i].Principal(), nil
}

// EnsureAdmin creates or refreshes the account with id "admin-<username>".
// It reports whether a new account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string, role models.Role) (bool, error) {
	hash, err := s.hash(password)
	if err != nil {
		return false, err
	}
	admin := models.User{ID: "admin-" + username, Username: username, Role: role, PasswordHash: hash}
	created := false
	err = s.update(ctx, func(list []models.User) ([]models.User, error) {
		next := append([]models.User{}, list...)
		for i := range next {
			if next[i].Username == username {
				next[i] = admin
				return next, nil
			}
		}
		created = true
		return append(next, admin), nil
	})
	return created, err
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func indexByID(list []models.User, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// indexByName finds username case-insensitively, ignoring the account skipID.
func indexByName(list []models.User, username, skipID string) int {
	for i := range list {
		if list[i].ID != skipID && strings.EqualFold(list[i].Username, username) {
			return i
		}
	}
	return -1
}
