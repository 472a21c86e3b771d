package db

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// legacyHash matches the unsalted SHA-256 hex digests written by earlier versions of the board.
var legacyHash = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// dummy returns a hash to compare against when the username is unknown, so a miss costs the
// same as a wrong password.
func dummy() []byte {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})

	return dummyHash
}

// LegacyHash returns the unsalted SHA-256 hex digest earlier versions stored.
func LegacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))

	return hex.EncodeToString(sum[:])
}

func (d *Database) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}

	return string(h), nil
}

// checkPassword reports whether the password matches the stored hash and whether the stored
// hash is a legacy digest that should be upgraded.
func checkPassword(stored, password string) (ok, legacy bool) {
	if legacyHash.MatchString(stored) {
		got := LegacyHash(password)

		return subtle.ConstantTimeCompare([]byte(strings.ToLower(stored)), []byte(got)) == 1, true
	}

	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil, false
}

func (d *Database) findUser(ctx context.Context, username string) (*User, error) {
	users, err := d.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading users: %w", err)
	}

	for i := range users {
		if strings.EqualFold(strings.TrimSpace(users[i].Username), strings.TrimSpace(username)) {
			return &users[i], nil
		}
	}

	return nil, nil
}

// VerifyLogin checks the password of a user looked up by trimmed, case-insensitive username.
// An unknown user, a blank stored hash and a wrong password all return ErrInvalidCredentials.
// A successful login against a legacy SHA-256 hash rewrites it as bcrypt.
func (d *Database) VerifyLogin(ctx context.Context, username, password string) (*User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := d.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if user == nil || user.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(dummy(), []byte(password))

		return nil, ErrInvalidCredentials
	}

	ok, legacy := checkPassword(user.PasswordHash, password)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if user.Role == "" {
		user.Role = RoleCollaborator
	}

	if legacy {
		if err := d.setPassword(ctx, user.Username, password); err != nil {
			log.Warn().Err(err).Str("user", user.Username).Msg("could not upgrade legacy password hash")
		} else {
			log.Info().Str("user", user.Username).Msg("upgraded legacy password hash")
		}
	}

	return user, nil
}

func checkNewPassword(password, confirm string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}

	return nil
}

// CreateUser adds a user. All validation happens before anything is written.
func (d *Database) CreateUser(ctx context.Context, username, password, confirm, role string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	if err := checkNewPassword(password, confirm); err != nil {
		return nil, err
	}

	role, err := ParseRole(role)
	if err != nil {
		return nil, err
	}

	existing, err := d.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return nil, fmt.Errorf("%w: user %q already exists", ErrInvalidInput, username)
	}

	hash, err := d.hash(password)
	if err != nil {
		return nil, err
	}

	user := User{Username: username, PasswordHash: hash, Role: role}

	if _, err := d.users.Append(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user %s: %w", username, err)
	}

	log.Info().Str("user", username).Str("role", role).Msg("created user")

	return &user, nil
}

// ChangePassword replaces a user's password hash.
func (d *Database) ChangePassword(ctx context.Context, username, password, confirm string) error {
	if err := checkNewPassword(password, confirm); err != nil {
		return err
	}

	return d.setPassword(ctx, username, password)
}

func (d *Database) setPassword(ctx context.Context, username, password string) error {
	hash, err := d.hash(password)
	if err != nil {
		return err
	}

	_, err = d.users.Patch(ctx, strings.TrimSpace(username), map[string]string{"password_hash": hash})
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}

	if err != nil {
		return fmt.Errorf("error updating password of %s: %w", username, err)
	}

	return nil
}

// ListUsers returns every user in sheet order.
func (d *Database) ListUsers(ctx context.Context) ([]User, error) {
	users, err := d.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading users: %w", err)
	}

	return users, nil
}

// AssignableUsers returns the sorted usernames that can be made task collaborators.
func (d *Database) AssignableUsers(ctx context.Context) ([]string, error) {
	users, err := d.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	names := []string{}

	for _, u := range users {
		if IsAssignableRole(u.Role) {
			names = append(names, u.Username)
		}
	}

	sort.Strings(names)

	return names, nil
}
