// Package staff authenticates the volunteers operating the check-in desk.
package staff

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/crypto/bcrypt"
)

const maxSimilarity = .7

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooSimilar = errors.New("password is too similar to the username")
)

// Directory holds the staff accounts configured for this deployment. It never changes once built.
type Directory struct {
	hashes map[string][]byte
}

// ParseAccounts reads accounts in the form `user:bcrypt-hash,user2:bcrypt-hash`.
// Usernames are case insensitive.
func ParseAccounts(raw string) (*Directory, error) {
	dir := &Directory{hashes: make(map[string][]byte)}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return dir, nil
	}

	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		i := strings.Index(p, ":")
		if i <= 0 || i == len(p)-1 {
			return nil, errors.Errorf("staff account %q: want user:hash", p)
		}
		username, hash := strings.ToLower(p[:i]), []byte(p[i+1:])
		if _, err := bcrypt.Cost(hash); err != nil {
			return nil, errors.Wrapf(err, "staff account %q", username)
		}
		dir.hashes[username] = hash
	}
	return dir, nil
}

func (d *Directory) Len() int { return len(d.hashes) }

// Authenticate returns the canonical username when password matches.
func (d *Directory) Authenticate(username, password string) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, ok := d.hashes[username]
	if !ok || password == "" {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return username, nil
}

// HashPassword returns the bcrypt hash to put in the staff accounts setting.
// username is optional; when set, passwords too similar to it are refused.
func HashPassword(username, password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	if similarity(password, username) >= maxSimilarity {
		return "", ErrPasswordTooSimilar
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hashing password")
	}
	return string(hash), nil
}

func similarity(password, username string) float64 {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return 0
	}
	return difflib.NewMatcher(strings.Split(strings.ToLower(password), ""), strings.Split(username, "")).QuickRatio()
}
