// Package account registers users, checks their credentials and manages
// their profile and chat sort lists.
package account

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/models"
	"SOCIAL_server/store"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var validUsername = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var (
	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*?&#]{8,}$`)
	passwordUpper   = regexp.MustCompile(`[A-Z]`)
	passwordDigit   = regexp.MustCompile(`\d`)
	passwordSpecial = regexp.MustCompile(`[@$!%*?&#]`)
)

// keyBits is the size of the generated RSA key pair
var keyBits = 2048

// LastMessages reads the newest message of a private conversation
type LastMessages interface {
	LastMessage(ctx context.Context, conversationID string) (*models.Message, error)
}

// Service manages user accounts
type Service struct {
	store         store.Store
	conversations LastMessages
}

// New creates an account service
func New(s store.Store, conversations LastMessages) *Service {
	return &Service{store: s, conversations: conversations}
}

// ValidPassword reports whether password follows the policy: at least 8
// characters with an uppercase letter, a digit and one of @$!%*?&#
func ValidPassword(password string) bool {
	return passwordCharset.MatchString(password) &&
		passwordUpper.MatchString(password) &&
		passwordDigit.MatchString(password) &&
		passwordSpecial.MatchString(password)
}

func generateKeyPair() (public string, private string, err error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return "", "", err
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", "", err
	}
	priv, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", "", err
	}
	public = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub}))
	private = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: priv}))
	return public, private, nil
}

func (s *Service) user(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.GetUserByName(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(errors.ErrNotFound, "user %q", username)
	}
	return user, err
}

// Register creates a user with the default sort lists and an empty notification record
func (s *Service) Register(ctx context.Context, username, password, imageURL string) (*models.User, error) {
	if !validUsername.MatchString(username) {
		return nil, errors.Wrap(errors.ErrInvalidInput, "username %q", username)
	}
	if !ValidPassword(password) {
		return nil, errors.Wrap(errors.ErrInvalidInput, "password does not follow the policy")
	}

	if _, err := s.store.GetUserByName(ctx, username); err == nil {
		return nil, errors.Wrap(errors.ErrAlreadyExists, "user %q", username)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	publicKey, privateKey, err := generateKeyPair()
	if err != nil {
		return nil, err
	}

	user := models.NewUser(username, string(passwordHash), publicKey, privateKey, imageURL)
	if err = s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if _, _, err = s.store.FindOrCreateNotification(ctx, user.ID); err != nil {
		return nil, errors.Step("register", "notification", err)
	}

	global.Logger.WithFields(logrus.Fields{"user": user.Username, "id": user.ID}).Info("user registered")
	return user, nil
}

// Login checks the credentials of username
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByName(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid credentials")
	}
	return user, nil
}

// UsernameAvailable reports whether username is still free
func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	_, err := s.store.GetUserByName(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	return false, err
}

// SearchResult is a user matching a search, seen by the searching user
type SearchResult struct {
	UserName             string
	ProfileImage         string
	IsFriend             bool
	IsMessageRequestSent bool
}

// Search finds users whose name contains query, ignoring case
func (s *Service) Search(ctx context.Context, currentName, query string) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "empty query")
	}
	current, err := s.user(ctx, currentName)
	if err != nil {
		return nil, err
	}
	users, err := s.store.SearchUsers(ctx, query)
	if err != nil {
		return nil, err
	}
	results := make([]SearchResult, len(users))
	for i, u := range users {
		results[i] = SearchResult{
			UserName:             u.Username,
			ProfileImage:         u.ProfileImage,
			IsFriend:             current.IsFriend(u.ID),
			IsMessageRequestSent: current.HasSentPrivateRequest(u.Username),
		}
	}
	return results, nil
}

// UpdatePassword replaces the password of username after checking the current one
func (s *Service) UpdatePassword(ctx context.Context, username, currentPassword, newPassword string) error {
	user, err := s.user(ctx, username)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return errors.Wrap(errors.ErrUnauthorized, "incorrect current password")
	}
	if !ValidPassword(newPassword) {
		return errors.Wrap(errors.ErrInvalidInput, "password does not follow the policy")
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.store.UpdateUser(ctx, user.ID, func(u *models.User) error {
		u.PasswordHash = string(passwordHash)
		return nil
	})
	return err
}

// UpdateProfileImage sets the profile image of username
func (s *Service) UpdateProfileImage(ctx context.Context, username, imageURL string) (string, error) {
	if imageURL == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "empty image url")
	}
	user, err := s.user(ctx, username)
	if err != nil {
		return "", err
	}
	user, err = s.store.UpdateUser(ctx, user.ID, func(u *models.User) error {
		if u.ProfileImage == imageURL {
			return store.ErrNoChange
		}
		u.ProfileImage = imageURL
		return nil
	})
	if err != nil {
		return "", err
	}
	return user.ProfileImage, nil
}
