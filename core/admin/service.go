package admin

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/disiplinku/backend/core"
)

const (
	adminsPath  = "admin-dashboard/admin"
	apiKeysPath = "api-keys"
)

var (
	// errors
	ErrNotFound           = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidAPIKey      = errors.New("invalid or inactive API key")

	apiKeyRegex = regexp.MustCompile(`^[\w-]+$`)
)

type Service struct {
	store    core.Store
	validate *validator.Validate
	now      func() time.Time
}

func NewService(store core.Store, validate *validator.Validate) *Service {
	return &Service{store: store, validate: validate, now: time.Now}
}

func (svc *Service) queryAll(ctx context.Context) ([]Admin, error) {
	tree, err := svc.store.ReadTree(ctx, adminsPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading admins")
	}
	admins := make([]Admin, 0, len(tree))
	for id, raw := range tree {
		doc, ok := raw.(core.Document)
		if !ok {
			continue
		}
		adm := Admin{ID: id}
		adm.Username, _ = doc["username"].(string)
		adm.PasswordHash, _ = doc["password"].(string)
		if ts, ok := doc["createdAt"].(float64); ok {
			adm.CreatedAt = int64(ts)
		}
		admins = append(admins, adm)
	}
	return admins, nil
}

func (svc *Service) GetByUsername(ctx context.Context, username string) (Admin, error) {
	admins, err := svc.queryAll(ctx)
	if err != nil {
		return Admin{}, err
	}
	for _, adm := range admins {
		if adm.Username == username {
			return adm, nil
		}
	}
	return Admin{}, ErrNotFound
}

func (svc *Service) GetByID(ctx context.Context, id string) (Admin, error) {
	admins, err := svc.queryAll(ctx)
	if err != nil {
		return Admin{}, err
	}
	for _, adm := range admins {
		if adm.ID == id {
			return adm, nil
		}
	}
	return Admin{}, ErrNotFound
}

// Authenticate checks the username & password of an Admin.
func (svc *Service) Authenticate(ctx context.Context, username, pwd string) (Admin, error) {
	adm, err := svc.GetByUsername(ctx, core.CleanString(username))
	if err != nil {
		if err == ErrNotFound {
			return Admin{}, ErrInvalidCredentials
		}
		return Admin{}, errors.Wrap(err, "finding admin by username")
	}
	if err = adm.CheckPassword(pwd); err != nil {
		return Admin{}, ErrInvalidCredentials
	}
	return adm, nil
}

// Save creates an Admin, or resets their password when the username is taken.
func (svc *Service) Save(ctx context.Context, na NewAdmin) (Admin, error) {
	na.Username = core.CleanString(na.Username)
	if err := svc.validate.Struct(na); err != nil {
		return Admin{}, err
	}

	adm, err := svc.GetByUsername(ctx, na.Username)
	switch {
	case err == ErrNotFound:
		adm = Admin{
			ID:        uuid.New().String(),
			Username:  na.Username,
			CreatedAt: svc.now().UnixNano() / int64(time.Millisecond),
		}
	case err != nil:
		return Admin{}, errors.Wrap(err, "finding admin by username")
	}
	if err = adm.SetPassword(na.Password); err != nil {
		return Admin{}, errors.Wrap(err, "hashing password")
	}

	// field by field: the admin's apikeys must survive a password reset
	path := adminsPath + "/" + adm.ID
	fields := []struct {
		name  string
		value interface{}
	}{
		{"username", adm.Username},
		{"password", adm.PasswordHash},
		{"createdAt", adm.CreatedAt},
	}
	for _, f := range fields {
		if err = svc.store.UpdateField(ctx, path, f.name, f.value); err != nil {
			return Admin{}, errors.Wrap(err, "saving admin")
		}
	}
	return adm, nil
}

// GenerateAPIKey issues a new API key for the Admin.
func (svc *Service) GenerateAPIKey(ctx context.Context, adminID string) (string, error) {
	adm, err := svc.GetByID(ctx, adminID)
	if err != nil {
		return "", err
	}

	rnd := make([]byte, 12)
	if _, err = rand.Read(rnd); err != nil {
		return "", errors.Wrap(err, "generating API key")
	}
	prefix := adm.Username
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	key := prefix + "_" + hex.EncodeToString(rnd)
	now := svc.now().UnixNano() / int64(time.Millisecond)

	own := adminAPIKey{Key: key, UserID: adm.ID, CreatedAt: now, Active: true}
	if err = svc.store.Set(ctx, adminsPath+"/"+adm.ID+"/apikeys/"+uuid.New().String(), own); err != nil {
		return "", errors.Wrap(err, "saving admin API key")
	}
	if err = svc.store.Set(ctx, apiKeysPath+"/"+key, APIKey{UserID: adm.ID, CreatedAt: now}); err != nil {
		return "", errors.Wrap(err, "saving API key")
	}
	return key, nil
}

// CheckAPIKey succeeds when key exists and was not deactivated.
func (svc *Service) CheckAPIKey(ctx context.Context, key string) error {
	key = core.CleanString(key)
	if key == "" || !apiKeyRegex.MatchString(key) {
		return ErrInvalidAPIKey
	}
	doc, err := svc.store.ReadOne(ctx, apiKeysPath+"/"+key)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return ErrInvalidAPIKey
		}
		return errors.Wrap(err, "reading API key")
	}
	if active, ok := doc["active"].(bool); ok && !active {
		return ErrInvalidAPIKey
	}
	return nil
}

// SetAPIKeyStatus activates or deactivates key, on both of its records.
func (svc *Service) SetAPIKeyStatus(ctx context.Context, key string, active bool) error {
	key = core.CleanString(key)
	if !apiKeyRegex.MatchString(key) {
		return ErrInvalidAPIKey
	}
	doc, err := svc.store.ReadOne(ctx, apiKeysPath+"/"+key)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return ErrInvalidAPIKey
		}
		return errors.Wrap(err, "reading API key")
	}
	if err = svc.store.UpdateField(ctx, apiKeysPath+"/"+key, "active", active); err != nil {
		return errors.Wrap(err, "updating API key")
	}

	userID, _ := doc["userId"].(string)
	if userID == "" {
		return nil
	}
	ownPath := adminsPath + "/" + userID + "/apikeys"
	own, err := svc.store.ReadTree(ctx, ownPath)
	if err != nil {
		return errors.Wrap(err, "reading admin API keys")
	}
	for id, raw := range own {
		if k, ok := raw.(core.Document); ok && k["key"] == key {
			if err = svc.store.UpdateField(ctx, ownPath+"/"+id, "active", active); err != nil {
				return errors.Wrap(err, "updating admin API key")
			}
		}
	}
	return nil
}
