package rtdb

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/disiplinku/backend/core"
)

// Store is a core.Store backed by the Firebase realtime database.
type Store struct {
	client *db.Client
}

var _ core.Store = (*Store)(nil)

// Open authenticates against the realtime database at conf.URL with the service account JSON.
func Open(ctx context.Context, conf core.StoreConfig) (*Store, error) {
	if core.CleanString(conf.ServiceAccount) == "" {
		return nil, core.ErrConfigMissing
	}
	app, err := firebase.NewApp(ctx,
		&firebase.Config{DatabaseURL: conf.URL},
		option.WithCredentialsJSON([]byte(conf.ServiceAccount)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase app")
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initializing database client")
	}
	return &Store{client: client}, nil
}

func (s *Store) get(ctx context.Context, path string) (core.Document, error) {
	var v interface{}
	if err := s.client.NewRef(path).Get(ctx, &v); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	doc, ok := v.(core.Document)
	if !ok {
		return nil, nil
	}
	return doc, nil
}

func (s *Store) ReadTree(ctx context.Context, path string) (core.Document, error) {
	doc, err := s.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return core.Document{}, nil
	}
	return doc, nil
}

func (s *Store) ReadOne(ctx context.Context, path string) (core.Document, error) {
	doc, err := s.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, core.ErrNotFound
	}
	return doc, nil
}

func (s *Store) UpdateField(ctx context.Context, path, field string, value interface{}) error {
	if err := s.client.NewRef(path).Update(ctx, map[string]interface{}{field: value}); err != nil {
		return errors.Wrapf(err, "updating %s/%s", path, field)
	}
	return nil
}

func (s *Store) Set(ctx context.Context, path string, value interface{}) error {
	ref := s.client.NewRef(path)
	var err error
	if value == nil {
		err = ref.Delete(ctx)
	} else {
		err = ref.Set(ctx, value)
	}
	return errors.Wrapf(err, "writing %s", path)
}
