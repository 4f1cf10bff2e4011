package inmemdb

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/disiplinku/backend/core"
)

// DB is an in-memory hierarchical store, shaped like the realtime database.
type DB struct {
	sync.RWMutex
	root core.Document
}

var _ core.Store = (*DB)(nil)

func Open() *DB {
	return &DB{root: make(core.Document)}
}

// Load opens a DB holding the JSON export at path (eg. a realtime database backup).
func Load(fs afero.Fs, path string) (*DB, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading fixture %s", path)
	}
	var root core.Document
	if err = json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrapf(err, "decoding fixture %s", path)
	}
	if root == nil {
		root = make(core.Document)
	}
	return &DB{root: root}, nil
}

func splitPath(path string) []string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// node returns the value at path. Must be called with the lock held.
func (db *DB) node(path string) (interface{}, bool) {
	var cur interface{} = db.root
	for _, seg := range splitPath(path) {
		doc, ok := cur.(core.Document)
		if !ok {
			return nil, false
		}
		if cur, ok = doc[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// parent returns the parent object of path, creating missing objects on the way.
// Must be called with the write lock held.
func (db *DB) parent(path string) (core.Document, string, error) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, "", errors.New("empty path")
	}
	cur := db.root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(core.Document)
		if !ok {
			next = make(core.Document)
			cur[seg] = next
		}
		cur = next
	}
	return cur, segs[len(segs)-1], nil
}

func (db *DB) ReadTree(_ context.Context, path string) (core.Document, error) {
	db.RLock()
	defer db.RUnlock()

	n, ok := db.node(path)
	if !ok {
		return core.Document{}, nil
	}
	doc, ok := n.(core.Document)
	if !ok {
		return core.Document{}, nil
	}
	return clone(doc).(core.Document), nil
}

func (db *DB) ReadOne(_ context.Context, path string) (core.Document, error) {
	db.RLock()
	defer db.RUnlock()

	n, ok := db.node(path)
	if !ok {
		return nil, core.ErrNotFound
	}
	doc, ok := n.(core.Document)
	if !ok {
		return nil, core.ErrNotFound
	}
	return clone(doc).(core.Document), nil
}

func (db *DB) UpdateField(_ context.Context, path, field string, value interface{}) error {
	db.Lock()
	defer db.Unlock()

	parent, key, err := db.parent(path)
	if err != nil {
		return err
	}
	doc, ok := parent[key].(core.Document)
	if !ok {
		doc = make(core.Document)
		parent[key] = doc
	}
	val, err := normalize(value)
	if err != nil {
		return err
	}
	doc[field] = val
	return nil
}

func (db *DB) Set(_ context.Context, path string, value interface{}) error {
	val, err := normalize(value)
	if err != nil {
		return err
	}

	db.Lock()
	defer db.Unlock()

	if len(splitPath(path)) == 0 {
		doc, ok := val.(core.Document)
		if !ok {
			return errors.New("root must be an object")
		}
		db.root = doc
		return nil
	}
	parent, key, err := db.parent(path)
	if err != nil {
		return err
	}
	if val == nil {
		delete(parent, key)
		return nil
	}
	parent[key] = val
	return nil
}

// normalize stores values the way they would come back from the realtime database:
// structs become documents and numbers float64.
func normalize(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding value")
	}
	var out interface{}
	if err = json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "decoding value")
	}
	return out, nil
}

// clone deep copies documents so callers never share state with the DB.
func clone(v interface{}) interface{} {
	switch t := v.(type) {
	case core.Document:
		doc := make(core.Document, len(t))
		for k, val := range t {
			doc[k] = clone(val)
		}
		return doc
	case []interface{}:
		list := make([]interface{}, len(t))
		for i, val := range t {
			list[i] = clone(val)
		}
		return list
	default:
		return v
	}
}
