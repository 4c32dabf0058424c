// Package mongodb provides a MongoDB-backed implementation of
// [dataset.Repository] on top of mgo.
//
// Each model maps to the collection named after it; property names map to
// document field names as-is. Scopes translate to plain find documents —
// see [Selector] — so the adapter generates no query text of its own.
package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/hasbyte1/go-datamapper-utils/dataset"
	"github.com/hasbyte1/go-datamapper-utils/query"
)

// DefaultName is the repository name used when none is configured.
const DefaultName = "mongodb"

// Config holds the connection settings for a [Repository].
type Config struct {
	// URL is the mongodb connection string (host, credentials, options).
	URL string

	// Database is the database queries run against.
	Database string

	// Name overrides the repository name. Defaults to [DefaultName].
	Name string

	// DialTimeout bounds the initial connection attempt.
	// Defaults to 10 seconds if zero.
	DialTimeout time.Duration

	// Logger receives structured query and mutation logs.
	// Defaults to the logrus standard logger.
	Logger *logrus.Logger
}

// Repository is a MongoDB-backed [dataset.Repository].
type Repository struct {
	name    string
	session *mgo.Session
	db      string
	log     *logrus.Logger

	mu       sync.Mutex
	models   map[string]dataset.Model
	identity map[string]*dataset.IdentityMap

	// loadMu serializes model.Load calls: the identity map and the records
	// it holds carry no locking of their own.
	loadMu sync.Mutex
}

// Dial connects to MongoDB and returns a ready repository.
func Dial(cfg Config) (*Repository, error) {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	session, err := mgo.DialWithTimeout(cfg.URL, cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("mongodb: dial %s: %w", cfg.URL, err)
	}
	session.SetMode(mgo.Monotonic, true)

	return &Repository{
		name:     cfg.Name,
		session:  session,
		db:       cfg.Database,
		log:      cfg.Logger,
		models:   make(map[string]dataset.Model),
		identity: make(map[string]*dataset.IdentityMap),
	}, nil
}

// Close releases the underlying session.
func (r *Repository) Close() { r.session.Close() }

// Name returns the repository's registered name.
func (r *Repository) Name() string { return r.name }

// Register associates a model with its entity name, enabling identity-map
// reuse on read.
func (r *Repository) Register(m dataset.Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[m.Name()] = m
}

// IdentityMap returns the keyed cache for the named model, creating it on
// first use.
func (r *Repository) IdentityMap(model string) *dataset.IdentityMap {
	r.mu.Lock()
	defer r.mu.Unlock()
	im, ok := r.identity[model]
	if !ok {
		im = dataset.NewIdentityMap()
		r.identity[model] = im
	}
	return im
}

// ReadMany returns every document matching the scope, in the scope's order.
func (r *Repository) ReadMany(_ context.Context, s query.Scope) ([]*dataset.Record, error) {
	sess := r.session.Copy()
	defer sess.Close()

	q := sess.DB(r.db).C(s.Model).Find(Selector(s.Conditions))
	if s.Fields != nil {
		q = q.Select(Projection(s.Fields))
	}
	if len(s.Order) > 0 {
		q = q.Sort(SortSpec(s.Order)...)
	}
	if s.Offset > 0 {
		q = q.Skip(s.Offset)
	}
	if s.Limit != query.NoLimit {
		q = q.Limit(s.Limit)
	}

	var rows []bson.M
	if err := q.All(&rows); err != nil {
		r.log.WithFields(logrus.Fields{"model": s.Model, "scope": s.String()}).
			WithError(err).Error("read many failed")
		return nil, fmt.Errorf("mongodb: read %s: %w", s.Model, err)
	}
	r.log.WithFields(logrus.Fields{"model": s.Model, "rows": len(rows)}).
		Debug("read many")

	r.mu.Lock()
	model := r.models[s.Model]
	r.mu.Unlock()

	out := make([]*dataset.Record, len(rows))
	if model != nil {
		r.loadMu.Lock()
		for i, row := range rows {
			out[i] = model.Load(rowValues(row), s)
		}
		r.loadMu.Unlock()
	} else {
		for i, row := range rows {
			out[i] = dataset.NewRecord(rowValues(row), true)
		}
	}
	return out, nil
}

func rowValues(row bson.M) map[string]any {
	values := make(map[string]any, len(row))
	for name, v := range row {
		values[name] = v
	}
	return values
}

// ReadOne returns the first document matching the scope, or (nil, nil).
func (r *Repository) ReadOne(ctx context.Context, s query.Scope) (*dataset.Record, error) {
	records, err := r.ReadMany(ctx, s.With(query.WithLimit(1)))
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

// Update applies a $set of values to every document matching the scope and
// returns the affected count. Windowed scopes are first resolved to the
// concrete keys inside the window — see [Repository.Delete].
func (r *Repository) Update(_ context.Context, values map[string]any, s query.Scope) (int, error) {
	sess := r.session.Copy()
	defer sess.Close()

	selector, matched, err := r.mutationSelector(sess, s)
	if err != nil {
		r.log.WithFields(logrus.Fields{"model": s.Model}).
			WithError(err).Error("update failed")
		return 0, fmt.Errorf("mongodb: update %s: %w", s.Model, err)
	}
	if !matched {
		return 0, nil
	}

	info, err := sess.DB(r.db).C(s.Model).UpdateAll(
		selector, bson.M{"$set": bson.M(values)})
	if err != nil {
		r.log.WithFields(logrus.Fields{"model": s.Model}).
			WithError(err).Error("update failed")
		return 0, fmt.Errorf("mongodb: update %s: %w", s.Model, err)
	}
	r.log.WithFields(logrus.Fields{"model": s.Model, "updated": info.Updated}).
		Debug("update")
	return info.Updated, nil
}

// Delete removes every document matching the scope and returns the affected
// count. UpdateAll and RemoveAll cannot express a row window, so windowed
// scopes are first resolved to the concrete keys inside the window; a scope
// that cannot be resolved fails with [ErrWindowedMutation] instead of
// silently mutating the whole match set.
func (r *Repository) Delete(_ context.Context, s query.Scope) (int, error) {
	sess := r.session.Copy()
	defer sess.Close()

	selector, matched, err := r.mutationSelector(sess, s)
	if err != nil {
		r.log.WithFields(logrus.Fields{"model": s.Model}).
			WithError(err).Error("delete failed")
		return 0, fmt.Errorf("mongodb: delete %s: %w", s.Model, err)
	}
	if !matched {
		return 0, nil
	}

	info, err := sess.DB(r.db).C(s.Model).RemoveAll(selector)
	if err != nil {
		r.log.WithFields(logrus.Fields{"model": s.Model}).
			WithError(err).Error("delete failed")
		return 0, fmt.Errorf("mongodb: delete %s: %w", s.Model, err)
	}
	r.log.WithFields(logrus.Fields{"model": s.Model, "removed": info.Removed}).
		Debug("delete")
	return info.Removed, nil
}

// mutationSelector builds the selector for a bulk mutation. Unwindowed
// scopes translate directly; windowed scopes read the key tuples inside
// the window first and pin the mutation to exactly those documents. The
// boolean reports whether the selector can match anything at all.
func (r *Repository) mutationSelector(sess *mgo.Session, s query.Scope) (bson.M, bool, error) {
	if !s.Windowed() {
		return Selector(s.Conditions), true, nil
	}

	r.mu.Lock()
	model := r.models[s.Model]
	r.mu.Unlock()
	if model == nil {
		return nil, false, fmt.Errorf("%w: no model registered for %s",
			ErrWindowedMutation, s.Model)
	}
	key := model.Key(r.name)
	if len(key) == 0 {
		return nil, false, fmt.Errorf("%w: %s has no key properties",
			ErrWindowedMutation, s.Model)
	}

	fields := make([]string, len(key))
	for i, p := range key {
		fields[i] = p.Name
	}
	q := sess.DB(r.db).C(s.Model).Find(Selector(s.Conditions)).Select(Projection(fields))
	if len(s.Order) > 0 {
		q = q.Sort(SortSpec(s.Order)...)
	}
	if s.Offset > 0 {
		q = q.Skip(s.Offset)
	}
	if s.Limit != query.NoLimit {
		q = q.Limit(s.Limit)
	}

	var rows []bson.M
	if err := q.All(&rows); err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return KeySelector(key, rows), true, nil
}

// Insert stores a new document for the named model and returns the stored
// values.
func (r *Repository) Insert(_ context.Context, model string, values map[string]any) (map[string]any, error) {
	sess := r.session.Copy()
	defer sess.Close()

	doc := bson.M(values)
	if err := sess.DB(r.db).C(model).Insert(doc); err != nil {
		r.log.WithFields(logrus.Fields{"model": model}).
			WithError(err).Error("insert failed")
		return nil, fmt.Errorf("mongodb: insert %s: %w", model, err)
	}
	r.log.WithFields(logrus.Fields{"model": model}).Debug("insert")

	out := make(map[string]any, len(doc))
	for name, v := range doc {
		out[name] = v
	}
	return out, nil
}
