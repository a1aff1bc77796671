// Package profilestore persists profile snapshots in Valkey as versioned
// hashes with a pointer to the current version.
package profilestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/b2bsearch/internal/db"
	"github.com/kailas-cloud/b2bsearch/internal/domain"
	"github.com/kailas-cloud/b2bsearch/internal/domain/profile"
)

type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Meta hash fields.
const (
	metaVersion   = "version"
	metaBuiltAt   = "built_at"
	metaUsers     = "users"
	metaUserTypes = "user_types"
)

// Config controls key layout and retention.
type Config struct {
	KeyPrefix string
	// RetainTTL is applied to the previous version after a flip. Zero keeps it.
	RetainTTL time.Duration
}

// Repo reads and writes snapshots.
type Repo struct {
	store  store
	prefix string
	retain time.Duration
	logger *zap.Logger
}

// New creates a snapshot repository.
func New(s store, cfg Config, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{store: s, prefix: cfg.KeyPrefix + "profiles:", retain: cfg.RetainTTL, logger: logger}
}

func (r *Repo) currentKey() string { return r.prefix + "current" }

func (r *Repo) keys(version string) (users, history, types, meta string) {
	base := r.prefix + version + ":"
	return base + "users", base + "history", base + "types", base + "meta"
}

// Publish writes every hash of snap and then flips the current pointer.
// Readers never see a half-written version.
func (r *Repo) Publish(ctx context.Context, snap *profile.Snapshot) error {
	version := snap.Version()
	if version == "" {
		return errors.New("publish snapshot: empty version")
	}

	prev, err := r.currentVersion(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	users, history, types, meta := r.keys(version)
	items := make([]db.HashSetItem, 0, 4)

	fields, err := encodeFields(snap.Profiles())
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}
	items = append(items, db.HashSetItem{Key: users, Fields: fields})

	if fields, err = encodeFields(snap.History()); err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	items = append(items, db.HashSetItem{Key: history, Fields: fields})

	if fields, err = encodeFields(snap.UserTypes()); err != nil {
		return fmt.Errorf("encode user types: %w", err)
	}
	items = append(items, db.HashSetItem{Key: types, Fields: fields})

	st := snap.Stats()
	items = append(items, db.HashSetItem{Key: meta, Fields: map[string]string{
		metaVersion:   version,
		metaBuiltAt:   snap.BuiltAt().UTC().Format(time.RFC3339Nano),
		metaUsers:     strconv.Itoa(st.Users),
		metaUserTypes: strconv.Itoa(st.UserTypes),
	}})

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("write snapshot %s: %w", version, err)
	}
	if err := r.store.Set(ctx, r.currentKey(), []byte(version)); err != nil {
		return fmt.Errorf("flip current to %s: %w", version, err)
	}

	if prev != "" && prev != version && r.retain > 0 {
		r.expire(ctx, prev)
	}
	return nil
}

func (r *Repo) expire(ctx context.Context, version string) {
	users, history, types, meta := r.keys(version)
	for _, key := range []string{users, history, types, meta} {
		if err := r.store.Expire(ctx, key, r.retain); err != nil {
			r.logger.Warn("Failed to expire old profile version",
				zap.String("version", version), zap.String("key", key), zap.Error(err))
		}
	}
}

// Load reads the current version. It returns domain.ErrNotFound when
// nothing was published yet.
func (r *Repo) Load(ctx context.Context) (*profile.Snapshot, error) {
	version, err := r.currentVersion(ctx)
	if err != nil {
		return nil, err
	}

	users, history, types, meta := r.keys(version)
	hashes, err := r.store.HGetAllMulti(ctx, []string{users, history, types, meta})
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", version, err)
	}
	if len(hashes) != 4 || len(hashes[3]) == 0 {
		return nil, fmt.Errorf("snapshot %s metadata: %w", version, domain.ErrNotFound)
	}

	var res profile.Result
	if res.Profiles, err = decodeFields[profile.UserProfile](hashes[0]); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if res.History, err = decodeFields[[]string](hashes[1]); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if res.UserTypes, err = decodeFields[profile.UserTypeProfile](hashes[2]); err != nil {
		return nil, fmt.Errorf("decode user types: %w", err)
	}

	builtAt, err := time.Parse(time.RFC3339Nano, hashes[3][metaBuiltAt])
	if err != nil {
		return nil, fmt.Errorf("decode built_at: %w", err)
	}
	return profile.NewSnapshot(version, builtAt, res), nil
}

func (r *Repo) currentVersion(ctx context.Context) (string, error) {
	data, err := r.store.Get(ctx, r.currentKey())
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", fmt.Errorf("current profile version: %w", domain.ErrNotFound)
		}
		return "", fmt.Errorf("current profile version: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("current profile version: %w", domain.ErrNotFound)
	}
	return string(data), nil
}

func encodeFields[V any](m map[string]V) (map[string]string, error) {
	out := make(map[string]string, len(m))
	for k, v := range m {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = string(b)
	}
	return out, nil
}

func decodeFields[V any](m map[string]string) (map[string]V, error) {
	out := make(map[string]V, len(m))
	for k, raw := range m {
		var v V
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}
