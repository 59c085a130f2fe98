package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
)

// FileStore keeps Preferences in a JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath is the preferences file under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(dir, "dininguru", "preferences.json"), nil
}

func (f *FileStore) Load(_ context.Context) (Preferences, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Preferences{}, nil
		}
		return Preferences{}, fmt.Errorf("reading %s: %w", f.path, err)
	}

	var p Preferences
	if err := json.Unmarshal(b, &p); err != nil {
		return Preferences{}, fmt.Errorf("unmarshaling %s: %w", f.path, err)
	}
	return p, nil
}

// Save replaces the file via rename.
func (f *FileStore) Save(_ context.Context, p Preferences) error {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(f.path), err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing %s: %w", f.path, err)
	}
	return nil
}

// RedisStore keeps Preferences under one Redis key per profile, so several
// devices can share them. Entries do not expire.
type RedisStore struct {
	client  *redis.Client
	profile string
}

// NewRedisStore constructs a RedisStore for profile.
func NewRedisStore(client *redis.Client, profile string) *RedisStore {
	return &RedisStore{client: client, profile: profile}
}

func (r *RedisStore) key() string {
	return "prefs:" + strings.ToLower(strings.TrimSpace(r.profile))
}

func (r *RedisStore) Load(ctx context.Context) (Preferences, error) {
	val, err := r.client.Get(ctx, r.key()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Preferences{}, nil
		}
		return Preferences{}, fmt.Errorf("preferences get for profile %s: %w", r.profile, err)
	}

	var p Preferences
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return Preferences{}, fmt.Errorf("unmarshaling preferences for profile %s: %w", r.profile, err)
	}
	return p, nil
}

func (r *RedisStore) Save(ctx context.Context, p Preferences) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling preferences for profile %s: %w", r.profile, err)
	}
	if err := r.client.Set(ctx, r.key(), b, 0).Err(); err != nil {
		return fmt.Errorf("preferences set for profile %s: %w", r.profile, err)
	}
	return nil
}
