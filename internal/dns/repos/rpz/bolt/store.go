// Package bolt persists validated RPZ rules in a bbolt database.
//
// Exact rules and wildcard rules live in separate buckets keyed by canonical
// name (wildcards without their "*." marker). Values are JSON.
package bolt

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/rr-zonecheck/internal/dns/common/utils"
	"github.com/haukened/rr-zonecheck/internal/dns/domain"
	"github.com/haukened/rr-zonecheck/internal/dns/repos/rpz"
)

var (
	bucketExact    = []byte("exact")
	bucketWildcard = []byte("wildcard")
	bucketMeta     = []byte("meta")

	keyVersion = []byte("version")
	keyUpdated = []byte("updated")

	errStopVisit = errors.New("stop visit")
)

// storedRule is the on-disk form of a rule. Validation warnings are not kept.
type storedRule struct {
	Domain         string     `json:"domain"`
	Action         string     `json:"action"`
	RedirectTarget string     `json:"redirect_target,omitempty"`
	Category       string     `json:"category"`
	Source         string     `json:"source"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// boltStore implements rpz.Store using bbolt.
type boltStore struct {
	db *bbolt.DB
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string) (rpz.Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open rpz store %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketExact, bucketWildcard, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init rpz store %s: %w", path, err)
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

// FirstMatch looks up the exact rule for name, then the wildcard rule of each
// proper parent from most to least specific, in a single read transaction.
func (s *boltStore) FirstMatch(name string, live func(domain.ValidatedRPZRule) bool) (domain.ValidatedRPZRule, bool, error) {
	name = utils.CanonicalDNSName(name)
	var (
		out   domain.ValidatedRPZRule
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		try := func(bucket []byte, key string) (bool, error) {
			v := tx.Bucket(bucket).Get([]byte(key))
			if v == nil {
				return false, nil
			}
			ru, err := decodeRule(v)
			if err != nil {
				return false, fmt.Errorf("decode rule %q: %w", key, err)
			}
			if live != nil && !live(ru) {
				return false, nil
			}
			out, found = ru, true
			return true, nil
		}

		if ok, err := try(bucketExact, name); ok || err != nil {
			return err
		}
		for _, p := range utils.ParentNames(name) {
			if ok, err := try(bucketWildcard, p); ok || err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.ValidatedRPZRule{}, false, err
	}
	return out, found, nil
}

// Upsert writes rules over any existing rule with the same stored domain.
func (s *boltStore) Upsert(rules []domain.ValidatedRPZRule, updatedUnix int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := putRules(tx, rules); err != nil {
			return err
		}
		return putMeta(tx, keyUpdated, uint64(updatedUnix))
	})
}

// ReplaceAll drops every stored rule and writes rules in the same transaction.
func (s *boltStore) ReplaceAll(rules []domain.ValidatedRPZRule, version uint64, updatedUnix int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketExact, bucketWildcard} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		if err := putRules(tx, rules); err != nil {
			return err
		}
		if err := putMeta(tx, keyVersion, version); err != nil {
			return err
		}
		return putMeta(tx, keyUpdated, uint64(updatedUnix))
	})
}

// Visit calls visit for every stored rule, exact rules first, each bucket in
// key order. Returning false stops the walk.
func (s *boltStore) Visit(visit func(domain.ValidatedRPZRule) bool) error {
	err := s.db.View(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketExact, bucketWildcard} {
			if err := tx.Bucket(name).ForEach(func(k, v []byte) error {
				ru, err := decodeRule(v)
				if err != nil {
					return fmt.Errorf("decode rule %q: %w", k, err)
				}
				if !visit(ru) {
					return errStopVisit
				}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errStopVisit) {
		return nil
	}
	return err
}

func (s *boltStore) Stats() rpz.StoreStats {
	st := rpz.StoreStats{}
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketExact); b != nil {
			st.ExactCount = uint64(b.Stats().KeyN)
		}
		if b := tx.Bucket(bucketWildcard); b != nil {
			st.WildcardCount = uint64(b.Stats().KeyN)
		}
		if b := tx.Bucket(bucketMeta); b != nil {
			if v := b.Get(keyVersion); len(v) == 8 {
				st.Version = binary.BigEndian.Uint64(v)
			}
			if v := b.Get(keyUpdated); len(v) == 8 {
				st.UpdatedUnix = int64(binary.BigEndian.Uint64(v))
			}
		}
		return nil
	})
	return st
}

func putRules(tx *bbolt.Tx, rules []domain.ValidatedRPZRule) error {
	exact, wildcard := tx.Bucket(bucketExact), tx.Bucket(bucketWildcard)
	for _, ru := range rules {
		v, err := json.Marshal(storedRule{
			Domain:         ru.Rule.Domain,
			Action:         ru.Rule.Action.String(),
			RedirectTarget: ru.Rule.RedirectTarget,
			Category:       ru.Rule.Category,
			Source:         ru.Rule.Source,
			ExpiresAt:      ru.Rule.ExpiresAt,
		})
		if err != nil {
			return err
		}
		b := exact
		if ru.Wildcard {
			b = wildcard
		}
		if err := b.Put([]byte(ru.Name), v); err != nil {
			return err
		}
	}
	return nil
}

func putMeta(tx *bbolt.Tx, key []byte, v uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return tx.Bucket(bucketMeta).Put(key, buf)
}

// decodeRule rebuilds a validated rule from its stored form. Stored rules were
// validated before being written, so only the shape is checked here.
func decodeRule(v []byte) (domain.ValidatedRPZRule, error) {
	var sr storedRule
	if err := json.Unmarshal(v, &sr); err != nil {
		return domain.ValidatedRPZRule{}, err
	}
	action, err := domain.ParseRPZAction(sr.Action)
	if err != nil {
		return domain.ValidatedRPZRule{}, err
	}
	name := utils.CanonicalDNSName(sr.Domain)
	wildcard := false
	if len(name) > 2 && name[:2] == "*." {
		name, wildcard = name[2:], true
	}
	return domain.ValidatedRPZRule{
		Rule: domain.RPZRule{
			Domain:         sr.Domain,
			Action:         action,
			RedirectTarget: sr.RedirectTarget,
			Category:       sr.Category,
			Source:         sr.Source,
			ExpiresAt:      sr.ExpiresAt,
		},
		Name:     name,
		Wildcard: wildcard,
	}, nil
}

var _ rpz.Store = (*boltStore)(nil)
