// Package cache keeps proof verdicts across runs in a bbolt database.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"gprover/internal/prover"
	"gprover/internal/smt"
	"gprover/internal/syntax"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var bucketName = []byte("verdicts")

type Binding struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Verdict is a cached conclusion. Only Proved and Disproved are cached;
// Skipped depends on limits and on the solver build.
type Verdict struct {
	Conclusion     string    `json:"conclusion"`
	Counterexample []Binding `json:"counterexample,omitempty"`
	Validated      bool      `json:"validated,omitempty"`
}

// FromTheorem returns the verdict of a proved theorem, false when its
// conclusion is not cached.
func FromTheorem(th *prover.Theorem) (*Verdict, bool) {
	switch th.Conclusion() {
	case prover.Proved, prover.Disproved:
	default:
		return nil, false
	}
	v := &Verdict{
		Conclusion: th.Conclusion().String(),
		Validated:  th.Validated(),
	}
	for _, b := range th.Counterexample() {
		v.Counterexample = append(v.Counterexample, Binding{Name: b.Name, Value: b.Value.String()})
	}
	return v, true
}

func (v *Verdict) Proved() bool {
	return v.Conclusion == prover.Proved.String()
}

// Key identifies a function body and its contracts under one solver and
// prover configuration.
func Key(fn *syntax.Function, cfg smt.Config, opts prover.Options) []byte {
	h := sha256.New()
	h.Write([]byte(fn.Fingerprint()))
	fmt.Fprintf(h, "\n%s/maxpaths=%d/validate=%t", cfg, opts.MaxPaths, opts.Validate)
	return h.Sum(nil)
}

type Cache struct {
	db *bbolt.DB
}

func Open(path string) (*Cache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open cache %s", path)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.WithStack(err)
	}
	return &Cache{db: db}, nil
}

// Get returns the verdict stored under key, nil when there is none.
func (c *Cache) Get(key []byte) (*Verdict, error) {
	var verdict *Verdict
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketName).Get(key)
		if data == nil {
			return nil
		}
		verdict = &Verdict{}
		return json.Unmarshal(data, verdict)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "read verdict %x", key)
	}
	return verdict, nil
}

func (c *Cache) Put(key []byte, verdict *Verdict) error {
	data, err := json.Marshal(verdict)
	if err != nil {
		return errors.WithStack(err)
	}
	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, data)
	})
	return errors.Wrapf(err, "write verdict %x", key)
}

func (c *Cache) Close() error {
	return c.db.Close()
}
