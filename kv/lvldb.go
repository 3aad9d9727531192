// Copyright (c) 2019 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	writeOpt = &opt.WriteOptions{}
	readOpt  = &opt.ReadOptions{}
)

// implements Bulk interface
type lvldbBulk struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *lvldbBulk) Put(key, value []byte) error {
	b.batch.Put(key, value)
	return nil
}

func (b *lvldbBulk) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *lvldbBulk) Len() int {
	return b.batch.Len()
}

func (b *lvldbBulk) Write() error {
	return b.db.Write(b.batch, writeOpt)
}

// implements Store interface
type lvldb struct {
	db  *leveldb.DB
	stg storage.Storage
}

func openLevelDB(stg storage.Storage, cacheSize, openFilesCacheCapacity int) (*lvldb, error) {
	if cacheSize < 16 {
		cacheSize = 16
	}

	if openFilesCacheCapacity < 64 {
		openFilesCacheCapacity = 64
	}

	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: openFilesCacheCapacity,
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB, // Two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		stg.Close()
		return nil, errors.Wrap(err, "open level db")
	}
	return &lvldb{db: db, stg: stg}, nil
}

// NewMem creates a store backed by goleveldb memory storage.
func NewMem() Store {
	db, err := openLevelDB(storage.NewMemStorage(), 0, 0)
	if err != nil {
		// memory storage never fails to open
		panic(err)
	}
	return db
}

// Open opens or creates a persistent store at the given path.
func Open(path string, cacheSize int, openFilesCacheCapacity int) (Store, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open file storage")
	}
	return openLevelDB(stg, cacheSize, openFilesCacheCapacity)
}

func (ldb *lvldb) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, readOpt)
}

func (ldb *lvldb) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, readOpt)
}

func (ldb *lvldb) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

func (ldb *lvldb) Put(key, value []byte) error {
	return ldb.db.Put(key, value, writeOpt)
}

func (ldb *lvldb) Delete(key []byte) error {
	return ldb.db.Delete(key, writeOpt)
}

// Close closes the db, then releases the storage and its file lock.
func (ldb *lvldb) Close() error {
	if err := ldb.db.Close(); err != nil {
		ldb.stg.Close()
		return err
	}
	return ldb.stg.Close()
}

func (ldb *lvldb) Bulk() Bulk {
	return &lvldbBulk{
		ldb.db,
		&leveldb.Batch{},
	}
}

func (ldb *lvldb) Iterate(r Range) Iterator {
	return ldb.db.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, readOpt)
}
