package cache

import (
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/cajal-labs/mosaic/mosaic"
)

// badgerTier is the on-disk cache tier.
type badgerTier struct {
	directory  string
	bdp        *badger.DB
	stopSyncCh chan bool
}

func openBadgerTier(path string) (*badgerTier, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0744); err != nil {
			return nil, fmt.Errorf("can't make directory at %s: %v", path, err)
		}
	}
	opts := badger.DefaultOptions(path)
	opts.NumVersionsToKeep = 1
	opts.SyncWrites = false
	opts.ValueThreshold = 100
	opts.Logger = nil

	mosaic.Infof("Opening badger tile cache @ path %s\n", path)
	bdp, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	tier := &badgerTier{
		directory:  path,
		bdp:        bdp,
		stopSyncCh: make(chan bool),
	}
	go tier.syncPeriodically()
	return tier, nil
}

// Periodically sync to prevent too many writes from being buffered if the
// process crashes.
func (t *badgerTier) syncPeriodically() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopSyncCh:
			mosaic.Infof("Stopping sync goroutine for badger @ %s\n", t.directory)
			return
		case <-ticker.C:
			t.bdp.Sync()
		}
	}
}

// get returns the stored value or nil if the key is absent.
func (t *badgerTier) get(key []byte) ([]byte, error) {
	var value []byte
	err := t.bdp.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	return value, err
}

func (t *badgerTier) put(key, value []byte) error {
	return t.bdp.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (t *badgerTier) close() {
	if t.bdp != nil {
		t.stopSyncCh <- true
		t.bdp.Close()
		mosaic.Infof("Closed badger tile cache @ %s\n", t.directory)
		t.bdp = nil
	}
}
