// Package record stores acquired sample blocks in a bbolt database, one
// bucket per run.
package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/snksoft/crc"
	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"godaq/host/daq"
	"godaq/host/log"
)

const (
	BucketNamePrefix = "run_"
)

var metaKey = []byte("meta")

var (
	// ErrNoRun is returned for a run ID the database does not hold
	ErrNoRun = errors.New("run not found")

	// ErrCorrupt is returned when a stored block fails its checksum
	ErrCorrupt = errors.New("block checksum mismatch")
)

var crcTable = crc.NewTable(crc.XMODEM)

// RunInfo describes one recorded acquisition
type RunInfo struct {
	ID      string    `json:"id"`
	Started time.Time `json:"started"`
	Device  string    `json:"device"`
	Plan    daq.Plan  `json:"plan"`
	Blocks  int       `json:"-"`
}

// Recorder appends blocks to runs
type Recorder struct {
	DB *bbolt.DB
}

// Open opens or creates the database at path
func Open(path string) (*Recorder, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open recorder database %s: %w", path, err)
	}
	return &Recorder{DB: db}, nil
}

// Close closes the database
func (r *Recorder) Close() error {
	return r.DB.Close()
}

func bucketName(id string) []byte {
	return []byte(BucketNamePrefix + id)
}

func uint64ToByte(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func checksum(data []byte) uint16 {
	c := crcTable.InitCrc()
	c = crcTable.UpdateCrc(c, data)
	return crcTable.CRC16(c)
}

// encodeBlock stores the samples little-endian behind a big-endian CRC
func encodeBlock(words []uint16) []byte {
	buf := make([]byte, 2+2*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint16(buf[2+2*i:], w)
	}
	binary.BigEndian.PutUint16(buf, checksum(buf[2:]))
	return buf
}

func decodeBlock(buf []byte) ([]uint16, error) {
	if len(buf) < 2 || len(buf)%2 != 0 {
		return nil, ErrCorrupt
	}
	if binary.BigEndian.Uint16(buf) != checksum(buf[2:]) {
		return nil, ErrCorrupt
	}
	words := make([]uint16, (len(buf)-2)/2)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(buf[2+2*i:])
	}
	return words, nil
}

// NewRun creates a run bucket and stores its description. The ID is
// assigned from a database-wide sequence.
func (r *Recorder) NewRun(info RunInfo) (string, error) {
	if info.Started.IsZero() {
		info.Started = time.Now()
	}
	err := r.DB.Update(func(tx *bbolt.Tx) error {
		n := 0
		if err := tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if strings.HasPrefix(string(name), BucketNamePrefix) {
				n++
			}
			return nil
		}); err != nil {
			return err
		}
		info.ID = fmt.Sprintf("%04d", n+1)

		b, err := tx.CreateBucket(bucketName(info.ID))
		if err != nil {
			return err
		}
		meta, err := yaml.Marshal(info)
		if err != nil {
			return err
		}
		return b.Put(metaKey, meta)
	})
	if err != nil {
		return "", err
	}
	log.Info("recording run %s", info.ID)
	return info.ID, nil
}

// Append stores one block at the end of run and returns its sequence
// number, starting at 1
func (r *Recorder) Append(run string, words []uint16) (uint64, error) {
	var seq uint64
	err := r.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(run))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrNoRun, run)
		}
		var err error
		if seq, err = b.NextSequence(); err != nil {
			return err
		}
		return b.Put(uint64ToByte(seq), encodeBlock(words))
	})
	if err != nil {
		return 0, err
	}
	log.Debug("run %s: stored block %d (%d samples)", run, seq, len(words))
	return seq, nil
}

// Blocks calls fn for every block of run in sequence order
func (r *Recorder) Blocks(run string, fn func(seq uint64, words []uint16) error) error {
	return r.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(run))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrNoRun, run)
		}
		return b.ForEach(func(k, v []byte) error {
			if len(k) != 8 {
				return nil
			}
			seq := binary.BigEndian.Uint64(k)
			words, err := decodeBlock(v)
			if err != nil {
				return fmt.Errorf("run %s block %d: %w", run, seq, err)
			}
			return fn(seq, words)
		})
	})
}

func readInfo(b *bbolt.Bucket) (RunInfo, error) {
	var info RunInfo
	meta := b.Get(metaKey)
	if meta == nil {
		return info, errors.New("run description missing")
	}
	if err := yaml.Unmarshal(meta, &info); err != nil {
		return info, err
	}
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		if len(k) == 8 {
			info.Blocks++
		}
	}
	return info, nil
}

// Run returns the description of one run
func (r *Recorder) Run(id string) (RunInfo, error) {
	var info RunInfo
	err := r.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(id))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrNoRun, id)
		}
		var err error
		info, err = readInfo(b)
		return err
	})
	return info, err
}

// Runs lists every recorded run in ID order
func (r *Recorder) Runs() ([]RunInfo, error) {
	var runs []RunInfo
	err := r.DB.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bbolt.Bucket) error {
			if !strings.HasPrefix(string(name), BucketNamePrefix) {
				return nil
			}
			info, err := readInfo(b)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			runs = append(runs, info)
			return nil
		})
	})
	return runs, err
}
