package record

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"godaq/host/daq"
)

func openTemp(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestChecksum(t *testing.T) {
	// CRC-16/XMODEM check value
	assert.Equal(t, uint16(0x31C3), checksum([]byte("123456789")))
}

func TestAppendAndReplay(t *testing.T) {
	r := openTemp(t)

	plan := daq.DefaultPlan()
	plan.Sequence = []int{1, 2}
	plan.BlockSize = 2
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := r.NewRun(RunInfo{Started: started, Device: "sim", Plan: plan})
	require.NoError(t, err)
	assert.Equal(t, "0001", id)

	blocks := [][]uint16{
		{0x0001, 0x1002, 0x0003, 0x1004},
		{0x0FFF, 0x1FFF, 0x0000, 0x1000},
		{},
	}
	for i, b := range blocks {
		seq, err := r.Append(id, b)
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), seq)
	}

	var got [][]uint16
	var seqs []uint64
	err = r.Blocks(id, func(seq uint64, words []uint16) error {
		seqs = append(seqs, seq)
		got = append(got, words)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
	require.Len(t, got, 3)
	assert.Equal(t, blocks[0], got[0])
	assert.Equal(t, blocks[1], got[1])
	assert.Empty(t, got[2])

	info, err := r.Run(id)
	require.NoError(t, err)
	assert.Equal(t, id, info.ID)
	assert.Equal(t, "sim", info.Device)
	assert.True(t, started.Equal(info.Started))
	assert.Equal(t, plan, info.Plan)
	assert.Equal(t, 3, info.Blocks)
}

func TestRuns(t *testing.T) {
	r := openTemp(t)

	runs, err := r.Runs()
	require.NoError(t, err)
	assert.Empty(t, runs)

	first, err := r.NewRun(RunInfo{Device: "/dev/ttyACM0", Plan: daq.DefaultPlan()})
	require.NoError(t, err)
	second, err := r.NewRun(RunInfo{Device: "/dev/ttyACM1", Plan: daq.DefaultPlan()})
	require.NoError(t, err)
	_, err = r.Append(second, []uint16{1, 2, 3})
	require.NoError(t, err)

	runs, err = r.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first, runs[0].ID)
	assert.Equal(t, 0, runs[0].Blocks)
	assert.Equal(t, second, runs[1].ID)
	assert.Equal(t, "/dev/ttyACM1", runs[1].Device)
	assert.Equal(t, 1, runs[1].Blocks)
	assert.False(t, runs[0].Started.IsZero())
}

func TestUnknownRun(t *testing.T) {
	r := openTemp(t)

	_, err := r.Append("0042", []uint16{1})
	assert.ErrorIs(t, err, ErrNoRun)

	err = r.Blocks("0042", func(uint64, []uint16) error { return nil })
	assert.ErrorIs(t, err, ErrNoRun)

	_, err = r.Run("0042")
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestCorruptBlock(t *testing.T) {
	r := openTemp(t)

	id, err := r.NewRun(RunInfo{Plan: daq.DefaultPlan()})
	require.NoError(t, err)
	seq, err := r.Append(id, []uint16{0x0123, 0x0456})
	require.NoError(t, err)

	require.NoError(t, r.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(id))
		v := append([]byte(nil), b.Get(uint64ToByte(seq))...)
		v[3] ^= 0x01
		return b.Put(uint64ToByte(seq), v)
	}))

	err = r.Blocks(id, func(uint64, []uint16) error { return nil })
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestBlocksStopsOnCallbackError(t *testing.T) {
	r := openTemp(t)

	id, err := r.NewRun(RunInfo{Plan: daq.DefaultPlan()})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = r.Append(id, []uint16{uint16(i)})
		require.NoError(t, err)
	}

	stop := errors.New("stop")
	calls := 0
	err = r.Blocks(id, func(uint64, []uint16) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	r, err := Open(path)
	require.NoError(t, err)
	id, err := r.NewRun(RunInfo{Plan: daq.DefaultPlan()})
	require.NoError(t, err)
	_, err = r.Append(id, []uint16{7, 8})
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r, err = Open(path)
	require.NoError(t, err)
	defer r.Close()
	info, err := r.Run(id)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Blocks)
}
