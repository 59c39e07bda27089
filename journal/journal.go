// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package journal persists the mixing pool's emitted event records into an
// append-only key-value store for external auditing. The host subscribes to
// the pool's EVM logs and feeds them in; records are keyed by a monotonic
// sequence number, never rewritten and never consumed by the pool itself.
package journal

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	log "github.com/luxfi/log"
	"github.com/zeebo/blake3"

	"github.com/luxfi/privacy/mixer"
)

// Kind classifies a pool event record.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindDeposit
	KindWithdrawal
	KindAuthorization
	KindReclamation
	KindOwnership
	KindFeeToggle
)

var (
	ErrEmptyLog       = errors.New("log has no topics")
	ErrCorruptRecord  = errors.New("corrupt journal record")
	ErrRangeOutOfSync = errors.New("record range exceeds journal length")

	headKey   = []byte("journal.head")
	recPrefix = []byte("journal.rec.")
)

var kindByTopic = map[common.Hash]Kind{
	mixer.TopicDeposit:              KindDeposit,
	mixer.TopicWithdrawal:           KindWithdrawal,
	mixer.TopicWithdrawalAuthorized: KindAuthorization,
	mixer.TopicReclaimed:            KindReclamation,
	mixer.TopicOwnershipTransferred: KindOwnership,
	mixer.TopicFeeToggled:           KindFeeToggle,
}

// Record is one persisted event.
type Record struct {
	Seq    uint64
	Kind   Kind
	Pool   common.Address
	Topics []common.Hash
	Data   []byte
	Block  uint64
	TxHash common.Hash
}

// ID returns the blake3 digest of the record's canonical encoding.
func (r *Record) ID() [32]byte {
	h := blake3.New()
	h.Write(r.encode())
	var id [32]byte
	h.Digest().Read(id[:])
	return id
}

func (r *Record) encode() []byte {
	buf := make([]byte, 0, 80+len(r.Topics)*32+len(r.Data))
	var word [8]byte
	binary.BigEndian.PutUint64(word[:], r.Seq)
	buf = append(buf, word[:]...)
	buf = append(buf, byte(r.Kind))
	buf = append(buf, r.Pool.Bytes()...)
	buf = append(buf, byte(len(r.Topics)))
	for _, t := range r.Topics {
		buf = append(buf, t[:]...)
	}
	binary.BigEndian.PutUint64(word[:], r.Block)
	buf = append(buf, word[:]...)
	buf = append(buf, r.TxHash[:]...)
	var dlen [4]byte
	binary.BigEndian.PutUint32(dlen[:], uint32(len(r.Data)))
	buf = append(buf, dlen[:]...)
	buf = append(buf, r.Data...)
	return buf
}

func decodeRecord(raw []byte) (*Record, error) {
	if len(raw) < 30 {
		return nil, ErrCorruptRecord
	}
	r := &Record{}
	r.Seq = binary.BigEndian.Uint64(raw[0:8])
	r.Kind = Kind(raw[8])
	r.Pool = common.BytesToAddress(raw[9:29])
	nTopics := int(raw[29])
	off := 30
	if len(raw) < off+nTopics*32+44 {
		return nil, ErrCorruptRecord
	}
	for i := 0; i < nTopics; i++ {
		r.Topics = append(r.Topics, common.BytesToHash(raw[off:off+32]))
		off += 32
	}
	r.Block = binary.BigEndian.Uint64(raw[off : off+8])
	off += 8
	r.TxHash = common.BytesToHash(raw[off : off+32])
	off += 32
	dlen := int(binary.BigEndian.Uint32(raw[off : off+4]))
	off += 4
	if len(raw) != off+dlen {
		return nil, ErrCorruptRecord
	}
	r.Data = append([]byte(nil), raw[off:]...)
	return r, nil
}

// Journal is the append-only store. Safe for concurrent appenders.
type Journal struct {
	db  database.Database
	log log.Logger

	mu   sync.Mutex
	next uint64
}

// New opens a journal over db, recovering the next sequence number from a
// previous run if one is stored.
func New(db database.Database, logger log.Logger) (*Journal, error) {
	j := &Journal{db: db, log: logger}
	has, err := db.Has(headKey)
	if err != nil {
		return nil, err
	}
	if has {
		raw, err := db.Get(headKey)
		if err != nil {
			return nil, err
		}
		if len(raw) != 8 {
			return nil, ErrCorruptRecord
		}
		j.next = binary.BigEndian.Uint64(raw)
	}
	return j, nil
}

// AppendLog converts an EVM log emitted by the pool into a record and
// persists it.
func (j *Journal) AppendLog(l *ethtypes.Log) (*Record, error) {
	if len(l.Topics) == 0 {
		return nil, ErrEmptyLog
	}
	rec := &Record{
		Kind:   kindByTopic[l.Topics[0]],
		Pool:   l.Address,
		Topics: l.Topics,
		Data:   append([]byte(nil), l.Data...),
		Block:  l.BlockNumber,
		TxHash: l.TxHash,
	}
	return j.Append(rec)
}

// Append assigns rec the next sequence number and persists it.
func (j *Journal) Append(rec *Record) (*Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rec.Seq = j.next
	if err := j.db.Put(recKey(rec.Seq), rec.encode()); err != nil {
		return nil, err
	}
	var head [8]byte
	binary.BigEndian.PutUint64(head[:], rec.Seq+1)
	if err := j.db.Put(headKey, head[:]); err != nil {
		return nil, err
	}
	j.next = rec.Seq + 1

	id := rec.ID()
	j.log.Debug("journal append",
		"seq", rec.Seq,
		"kind", rec.Kind,
		"pool", rec.Pool,
		"id", common.Hash(id),
	)
	return rec, nil
}

// Len returns the number of persisted records.
func (j *Journal) Len() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.next
}

// Records returns the records with sequence numbers in [start, end).
func (j *Journal) Records(start, end uint64) ([]*Record, error) {
	j.mu.Lock()
	length := j.next
	j.mu.Unlock()

	if start >= end || end > length {
		return nil, ErrRangeOutOfSync
	}
	out := make([]*Record, 0, end-start)
	for seq := start; seq < end; seq++ {
		raw, err := j.db.Get(recKey(seq))
		if err != nil {
			return nil, err
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func recKey(seq uint64) []byte {
	key := make([]byte, 0, len(recPrefix)+8)
	key = append(key, recPrefix...)
	var word [8]byte
	binary.BigEndian.PutUint64(word[:], seq)
	return append(key, word[:]...)
}
