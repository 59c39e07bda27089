// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package journal

import (
	"testing"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	log "github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/privacy/mixer"
)

func newTestJournal(t *testing.T) *Journal {
	j, err := New(memdb.New(), log.NewTestLogger(log.InfoLevel))
	require.NoError(t, err)
	return j
}

func TestJournalAppendAndRead(t *testing.T) {
	j := newTestJournal(t)
	require.Equal(t, uint64(0), j.Len())

	rec, err := j.Append(&Record{
		Kind:   KindDeposit,
		Pool:   mixer.ContractAddress,
		Topics: []common.Hash{mixer.TopicDeposit, common.BytesToHash([]byte{1})},
		Data:   []byte{0xaa, 0xbb},
		Block:  7,
		TxHash: common.BytesToHash([]byte{0xcc}),
	})
	require.NoError(t, err)
	require.Equal(t, uint64(0), rec.Seq)
	require.Equal(t, uint64(1), j.Len())

	got, err := j.Records(0, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, rec, got[0])
}

func TestJournalSequenceAssignment(t *testing.T) {
	j := newTestJournal(t)
	for i := uint64(0); i < 5; i++ {
		rec, err := j.Append(&Record{Kind: KindDeposit, Pool: mixer.ContractAddress})
		require.NoError(t, err)
		require.Equal(t, i, rec.Seq)
	}

	got, err := j.Records(2, 5)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, uint64(2), got[0].Seq)
	require.Equal(t, uint64(4), got[2].Seq)
}

func TestJournalRangeValidation(t *testing.T) {
	j := newTestJournal(t)
	_, err := j.Append(&Record{Kind: KindDeposit})
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end uint64
	}{
		{"empty interval", 1, 1},
		{"inverted interval", 1, 0},
		{"end past head", 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := j.Records(tt.start, tt.end)
			require.ErrorIs(t, err, ErrRangeOutOfSync)
		})
	}
}

func TestJournalRecoversHead(t *testing.T) {
	db := memdb.New()
	logger := log.NewTestLogger(log.InfoLevel)

	j, err := New(db, logger)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := j.Append(&Record{Kind: KindWithdrawal, Pool: mixer.ContractAddress})
		require.NoError(t, err)
	}

	// A fresh journal over the same store resumes the sequence.
	reopened, err := New(db, logger)
	require.NoError(t, err)
	require.Equal(t, uint64(3), reopened.Len())

	rec, err := reopened.Append(&Record{Kind: KindReclamation})
	require.NoError(t, err)
	require.Equal(t, uint64(3), rec.Seq)
}

func TestJournalAppendLog(t *testing.T) {
	j := newTestJournal(t)

	tests := []struct {
		name  string
		topic common.Hash
		want  Kind
	}{
		{"deposit", mixer.TopicDeposit, KindDeposit},
		{"withdrawal", mixer.TopicWithdrawal, KindWithdrawal},
		{"authorization", mixer.TopicWithdrawalAuthorized, KindAuthorization},
		{"reclamation", mixer.TopicReclaimed, KindReclamation},
		{"ownership", mixer.TopicOwnershipTransferred, KindOwnership},
		{"fee toggle", mixer.TopicFeeToggled, KindFeeToggle},
		{"foreign topic", common.BytesToHash([]byte{0xff}), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := j.AppendLog(&ethtypes.Log{
				Address:     mixer.ContractAddress,
				Topics:      []common.Hash{tt.topic},
				Data:        []byte{1, 2, 3},
				BlockNumber: 9,
			})
			require.NoError(t, err)
			require.Equal(t, tt.want, rec.Kind)
			require.Equal(t, []byte{1, 2, 3}, rec.Data)
		})
	}

	_, err := j.AppendLog(&ethtypes.Log{Address: mixer.ContractAddress})
	require.ErrorIs(t, err, ErrEmptyLog)
}

func TestRecordEncodeDecode(t *testing.T) {
	rec := &Record{
		Seq:  42,
		Kind: KindAuthorization,
		Pool: mixer.DelegatedContractAddress,
		Topics: []common.Hash{
			mixer.TopicWithdrawalAuthorized,
			common.BytesToHash([]byte{1}),
			common.BytesToHash([]byte{2}),
		},
		Data:   []byte{9, 8, 7},
		Block:  1234,
		TxHash: common.BytesToHash([]byte{0xee}),
	}

	decoded, err := decodeRecord(rec.encode())
	require.NoError(t, err)
	require.Equal(t, rec, decoded)
	require.Equal(t, rec.ID(), decoded.ID())
}

func TestRecordDecodeCorrupt(t *testing.T) {
	rec := &Record{Kind: KindDeposit, Topics: []common.Hash{mixer.TopicDeposit}}
	raw := rec.encode()

	_, err := decodeRecord(raw[:10])
	require.ErrorIs(t, err, ErrCorruptRecord)

	_, err = decodeRecord(append(raw, 0xff))
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestRecordIDDistinct(t *testing.T) {
	a := &Record{Seq: 1, Kind: KindDeposit}
	b := &Record{Seq: 2, Kind: KindDeposit}
	require.NotEqual(t, a.ID(), b.ID())
}
