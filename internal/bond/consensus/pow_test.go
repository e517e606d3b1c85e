package consensus

import (
	"errors"
	"math/big"
	"testing"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/pkg/block"
	"github.com/bond-aevum/core/pkg/types"
)

func easyParams() config.BondPoWParams {
	p := config.DefaultBondPoWParams()
	for i := range p.InitialTarget {
		p.InitialTarget[i] = 0xff
	}
	return p
}

func TestPoW_SealAndVerify(t *testing.T) {
	pow := NewPoW(easyParams())

	header := &block.Header{
		Version:        1,
		MerkleRoot:     types.Hash{1, 2, 3},
		Timestamp:      1000,
		Height:         1,
		DifficultyBits: types.MaxTarget().Compact(),
	}
	blk := block.NewBlock(header, nil)

	if err := pow.Seal(blk); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if err := pow.VerifyHeader(blk.Header); err != nil {
		t.Fatalf("VerifyHeader after Seal: %v", err)
	}
}

func TestPoW_VerifyHeader_Rejects(t *testing.T) {
	pow := NewPoW(easyParams())

	header := &block.Header{
		Version:        1,
		MerkleRoot:     types.Hash{1, 2, 3},
		Timestamp:      1000,
		Height:         1,
		DifficultyBits: types.NewDifficultyTarget(big.NewInt(0)).Compact(),
		Nonce:          42,
	}

	if err := pow.VerifyHeader(header); !errors.Is(err, ErrInsufficientWork) {
		t.Fatalf("VerifyHeader with zero target = %v, want ErrInsufficientWork", err)
	}
}

func TestPoW_SealModerateDifficulty(t *testing.T) {
	pow := NewPoW(easyParams())

	// A target one bit below max: still trivially satisfiable, exercises
	// a real (non-max) target through Mul/Clamp style comparisons.
	target := types.MaxTarget().Div(2)
	header := &block.Header{
		Version:        1,
		MerkleRoot:     types.Hash{0xDE, 0xAD},
		Timestamp:      12345,
		Height:         5,
		DifficultyBits: target.Compact(),
	}
	blk := block.NewBlock(header, nil)

	if err := pow.Seal(blk); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if err := pow.VerifyHeader(blk.Header); err != nil {
		t.Fatalf("VerifyHeader: %v", err)
	}
}

func TestPoW_Seal_Parallel(t *testing.T) {
	pow := NewPoW(easyParams())
	pow.Threads = 4

	header := &block.Header{
		Version:        1,
		MerkleRoot:     types.Hash{7, 7, 7},
		Timestamp:      999,
		Height:         1,
		DifficultyBits: types.MaxTarget().Compact(),
	}
	blk := block.NewBlock(header, nil)

	if err := pow.Seal(blk); err != nil {
		t.Fatalf("Seal (parallel): %v", err)
	}
	if err := pow.VerifyHeader(blk.Header); err != nil {
		t.Fatalf("VerifyHeader after parallel Seal: %v", err)
	}
}

func TestPoW_SealWithCancel_NilBlock(t *testing.T) {
	pow := NewPoW(easyParams())
	if err := pow.Seal(nil); err == nil {
		t.Error("Seal(nil) should error")
	}
}

func TestPoW_ShouldRetarget(t *testing.T) {
	pow := NewPoW(easyParams())
	cases := map[uint64]bool{
		0:    false,
		2015: false,
		2016: true,
		4032: true,
		4033: false,
	}
	for height, want := range cases {
		if got := pow.ShouldRetarget(height); got != want {
			t.Errorf("ShouldRetarget(%d) = %v, want %v", height, got, want)
		}
	}
}
