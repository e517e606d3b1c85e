// Bond/Aevum full node daemon.
//
// Usage:
//
//	bondaevumd [--mine --rpc-port=8545]  Run node
//	bondaevumd --help                    Show help
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bond-aevum/core/config"
	aevummempool "github.com/bond-aevum/core/internal/aevum/mempool"
	aevumstate "github.com/bond-aevum/core/internal/aevum/state"
	bondchain "github.com/bond-aevum/core/internal/bond/chain"
	bondconsensus "github.com/bond-aevum/core/internal/bond/consensus"
	bondmempool "github.com/bond-aevum/core/internal/bond/mempool"
	bondminer "github.com/bond-aevum/core/internal/bond/miner"
	"github.com/bond-aevum/core/internal/bond/policy"
	bondutxo "github.com/bond-aevum/core/internal/bond/utxo"
	"github.com/bond-aevum/core/internal/bridge"
	klog "github.com/bond-aevum/core/internal/log"
	"github.com/bond-aevum/core/internal/network"
	"github.com/bond-aevum/core/internal/rpc"
	"github.com/bond-aevum/core/internal/storage"
	"github.com/bond-aevum/core/internal/wallet"
	"github.com/bond-aevum/core/pkg/script"
	"github.com/bond-aevum/core/pkg/tx"
	"github.com/bond-aevum/core/pkg/types"
	"github.com/rs/zerolog"
)

func main() {
	cfg, flags, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if flags.Help {
		printUsage()
		return
	}

	if cfg.Network == config.NetworkTestnet {
		types.SetAddressHRP(types.BondTestnetHRP)
	} else {
		types.SetAddressHRP(types.BondMainnetHRP)
	}

	logFile := cfg.Log.File
	if logFile == "" {
		if err := os.MkdirAll(cfg.LogsDir(), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating logs dir: %v\n", err)
			os.Exit(1)
		}
		logFile = cfg.LogsDir() + "/bondaevum.log"
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	logger := klog.WithComponent("node")

	protocol := config.DefaultProtocolParams()
	bondGenesis := config.BondMainnetGenesis()
	if cfg.Network == config.NetworkTestnet {
		bondGenesis = config.BondTestnetGenesis()
	}

	logger.Info().
		Str("network", string(cfg.Network)).
		Str("datadir", cfg.DataDir).
		Msg("starting Bond/Aevum node")

	bond, err := startBond(cfg, bondGenesis, protocol.Bond, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start Bond")
	}

	miningCtx, stopMining := context.WithCancel(context.Background())
	if cfg.Mining.Enabled {
		if err := startMining(miningCtx, cfg, bond, logger); err != nil {
			logger.Fatal().Err(err).Msg("failed to start mining")
		}
	}

	aevum, err := startAevum(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start Aevum")
	}

	var bridgeDriver *bridge.Driver
	var bridgeStore *bridge.Store
	if cfg.Bridge.Enabled {
		bridgeStore, bridgeDriver, err = startBridge(cfg, protocol.Bridge)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to start bridge")
		}
	}

	var keystore *wallet.Keystore
	if cfg.Wallet.Enabled {
		keystore, err = wallet.NewKeystore(cfg.WalletDir())
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open wallet keystore")
		}
	}

	// The network port (spec §6) is interface-only in this daemon — no
	// libp2p host is dialed or listened on, since running P2P transport
	// is out of scope — but peer reputation still persists across
	// restarts the way the teacher's BanStore does, backed by Bond's
	// database.
	netRep := network.NewReputationManager(bond.db)
	if err := netRep.LoadBans(); err != nil {
		logger.Fatal().Err(err).Msg("failed to load peer ban list")
	}
	netNode := network.New(netRep)

	var server *rpc.Server
	if cfg.RPC.Enabled {
		server = rpc.New(fmt.Sprintf("%s:%d", cfg.RPC.Addr, cfg.RPC.Port), cfg.RPC)
		server.SetBond(bond.chain, bond.utxos, bond.pool)
		server.SetAevum(aevum.state, aevum.pool)
		if bridgeDriver != nil {
			server.SetBridge(bridgeDriver, bridgeStore)
		}
		if keystore != nil {
			server.SetKeystore(keystore)
		}
		server.SetNetwork(netNode)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start RPC server")
		}
		logger.Info().Str("addr", server.Addr()).Msg("RPC server listening")
	}

	waitForShutdown(logger)

	stopMining()
	if server != nil {
		if err := server.Stop(); err != nil {
			logger.Error().Err(err).Msg("error stopping RPC server")
		}
	}
	if err := bond.db.Close(); err != nil {
		logger.Error().Err(err).Msg("error closing Bond database")
	}
	if err := aevum.db.Close(); err != nil {
		logger.Error().Err(err).Msg("error closing Aevum database")
	}
}

// bondSubsystem bundles the Bond ledger's storage and in-memory state.
type bondSubsystem struct {
	db    *storage.BadgerDB
	utxos *bondutxo.Store
	chain *bondchain.Chain
	pool  *bondmempool.Pool
	pow   *bondconsensus.PoW
}

// startBond opens Bond's database, recovers (or seeds) its chain tip,
// and wires the mempool against the live UTXO set — grounded on the
// teacher's cmd/klingnetd bootstrap sequence (open db -> build UTXO
// store -> build chain, auto-recovering or seeding genesis -> build
// mempool against a UTXO-backed provider).
func startBond(cfg *config.Config, gen *config.BondGenesis, params config.BondPoWParams, logger zerolog.Logger) (*bondSubsystem, error) {
	db, err := storage.NewBadger(cfg.BondDir())
	if err != nil {
		return nil, fmt.Errorf("open bond database: %w", err)
	}

	utxoStore := bondutxo.NewStore(db)
	pow := bondconsensus.NewPoW(params)
	policyEngine := policy.NewEngine(policy.NewMemRecoveryStore())

	ch, err := bondchain.New(gen.ChainID, db, utxoStore, pow, policyEngine)
	if err != nil {
		return nil, fmt.Errorf("create bond chain: %w", err)
	}

	if ch.State().IsGenesis() {
		if err := ch.InitFromGenesis(gen); err != nil {
			return nil, fmt.Errorf("initialize bond genesis: %w", err)
		}
		logger.Info().Msg("bond chain initialized from genesis")
	} else {
		st := ch.State()
		logger.Info().Uint64("height", st.Height).Str("tip", st.TipHash.String()).Msg("bond chain resumed")
	}

	pool := bondmempool.New(utxoStore, policyEngine, ch.Height, nowUnix, 5000)
	ch.SetRevertedTxHandler(func(txs []*tx.Transaction) { pool.Reinsert(txs) })

	return &bondSubsystem{db: db, utxos: utxoStore, chain: ch, pool: pool, pow: pow}, nil
}

// startMining constructs a Miner paying the configured coinbase owner
// hash and runs it on a fixed interval, grounded on the teacher's runMiner
// ticker loop — simplified to drop the P2P broadcast and PoA validator
// selection steps this single-node daemon has no equivalent of.
func startMining(ctx context.Context, cfg *config.Config, bond *bondSubsystem, logger zerolog.Logger) error {
	if cfg.Mining.Coinbase == "" {
		return fmt.Errorf("--mine requires --coinbase")
	}
	ownerHash, err := hex.DecodeString(cfg.Mining.Coinbase)
	if err != nil || len(ownerHash) != types.HashSize {
		return fmt.Errorf("--coinbase must be a %d-byte hex-encoded owner hash", types.HashSize)
	}
	coinbaseScript := types.Script(script.P2PKHScript(ownerHash))

	m := bondminer.New(bond.chain, bond.pow, bond.pool, coinbaseScript, func() uint64 {
		return bond.chain.State().Supply
	})
	blockTime := time.Duration(bond.pow.Params.TargetBlockTimeSeconds) * time.Second

	logger.Info().
		Str("coinbase", cfg.Mining.Coinbase).
		Dur("interval", blockTime).
		Msg("block production enabled")

	go runMiner(ctx, m, bond.chain, bond.pool, blockTime, logger)
	return nil
}

// runMiner produces a block every blockTime and applies it to the chain.
// A production or application failure is logged and the tick skipped;
// the block's transactions stay in the mempool, since they are removed
// only after ProcessBlock succeeds (grounded on the
// teacher's runMiner; no P2P broadcast or validator-selection grace
// period, since this daemon has no peer network to race against).
func runMiner(ctx context.Context, m *bondminer.Miner, ch *bondchain.Chain, pool *bondmempool.Pool, blockTime time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(blockTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("block production stopped")
			return
		case <-ticker.C:
			blk, err := m.ProduceBlockCtx(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("failed to produce block")
				continue
			}
			if err := ch.ProcessBlock(blk); err != nil {
				logger.Error().Err(err).Msg("failed to process own block")
				continue
			}
			pool.RemoveConfirmed(blk.Transactions)
			logger.Info().
				Uint64("height", blk.Header.Height).
				Str("hash", blk.Hash().String()).
				Int("txs", len(blk.Transactions)).
				Msg("mined block")
		}
	}
}

// aevumSubsystem bundles the Aevum ledger's storage and in-memory state.
type aevumSubsystem struct {
	db    *storage.BadgerDB
	state *aevumstate.Store
	pool  *aevummempool.Pool
}

// startAevum opens Aevum's database and wires its account state store and
// nonce-aware mempool. Unlike Bond, there is no block-assembly chain
// object here: the state/mempool pair is handed only to the RPC server,
// nothing in this daemon applies pooled Aevum transactions to account
// state, and there is no Aevum block-production or finality pipeline.
func startAevum(cfg *config.Config) (*aevumSubsystem, error) {
	db, err := storage.NewBadger(cfg.AevumDir())
	if err != nil {
		return nil, fmt.Errorf("open aevum database: %w", err)
	}
	state := aevumstate.NewStore(db)
	pool := aevummempool.New(state, 5000)
	return &aevumSubsystem{db: db, state: state, pool: pool}, nil
}

// startBridge opens the bridge's transfer store and recovers its
// in-memory index from disk (spec §4.10 recovery requirement).
func startBridge(cfg *config.Config, params config.BridgeParams) (*bridge.Store, *bridge.Driver, error) {
	db, err := storage.NewBadger(cfg.BridgeDir())
	if err != nil {
		return nil, nil, fmt.Errorf("open bridge database: %w", err)
	}
	store := bridge.NewStore(db)
	if err := store.Load(); err != nil {
		return nil, nil, fmt.Errorf("recover bridge transfer state: %w", err)
	}
	return store, bridge.NewDriver(store, params), nil
}

func waitForShutdown(logger zerolog.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutdown signal received, stopping")
}

func nowUnix() uint64 {
	return uint64(time.Now().Unix())
}

func printUsage() {
	fmt.Println("bondaevumd - Bond/Aevum dual-ledger node")
	fmt.Println()
	fmt.Println("Usage: bondaevumd [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -network string      mainnet or testnet (default mainnet)")
	fmt.Println("  -datadir string      data directory")
	fmt.Println("  -rpc                 enable JSON-RPC server (default true)")
	fmt.Println("  -rpc-addr string     JSON-RPC listen address")
	fmt.Println("  -rpc-port int        JSON-RPC listen port")
	fmt.Println("  -wallet              enable the built-in wallet keystore")
	fmt.Println("  -mine                mine Bond blocks")
	fmt.Println("  -coinbase string     32-byte hex-encoded owner hash for mining rewards")
	fmt.Println("  -bridge              run the inter-ledger bridge watcher")
	fmt.Println("  -log-level string    debug, info, warn, error")
}
