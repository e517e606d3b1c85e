package ports

import (
	"errors"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// Sentinel errors for the network port's resource-limit signals (spec §6
// "Network port"). Per §7's propagation policy, network errors are logged
// and peer-scored rather than aborting the node, so callers check these
// with errors.Is rather than treating them as fatal.
var (
	ErrBandwidthLimitExceeded = errors.New("bandwidth limit exceeded")
	ErrRateLimitExceeded      = errors.New("rate limit exceeded")
)

// MessageKind distinguishes gossiped payloads so a Network implementation
// can route delivery without unmarshaling the payload first.
type MessageKind uint8

const (
	MessageTx MessageKind = iota + 1
	MessageBlock
)

// PeerAddr pairs a peer's libp2p identity with the multiaddr it was last
// reachable at, the same pairing peer.AddrInfo uses for dialing.
type PeerAddr struct {
	ID   peer.ID
	Addr multiaddr.Multiaddr
}

// BanRecord describes one peer's active ban, as exposed to RPC
// introspection (net_getBanList) without requiring callers to import
// the concrete Network implementation's package.
type BanRecord struct {
	ID        string
	Reason    string
	Score     int
	BannedAt  int64
	ExpiresAt int64
}

// Network is the interface internal/bond, internal/aevum, and
// internal/bridge depend on for peer-to-peer transport (spec §6 "Network
// port"), mirroring DB: a swappable boundary so consensus code never
// imports a concrete libp2p host directly. Gossip of transactions and
// blocks, peer reputation (offense scoring, bans with optional
// expiration), and direct message delivery are the port's documented
// surface; an actual running transport is out of scope (the spec's
// explicit P2P-transport non-goal), so this is the interface shape a
// future libp2p-backed Network would satisfy.
type Network interface {
	// Broadcast gossips payload to every known peer, suppressing
	// redelivery of a payload already broadcast once.
	Broadcast(kind MessageKind, payload []byte) error
	// SendDirect delivers payload to a single peer outside of gossip.
	SendDirect(to peer.ID, kind MessageKind, payload []byte) error

	// RecordOffense penalizes a peer for a protocol violation, banning it
	// once its cumulative score crosses the ban threshold.
	RecordOffense(id peer.ID, penalty int, reason string)
	// IsBanned reports whether a peer is currently banned.
	IsBanned(id peer.ID) bool
	// Peers returns the currently known peer set.
	Peers() []PeerAddr
	// BanList returns every currently active ban.
	BanList() []BanRecord
}
