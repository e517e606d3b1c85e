package network

import (
	"errors"
	"hash/fnv"
	"sync"

	"github.com/bond-aevum/core/internal/ports"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// ErrPeerNotConnected is returned by SendDirect for an unknown peer.
var ErrPeerNotConnected = errors.New("peer not connected")

// Node is the reference implementation of ports.Network: an in-process
// peer registry, gossip-duplicate suppression, and reputation tracker.
// It models spec §6's Network port without running a libp2p transport —
// peers are registered via AddPeer (by a discovery mechanism this repo
// doesn't implement) rather than discovered over the wire, since an
// actual running P2P transport is the spec's explicit non-goal.
type Node struct {
	mu    sync.RWMutex
	peers map[peer.ID]multiaddr.Multiaddr
	seen  map[uint64]struct{} // fnv64 of (kind, payload), for broadcast dedup

	rep *ReputationManager
}

// New creates a Node backed by the given ReputationManager.
func New(rep *ReputationManager) *Node {
	return &Node{
		peers: make(map[peer.ID]multiaddr.Multiaddr),
		seen:  make(map[uint64]struct{}),
		rep:   rep,
	}
}

// AddPeer registers a peer as known/reachable.
func (n *Node) AddPeer(id peer.ID, addr multiaddr.Multiaddr) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.peers[id] = addr
}

// RemovePeer forgets a peer.
func (n *Node) RemovePeer(id peer.ID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.peers, id)
}

// Peers returns the currently known peer set.
func (n *Node) Peers() []ports.PeerAddr {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]ports.PeerAddr, 0, len(n.peers))
	for id, addr := range n.peers {
		out = append(out, ports.PeerAddr{ID: id, Addr: addr})
	}
	return out
}

// Broadcast records the payload's dedup key so a payload already broadcast
// once is suppressed (spec §6 "broadcast with duplicate suppression"). It
// keeps no per-peer record and sends nothing: there is no transport to
// deliver over, so this is bookkeeping only — see the package doc.
func (n *Node) Broadcast(kind ports.MessageKind, payload []byte) error {
	key := dedupKey(kind, payload)

	n.mu.Lock()
	if _, dup := n.seen[key]; dup {
		n.mu.Unlock()
		return nil
	}
	n.seen[key] = struct{}{}
	n.mu.Unlock()

	return nil
}

// SendDirect checks that to is a known, non-banned peer and returns
// ErrPeerNotConnected otherwise. It does not transmit payload; there is
// no transport to deliver over.
func (n *Node) SendDirect(to peer.ID, kind ports.MessageKind, payload []byte) error {
	n.mu.RLock()
	_, known := n.peers[to]
	n.mu.RUnlock()
	if !known {
		return ErrPeerNotConnected
	}
	if n.rep.IsBanned(to) {
		return ErrPeerNotConnected
	}
	return nil
}

// RecordOffense delegates to the reputation manager.
func (n *Node) RecordOffense(id peer.ID, penalty int, reason string) {
	n.rep.RecordOffense(id, penalty, reason)
}

// IsBanned delegates to the reputation manager.
func (n *Node) IsBanned(id peer.ID) bool {
	return n.rep.IsBanned(id)
}

// BanList delegates to the reputation manager, converting to the
// port-level record type.
func (n *Node) BanList() []ports.BanRecord {
	recs := n.rep.BanList()
	out := make([]ports.BanRecord, len(recs))
	for i, r := range recs {
		out[i] = ports.BanRecord{
			ID:        r.ID,
			Reason:    r.Reason,
			Score:     r.Score,
			BannedAt:  r.BannedAt,
			ExpiresAt: r.ExpiresAt,
		}
	}
	return out
}

func dedupKey(kind ports.MessageKind, payload []byte) uint64 {
	h := fnv.New64a()
	h.Write([]byte{byte(kind)})
	h.Write(payload)
	return h.Sum64()
}
