package rpc

// handleNetGetPeerInfo returns the node's currently known peer set,
// grounded on the teacher's handleNetGetPeerInfo (same nil-disabled
// shape as wallet_* when the subsystem is absent).
func (s *Server) handleNetGetPeerInfo(req *Request) (interface{}, *Error) {
	if s.network == nil {
		return nil, &Error{Code: CodeNotFound, Message: "network port not enabled on this node"}
	}
	peers := s.network.Peers()
	result := PeerInfoResult{PeerCount: len(peers), Peers: make([]PeerInfo, len(peers))}
	for i, p := range peers {
		addr := ""
		if p.Addr != nil {
			addr = p.Addr.String()
		}
		result.Peers[i] = PeerInfo{ID: p.ID.String(), Addr: addr}
	}
	return result, nil
}

// handleNetGetBanList returns every currently active peer ban,
// grounded on the teacher's handleNetGetBanList.
func (s *Server) handleNetGetBanList(req *Request) (interface{}, *Error) {
	if s.network == nil {
		return nil, &Error{Code: CodeNotFound, Message: "network port not enabled on this node"}
	}
	bans := s.network.BanList()
	result := BanListResult{Bans: make([]BanEntry, len(bans))}
	for i, b := range bans {
		result.Bans[i] = BanEntry{
			ID:        b.ID,
			Reason:    b.Reason,
			Score:     b.Score,
			BannedAt:  b.BannedAt,
			ExpiresAt: b.ExpiresAt,
		}
	}
	return result, nil
}
