package client

func (c *Client) appendGroup(entry ChatEntry) {
	c.historyMu.Lock()
	c.group = append(c.group, entry)
	c.historyMu.Unlock()
	c.emit(entry)
}

func (c *Client) appendPerPeer(peer string, entry ChatEntry) {
	c.historyMu.Lock()
	c.perPeer[peer] = append(c.perPeer[peer], entry)
	c.historyMu.Unlock()
	c.emit(entry)
}

func (c *Client) emit(entry ChatEntry) {
	if c.sink != nil {
		c.sink.OnMessage(entry)
	}
}

// GroupHistory returns a copy of the group (broadcast) chat history.
func (c *Client) GroupHistory() []ChatEntry {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	out := make([]ChatEntry, len(c.group))
	copy(out, c.group)
	return out
}

// PeerHistory returns a copy of the direct-message history with one peer.
func (c *Client) PeerHistory(name string) []ChatEntry {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	h := c.perPeer[name]
	out := make([]ChatEntry, len(h))
	copy(out, h)
	return out
}
