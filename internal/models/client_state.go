package models

import "sync"

// ClientState holds the values entered on the client tab. The subscribe topic and QoS
// are independent of the configured publish topic and QoS.
type ClientState struct {
	mu             sync.RWMutex
	message        string
	subscribeTopic string
	subscribeQoS   byte
	qosSet         bool
}

func NewClientState() *ClientState {
	return &ClientState{
		message:        Unset,
		subscribeTopic: Unset,
	}
}

func (c *ClientState) SetMessage(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = text
}

func (c *ClientState) SetSubscribeTopic(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribeTopic = text
}

func (c *ClientState) SetSubscribeQoS(text string) error {
	qos, err := ParseQoS(text)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribeQoS = qos
	c.qosSet = true
	return nil
}

// Message returns the payload to publish, ok is false while unset
func (c *ClientState) Message() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.message, !IsUnset(c.message)
}

// Subscription returns the subscribe topic and QoS, ok is false until both are set
func (c *ClientState) Subscription() (string, byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if IsUnset(c.subscribeTopic) || !c.qosSet {
		return "", 0, false
	}
	return c.subscribeTopic, c.subscribeQoS, true
}
