package mux

// Decision is a Handler's answer to a request for a new channel. The zero
// value accepts.
type Decision struct {
	declined bool
	reason   string
}

// Accept accepts a channel request.
func Accept() Decision {
	return Decision{}
}

// Decline refuses a channel request. The reason is sent to the requesting
// side and may be empty.
func Decline(reason string) Decision {
	return Decision{declined: true, reason: reason}
}

// Accepted reports whether the decision accepts the request.
func (d Decision) Accepted() bool {
	return !d.declined
}

// Reason returns the reason given to Decline.
func (d Decision) Reason() string {
	return d.reason
}

// A Handler decides whether channels requested by the remote side are
// accepted and is told when channels close.
//
// NewChannelRequested runs on the goroutine calling Multiplexer.Handle,
// before the ACCEPT frame is sent. Listeners that must see the first
// payloads of the channel should be added here. Writes made here are
// queued until the channel is open.
type Handler interface {
	NewChannelRequested(ch *Channel, initial []byte) Decision
	ChannelClosed(ch *Channel)
}

// HandlerFuncs adapts functions to the Handler interface. A nil OnRequest
// accepts every channel.
type HandlerFuncs struct {
	OnRequest func(ch *Channel, initial []byte) Decision
	OnClosed  func(ch *Channel)
}

func (h HandlerFuncs) NewChannelRequested(ch *Channel, initial []byte) Decision {
	if h.OnRequest == nil {
		return Accept()
	}
	return h.OnRequest(ch, initial)
}

func (h HandlerFuncs) ChannelClosed(ch *Channel) {
	if h.OnClosed != nil {
		h.OnClosed(ch)
	}
}

// AcceptAll accepts every channel and ignores closes.
var AcceptAll Handler = HandlerFuncs{}
