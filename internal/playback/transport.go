package playback

// Transport is a single independently addressable media element. The
// session never assumes the two transports share a clock; it actively holds
// them in lockstep instead.
//
// Implementations mirror whatever the playback environment provides (a
// browser media element driven over a websocket, a test fake). Calls must
// be cheap and non-blocking; a command that the environment later rejects
// surfaces as state drift, which the reconciler corrects.
type Transport interface {
	// Load points the transport at a new resource. Unload releases it.
	Load(url string)
	Unload()

	// Play starts playback. The environment may refuse (autoplay policy);
	// the returned error is advisory and the session swallows it.
	Play() error
	Pause()
	Playing() bool

	// Seek and Position are in seconds.
	Seek(position float64)
	Position() float64

	Rate() float64
	SetRate(rate float64)

	SetMuted(muted bool)
	Muted() bool
}
