package mqtt

import (
	"sync"

	"github.com/golang-io/mqttc/packet"
)

// inFlight tracks PUBLISH packets awaiting the remainder of a QoS 2 cycle,
// keyed by packet id (spec §4.7's "client considers a packet-id free for
// reuse as soon as the cycle terminates" — Get removes the entry).
type inFlight struct {
	mu   sync.Mutex
	maps map[uint16]*packet.PUBLISH
}

func newInFlight() *inFlight {
	return &inFlight{maps: make(map[uint16]*packet.PUBLISH)}
}

func (i *inFlight) Get(id uint16) (*packet.PUBLISH, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	pkt, ok := i.maps[id]
	if ok {
		delete(i.maps, id)
	}
	return pkt, ok
}

func (i *inFlight) Put(pkt *packet.PUBLISH) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.maps[pkt.PacketID] = pkt
}

// Has reports whether id is currently parked, without consuming it — used
// by the packet-id allocator to skip ids still mid-cycle.
func (i *inFlight) Has(id uint16) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.maps[id]
	return ok
}
