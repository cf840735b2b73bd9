package telemetry

import (
	"net"
	"sync"

	"github.com/sirupsen/logrus"
)

// Snapshot is one tick's published diagnostics payload.
type Snapshot struct {
	TimestampSec  float64
	State         uint32
	MeasuredDCM   [3]float64
	MeasuredZMP   [3]float64
	LeftFootRatio float64
}

// Publisher fans a Snapshot out over UDP (best-effort) and to any
// subscribed in-process channels — the same drop-if-full discipline used
// elsewhere in this codebase for best-effort network queues. Publish never
// performs a blocking channel send; UDP datagrams are written inline.
type Publisher struct {
	mu         sync.Mutex
	conn       *net.UDPConn
	udpTargets []*net.UDPAddr
	subs       []chan Snapshot
	log        *logrus.Entry
}

// NewPublisher opens an ephemeral UDP socket for best-effort fan-out.
func NewPublisher() (*Publisher, error) {
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, log: logrus.WithField("component", "telemetry")}, nil
}

// AddUDPTarget registers an address to receive every published snapshot.
func (p *Publisher) AddUDPTarget(addr string) error {
	uaddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.udpTargets = append(p.udpTargets, uaddr)
	p.mu.Unlock()
	return nil
}

// Subscribe returns a channel that receives every published snapshot,
// dropped (never blocked on) when the subscriber falls behind.
func (p *Publisher) Subscribe(buffer int) <-chan Snapshot {
	ch := make(chan Snapshot, buffer)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	return ch
}

// Publish is the only method the control loop may call: it encodes the
// snapshot and hands it off without blocking. UDP writes happen inline
// since UDP send is itself non-blocking in practice, but any future slow
// transport should instead go through a subscriber channel.
func (p *Publisher) Publish(s Snapshot) {
	p.mu.Lock()
	targets := p.udpTargets
	subs := p.subs
	p.mu.Unlock()

	if len(targets) > 0 {
		buf := encodeSnapshot(s)
		for _, addr := range targets {
			if _, err := p.conn.WriteToUDP(buf, addr); err != nil {
				p.log.WithError(err).Debug("udp publish failed")
			}
		}
	}
	for _, ch := range subs {
		select {
		case ch <- s:
		default:
			// drop if the subscriber is behind; never block the tick.
		}
	}
}

// Close releases the UDP socket.
func (p *Publisher) Close() error { return p.conn.Close() }

func encodeSnapshot(s Snapshot) []byte {
	r := TickRecord{
		TimestampSec:  s.TimestampSec,
		State:         s.State,
		MeasuredDCM:   s.MeasuredDCM,
		MeasuredZMP:   s.MeasuredZMP,
		LeftFootRatio: s.LeftFootRatio,
	}
	var w Writer
	buf := w.buf[:0]
	buf = appendFloat64(buf, r.TimestampSec)
	buf = appendUint32(buf, r.State)
	for _, v := range r.MeasuredDCM {
		buf = appendFloat64(buf, v)
	}
	for _, v := range r.MeasuredZMP {
		buf = appendFloat64(buf, v)
	}
	buf = appendFloat64(buf, r.LeftFootRatio)
	out := make([]byte, len(buf))
	copy(out, buf)
	return out
}
