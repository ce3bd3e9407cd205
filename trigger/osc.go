package trigger

import (
	"net"

	"github.com/hypebeast/go-osc/osc"
	"github.com/sirupsen/logrus"

	"github.com/showctl/cueline/logger"
)

// OSCListener serves a UDP OSC endpoint and fires each message's address
// as a trigger key.
type OSCListener struct {
	server *osc.Server
	conn   net.PacketConn
}

// StartOSC binds the address and starts serving OSC packets.
func StartOSC(router *Router, addr string) (*OSCListener, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}

	log := logger.GetProjectLogger()
	server := &osc.Server{
		Addr:       addr,
		Dispatcher: &routerDispatcher{router: router, log: log},
	}
	go func() {
		if err := server.Serve(conn); err != nil {
			log.Debugf("OSC server stopped: %v", err)
		}
	}()

	log.Infof("listening for OSC triggers on: %s", addr)
	return &OSCListener{server: server, conn: conn}, nil
}

// Close stops serving.
func (l *OSCListener) Close() error {
	return l.conn.Close()
}

// routerDispatcher fires every received message, unwrapping bundles
// recursively in their packed order.
type routerDispatcher struct {
	router *Router
	log    *logrus.Entry
}

func (d *routerDispatcher) Dispatch(packet osc.Packet) {
	switch packet := packet.(type) {
	case *osc.Message:
		d.router.Fire(Key{Source: SourceOSC, Code: packet.Address})

	case *osc.Bundle:
		for _, message := range packet.Messages {
			d.router.Fire(Key{Source: SourceOSC, Code: message.Address})
		}
		for _, bundle := range packet.Bundles {
			d.Dispatch(bundle)
		}
	}
}
