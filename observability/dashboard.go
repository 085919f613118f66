package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
)

const (
	dashWriteWait    = 1 * time.Second
	dashPingInterval = 500 * time.Millisecond
	dashPongWait     = dashPingInterval * 4
	dashPubInterval  = 200 * time.Millisecond
)

var dashUpgrader = websocket.Upgrader{}

// Dashboard streams a Collector's current snapshot to a browser over
// websocket, grounded directly on the teacher's publishEleUpdates
// ping/pong/publish loop, retargeted from RL-state broadcasting to
// metrics broadcasting.
type Dashboard struct {
	collector *Collector
}

// NewDashboard returns a Dashboard over the given Collector.
func NewDashboard(collector *Collector) *Dashboard {
	return &Dashboard{collector: collector}
}

// ServeHTTP upgrades the request to a websocket and streams snapshots
// until the client disconnects.
func (d *Dashboard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := dashUpgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer ws.Close()
	d.publish(r.Context(), ws)
}

func (d *Dashboard) publish(ctx context.Context, ws *websocket.Conn) {
	pubCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pinger := channerics.NewTicker(pubCtx.Done(), dashPingInterval)
	publisher := channerics.NewTicker(pubCtx.Done(), dashPubInterval)
	lastPong := time.Now()

	pong := make(chan struct{})
	defer close(pong)
	ws.SetPongHandler(func(string) error {
		pong <- struct{}{}
		return nil
	})

	go func() {
		for {
			select {
			case <-pubCtx.Done():
				return
			default:
				if _, _, err := ws.ReadMessage(); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	for {
		select {
		case <-pubCtx.Done():
			return
		case <-pinger:
			if time.Since(lastPong) > dashPongWait {
				return
			}
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(dashWriteWait)); err != nil {
				return
			}
		case <-pong:
			lastPong = time.Now()
		case <-publisher:
			if err := ws.SetWriteDeadline(time.Now().Add(dashWriteWait)); err != nil {
				return
			}
			if err := ws.WriteJSON(d.collector.fullSnapshot()); err != nil {
				return
			}
		}
	}
}

