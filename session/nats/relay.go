// Package nats relays session change events published by other portal
// instances into the local session manager.
package nats

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/pitabwire/util"

	"github.com/pitabwire/strata/config"
	"github.com/pitabwire/strata/session"
)

// Relay subscribes to the session events subject and feeds every
// decoded notification into the manager.
type Relay struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
	ownConn bool
}

// NewRelay connects to the configured NATS server and starts the
// subscription. When conn is non-nil it is reused and left open on
// Close.
func NewRelay(
	ctx context.Context,
	cfg config.ConfigurationSessionEvents,
	manager *session.Manager,
	conn *nats.Conn,
) (*Relay, error) {
	r := &Relay{subject: cfg.GetSessionEventsSubject()}

	if conn == nil {
		var err error
		conn, err = nats.Connect(cfg.GetSessionEventsURL(), nats.Name("strata-session-relay"))
		if err != nil {
			return nil, err
		}
		r.ownConn = true
	}
	r.conn = conn

	log := util.Log(ctx).WithField("subject", r.subject)

	sub, err := conn.Subscribe(r.subject, func(msg *nats.Msg) {
		var n session.Notification
		if err0 := json.Unmarshal(msg.Data, &n); err0 != nil {
			log.WithError(err0).Warn("dropping undecodable session event")
			return
		}

		if err0 := manager.Notify(ctx, n); err0 != nil {
			log.WithError(err0).Warn("could not apply session event")
		}
	})
	if err != nil {
		if r.ownConn {
			conn.Close()
		}
		return nil, err
	}
	r.sub = sub

	log.Debug("session event relay started")
	return r, nil
}

// Publish broadcasts a notification for other instances to apply.
func (r *Relay) Publish(_ context.Context, n session.Notification) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return r.conn.Publish(r.subject, raw)
}

// Close drains the subscription and, when the relay owns the
// connection, closes it.
func (r *Relay) Close() error {
	if r.sub != nil {
		if err := r.sub.Drain(); err != nil {
			return err
		}
	}
	if r.ownConn && r.conn != nil {
		r.conn.Close()
	}
	return nil
}
