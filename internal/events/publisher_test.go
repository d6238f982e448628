package events

import (
	"context"
	"errors"
	"io"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	closed     bool
	publishErr error
	published  []string
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, _ amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, key)
	return nil
}

func (c *fakeChannel) IsClosed() bool { return c.closed }

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// dialer hands out the queued channels in order, one per dial.
type dialer struct {
	channels []*fakeChannel
	dials    int
	err      error
}

func (d *dialer) dial(string, string) (channel, io.Closer, error) {
	if d.err != nil {
		return nil, nil, d.err
	}
	ch := d.channels[d.dials]
	d.dials++
	return ch, nopCloser{}, nil
}

func TestPublisher_PublishJSON(t *testing.T) {
	tests := []struct {
		name      string
		channels  []*fakeChannel
		breakConn func(d *dialer)
		wantDials int
		wantErr   bool
	}{
		{
			name:      "open channel is reused",
			channels:  []*fakeChannel{{}},
			wantDials: 1,
		},
		{
			name:     "closed channel is redialled",
			channels: []*fakeChannel{{}, {}},
			breakConn: func(d *dialer) {
				d.channels[0].closed = true
			},
			wantDials: 2,
		},
		{
			name:      "channel closing during publish is retried once",
			channels:  []*fakeChannel{{publishErr: amqp.ErrClosed}, {}},
			wantDials: 2,
		},
		{
			name:     "broker still down",
			channels: []*fakeChannel{{}},
			breakConn: func(d *dialer) {
				d.channels[0].closed = true
				d.err = errors.New("connection refused")
			},
			wantDials: 1,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &dialer{channels: tt.channels}
			p, err := newPublisher("amqp://test", "civicpay.events", d.dial)
			require.NoError(t, err)
			if tt.breakConn != nil {
				tt.breakConn(d)
			}

			err = p.PublishJSON(context.Background(), "booking.reserved", map[string]string{"id": "r-1"})
			assert.Equal(t, tt.wantDials, d.dials)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			last := tt.channels[d.dials-1]
			assert.Equal(t, []string{"booking.reserved"}, last.published)
		})
	}
}

func TestPublisher_RecoversAfterOutage(t *testing.T) {
	d := &dialer{channels: []*fakeChannel{{}, {}}}
	p, err := newPublisher("amqp://test", "civicpay.events", d.dial)
	require.NoError(t, err)

	d.channels[0].closed = true
	d.err = errors.New("connection refused")
	assert.Error(t, p.PublishJSON(context.Background(), "booking.expired", nil))

	d.err = nil
	require.NoError(t, p.PublishJSON(context.Background(), "booking.expired", nil))
	assert.Equal(t, []string{"booking.expired"}, d.channels[1].published)
	assert.NoError(t, p.Close())
}
