// Package tor rotates the exit identity of a Tor instance through its control port.
package tor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"time"

	"github.com/aniresolve/aniresolve/auth"
	"github.com/aniresolve/aniresolve/key"
	"github.com/aniresolve/aniresolve/log"
	"github.com/aniresolve/aniresolve/where"
	"github.com/cretz/bine/control"
	"github.com/gofrs/flock"
	"github.com/spf13/viper"
	"golang.org/x/sync/singleflight"
)

// Rotator requests a fresh network identity.
type Rotator interface {
	Rotate(ctx context.Context) error

	// Enabled reports whether rotating can change anything at all.
	Enabled() bool
}

// Noop is the rotator used when traffic does not leave through Tor.
type Noop struct{}

func (Noop) Rotate(context.Context) error { return nil }
func (Noop) Enabled() bool                { return false }

// ErrControl marks failures talking to the control port.
var ErrControl = errors.New("tor control")

const (
	dialTimeout   = 10 * time.Second
	rotateTimeout = 30 * time.Second
)

// Controller speaks the Tor control protocol through bine.
type Controller struct {
	address  string
	password string
	settle   time.Duration
	lockPath string

	group singleflight.Group
}

// NewController returns a controller for the given control address.
// An empty lockPath disables cross-process serialisation.
func NewController(address, password string, settle time.Duration, lockPath string) *Controller {
	return &Controller{
		address:  address,
		password: password,
		settle:   settle,
		lockPath: lockPath,
	}
}

// FromConfig returns a Controller when tor.enable is set and Noop otherwise.
// tor.control_password wins over a password stored in the keyring.
func FromConfig() Rotator {
	if !viper.GetBool(key.TorEnable) {
		return Noop{}
	}

	password := viper.GetString(key.TorControlPassword)
	if password == "" {
		stored, err := auth.ControlPassword()
		if err != nil {
			log.Warnf("keyring: %s", err)
		}
		password = stored
	}

	return NewController(
		viper.GetString(key.TorControlAddress),
		password,
		time.Duration(viper.GetInt(key.TorSettleSeconds))*time.Second,
		where.RotationLock(),
	)
}

func (c *Controller) Enabled() bool { return true }

// Rotate sends NEWNYM. Calls made while a rotation is in flight share its result.
// The shared rotation runs detached from any single caller and is bounded by
// rotateTimeout plus the settle delay. Each caller stops waiting when its own
// ctx is done.
func (c *Controller) Rotate(ctx context.Context) error {
	ch := c.group.DoChan("newnym", func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), rotateTimeout+c.settle)
		defer cancel()
		return nil, c.rotate(shared)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (c *Controller) rotate(ctx context.Context) error {
	if c.lockPath != "" {
		lock := flock.New(c.lockPath)
		locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
		if err != nil {
			return fmt.Errorf("%w: acquire rotation lock: %w", ErrControl, err)
		}
		if locked {
			defer func() { _ = lock.Unlock() }()
		}
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", ErrControl, c.address, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	ctl := control.NewConn(textproto.NewConn(conn))
	defer ctl.Close()

	if err := ctl.Authenticate(c.password); err != nil {
		return fmt.Errorf("%w: authenticate: %w", ErrControl, err)
	}
	if err := ctl.Signal("NEWNYM"); err != nil {
		return fmt.Errorf("%w: newnym: %w", ErrControl, err)
	}

	log.WithFields(log.Fields{"control": c.address}).Info("requested new tor identity")

	if c.settle > 0 {
		timer := time.NewTimer(c.settle)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}
