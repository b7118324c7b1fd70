package tor

import (
	"context"
	"encoding/hex"
	"errors"
	"net"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aniresolve/aniresolve/auth"
	"github.com/aniresolve/aniresolve/key"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

func init() {
	keyring.MockInit()
}

// fakeControl is a minimal control port that accepts a single password.
type fakeControl struct {
	ln       net.Listener
	password string
	hold     chan struct{}

	mu       sync.Mutex
	commands []string
}

func newFakeControl(password string) *fakeControl {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}
	f := &fakeControl{ln: ln, password: password}
	go f.serve()
	return f
}

func (f *fakeControl) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeControl) handle(conn net.Conn) {
	defer conn.Close()
	tp := textproto.NewConn(conn)
	authenticated := false
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.commands = append(f.commands, line)
		f.mu.Unlock()

		switch {
		case strings.HasPrefix(line, "PROTOCOLINFO"):
			_ = tp.PrintfLine("250-PROTOCOLINFO 1")
			_ = tp.PrintfLine("250-AUTH METHODS=HASHEDPASSWORD")
			_ = tp.PrintfLine(`250-VERSION Tor="0.4.8.13"`)
			_ = tp.PrintfLine("250 OK")
		case strings.HasPrefix(line, "AUTHENTICATE"):
			if !f.accepts(strings.TrimSpace(strings.TrimPrefix(line, "AUTHENTICATE"))) {
				_ = tp.PrintfLine("515 Authentication failed: Password did not match HashedControlPassword value from configuration")
				return
			}
			authenticated = true
			_ = tp.PrintfLine("250 OK")
		case !authenticated:
			_ = tp.PrintfLine("514 Authentication required.")
			return
		case line == "SIGNAL NEWNYM":
			if f.hold != nil {
				<-f.hold
			}
			_ = tp.PrintfLine("250 OK")
		case line == "QUIT":
			_ = tp.PrintfLine("250 closing connection")
			return
		default:
			_ = tp.PrintfLine(`510 Unrecognized command "%s"`, line)
		}
	}
}

// accepts checks an AUTHENTICATE argument given either as hex or as a quoted string.
func (f *fakeControl) accepts(arg string) bool {
	if unquoted, err := strconv.Unquote(arg); err == nil {
		return unquoted == f.password
	}
	decoded, err := hex.DecodeString(arg)
	return err == nil && string(decoded) == f.password
}

func (f *fakeControl) authenticated() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(lo.Filter(f.commands, func(c string, _ int) bool {
		return strings.HasPrefix(c, "AUTHENTICATE")
	}))
}

func (f *fakeControl) count(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.commands {
		if c == command {
			n++
		}
	}
	return n
}

func (f *fakeControl) log() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func TestController(t *testing.T) {
	Convey("Given a control port", t, func() {
		control := newFakeControl("secret")
		defer control.ln.Close()

		lock := filepath.Join(t.TempDir(), "newnym.lock")

		Convey("When rotating with the right password", func() {
			c := NewController(control.ln.Addr().String(), "secret", 0, lock)
			err := c.Rotate(context.Background())

			Convey("Then the control dialogue completes", func() {
				So(err, ShouldBeNil)
				So(c.Enabled(), ShouldBeTrue)
				So(control.authenticated(), ShouldEqual, 1)
				So(control.count("SIGNAL NEWNYM"), ShouldEqual, 1)

				commands := control.log()
				So(commands[0], ShouldStartWith, "PROTOCOLINFO")
				So(commands, ShouldContain, "SIGNAL NEWNYM")
			})
		})

		Convey("When the password is wrong", func() {
			c := NewController(control.ln.Addr().String(), "guess", 0, lock)
			err := c.Rotate(context.Background())

			Convey("Then no signal is sent", func() {
				So(errors.Is(err, ErrControl), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "515")
				So(control.count("SIGNAL NEWNYM"), ShouldEqual, 0)
			})
		})

		Convey("When several rotations overlap", func() {
			control.hold = make(chan struct{})
			c := NewController(control.ln.Addr().String(), "secret", 0, lock)

			var wg sync.WaitGroup
			errs := make([]error, 5)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs[i] = c.Rotate(context.Background())
				}(i)
			}
			time.Sleep(100 * time.Millisecond)
			close(control.hold)
			wg.Wait()

			Convey("Then they share a single NEWNYM", func() {
				for _, err := range errs {
					So(err, ShouldBeNil)
				}
				So(control.count("SIGNAL NEWNYM"), ShouldEqual, 1)
			})
		})

		Convey("A caller stops waiting for the settle delay when its ctx ends", func() {
			c := NewController(control.ln.Addr().String(), "secret", 2*time.Second, "")
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			So(errors.Is(c.Rotate(ctx), context.DeadlineExceeded), ShouldBeTrue)
			So(control.count("SIGNAL NEWNYM"), ShouldEqual, 1)
		})

		Convey("When the first caller gives up while the rotation is in flight", func() {
			control.hold = make(chan struct{})
			c := NewController(control.ln.Addr().String(), "secret", 0, lock)

			first, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			var wg sync.WaitGroup
			var firstErr, secondErr error
			wg.Add(2)
			go func() {
				defer wg.Done()
				firstErr = c.Rotate(first)
			}()
			time.Sleep(30 * time.Millisecond)
			go func() {
				defer wg.Done()
				secondErr = c.Rotate(context.Background())
			}()

			time.Sleep(300 * time.Millisecond)
			close(control.hold)
			wg.Wait()

			Convey("Then the other caller still gets the shared result", func() {
				So(errors.Is(firstErr, context.DeadlineExceeded), ShouldBeTrue)
				So(secondErr, ShouldBeNil)
				So(control.count("SIGNAL NEWNYM"), ShouldEqual, 1)
			})
		})
	})

	Convey("An unreachable control port is reported", t, func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		So(err, ShouldBeNil)
		address := ln.Addr().String()
		ln.Close()

		err = NewController(address, "", 0, "").Rotate(context.Background())
		So(errors.Is(err, ErrControl), ShouldBeTrue)
	})
}

func TestFromConfig(t *testing.T) {
	Convey("Without tor the rotator is a no-op", t, func() {
		viper.Set(key.TorEnable, false)
		r := FromConfig()
		So(r.Enabled(), ShouldBeFalse)
		So(r.Rotate(context.Background()), ShouldBeNil)
	})

	Convey("With tor a controller is built", t, func() {
		viper.Set(key.TorEnable, true)
		defer viper.Set(key.TorEnable, false)

		_, ok := FromConfig().(*Controller)
		So(ok, ShouldBeTrue)
	})

	Convey("The keyring supplies the password when the config has none", t, func() {
		viper.Set(key.TorEnable, true)
		viper.Set(key.TorControlPassword, "")
		defer viper.Set(key.TorEnable, false)

		So(auth.SetControlPassword("from-keyring"), ShouldBeNil)
		defer func() { _ = auth.DeleteControlPassword() }()

		c, ok := FromConfig().(*Controller)
		So(ok, ShouldBeTrue)
		So(c.password, ShouldEqual, "from-keyring")

		viper.Set(key.TorControlPassword, "from-config")
		defer viper.Set(key.TorControlPassword, "")
		c = FromConfig().(*Controller)
		So(c.password, ShouldEqual, "from-config")
	})
}
