package mpris

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/nucleusis/soundbridge/internal/mpris/mocks"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestRegister(t *testing.T) {
	tests := []struct {
		name        string
		reply       dbus.RequestNameReply
		replyErr    error
		wantPrimary bool
		wantErr     bool
	}{
		{"first launch", dbus.RequestNameReplyPrimaryOwner, nil, true, false},
		{"name taken", dbus.RequestNameReplyExists, nil, false, false},
		{"bus error", 0, errors.New("connection closed"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := mocks.NewMockBusConn(gomock.NewController(t))
			bus.EXPECT().RequestName(BusName, dbus.NameFlagDoNotQueue).
				Return(tt.reply, tt.replyErr)

			c := NewCoordinator(zap.NewNop(), bus)
			primary, err := c.Register()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Register error = %v, wantErr %v", err, tt.wantErr)
			}
			if primary != tt.wantPrimary {
				t.Errorf("primary = %v, want %v", primary, tt.wantPrimary)
			}
		})
	}
}

// forwardTarget fakes the remote object proxy on the instance of record.
type forwardTarget struct {
	dbus.BusObject

	method string
	args   []interface{}
	err    error
}

func (f *forwardTarget) Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	f.method = method
	f.args = args
	return &dbus.Call{Err: f.err}
}

func TestForward(t *testing.T) {
	bus := mocks.NewMockBusConn(gomock.NewController(t))
	target := &forwardTarget{}
	bus.EXPECT().Object(BusName, ObjectPath).Return(target)

	c := NewCoordinator(zap.NewNop(), bus)
	if err := c.Forward("status playing"); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	if target.method != rootInterface+".SetStatus" {
		t.Errorf("method = %q", target.method)
	}
	if len(target.args) != 1 || target.args[0] != "status playing" {
		t.Errorf("args = %v", target.args)
	}
}

func TestForward_EmptyIsNoop(t *testing.T) {
	bus := mocks.NewMockBusConn(gomock.NewController(t))
	// No Object expectation: nothing to forward.

	c := NewCoordinator(zap.NewNop(), bus)
	if err := c.Forward(""); err != nil {
		t.Fatalf("Forward: %v", err)
	}
}

func TestForward_CallError(t *testing.T) {
	bus := mocks.NewMockBusConn(gomock.NewController(t))
	bus.EXPECT().Object(BusName, ObjectPath).
		Return(&forwardTarget{err: errors.New("no reply")})

	c := NewCoordinator(zap.NewNop(), bus)
	if err := c.Forward("status playing"); err == nil {
		t.Fatal("expected forwarding error")
	}
}

func TestRelease(t *testing.T) {
	bus := mocks.NewMockBusConn(gomock.NewController(t))
	bus.EXPECT().ReleaseName(BusName).Return(dbus.ReleaseNameReplyReleased, nil)

	c := NewCoordinator(zap.NewNop(), bus)
	if err := c.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}
