package registry

import (
	"context"
	"testing"
	"time"
)

// Needs a local etcd on 127.0.0.1:2379; skipped otherwise.
func newTestRegistry(t *testing.T) *EtcdRegistry {
	t.Helper()
	reg, err := NewEtcdRegistry([]string{"127.0.0.1:2379"}, nil)
	if err != nil {
		t.Skipf("etcd not available: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := reg.client.Status(ctx, "127.0.0.1:2379"); err != nil {
		t.Skipf("etcd not available: %v", err)
	}
	return reg
}

func TestRegisterAndDiscover(t *testing.T) {
	reg := newTestRegistry(t)

	inst1 := Instance{Addr: "127.0.0.1:8001", Weight: 10, Version: "1.0"}
	inst2 := Instance{Addr: "127.0.0.1:8002", Weight: 5, Version: "1.0"}

	if err := reg.Register("calc", inst1, 10); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register("calc", inst2, 10); err != nil {
		t.Fatal(err)
	}
	defer reg.Deregister("calc", inst1.Addr)
	defer reg.Deregister("calc", inst2.Addr)

	instances, err := reg.Discover("calc")
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 2 {
		t.Fatalf("expect 2 instances, got %d", len(instances))
	}

	if err := reg.Deregister("calc", inst1.Addr); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	instances, err = reg.Discover("calc")
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 1 {
		t.Fatalf("expect 1 instance after deregister, got %d", len(instances))
	}
	if instances[0].Addr != inst2.Addr {
		t.Fatalf("expect %s, got %s", inst2.Addr, instances[0].Addr)
	}
}

func TestWatchSeesChanges(t *testing.T) {
	reg := newTestRegistry(t)

	ch := reg.Watch("watched")
	if err := reg.Register("watched", Instance{Addr: "127.0.0.1:8009"}, 10); err != nil {
		t.Fatal(err)
	}
	defer reg.Deregister("watched", "127.0.0.1:8009")

	select {
	case instances := <-ch:
		if len(instances) != 1 {
			t.Fatalf("expect 1 instance from watch, got %d", len(instances))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch never fired")
	}
}
