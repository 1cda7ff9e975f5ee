package registry

import (
	"context"
	"encoding/json"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

const keyPrefix = "/jnvim/"

// EtcdRegistry announces endpoints in etcd v3 under
// /jnvim/{service}/{addr} with JSON-encoded Instance values.
//
// Registration rides on a TTL lease with background keepalive: if the
// process dies, the lease expires and the entry disappears on its own, so
// peers never discover ghosts.
type EtcdRegistry struct {
	client *clientv3.Client
	log    *zap.Logger
}

// NewEtcdRegistry connects to the given etcd endpoints. A nil logger
// defaults to no-op.
func NewEtcdRegistry(endpoints []string, log *zap.Logger) (*EtcdRegistry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c, log: log}, nil
}

func (r *EtcdRegistry) Register(service string, inst Instance, ttl int64) error {
	ctx := context.TODO()

	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}
	val, err := json.Marshal(inst)
	if err != nil {
		return err
	}
	_, err = r.client.Put(ctx, keyPrefix+service+"/"+inst.Addr, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	// The lease id stays local so one registry instance can safely announce
	// several endpoints concurrently.
	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}
	go func() {
		for range ch {
		}
	}()
	r.log.Info("registered endpoint", zap.String("service", service), zap.String("addr", inst.Addr))
	return nil
}

func (r *EtcdRegistry) Deregister(service string, addr string) error {
	_, err := r.client.Delete(context.TODO(), keyPrefix+service+"/"+addr)
	if err != nil {
		return err
	}
	r.log.Info("deregistered endpoint", zap.String("service", service), zap.String("addr", addr))
	return nil
}

func (r *EtcdRegistry) Discover(service string) ([]Instance, error) {
	resp, err := r.client.Get(context.TODO(), keyPrefix+service+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	instances := make([]Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var inst Instance
		if err := json.Unmarshal(kv.Value, &inst); err != nil {
			r.log.Warn("skipping malformed registry entry", zap.ByteString("key", kv.Key))
			continue
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// Watch re-lists the full instance set on every change under the service
// prefix. Server-push from etcd, no polling.
func (r *EtcdRegistry) Watch(service string) <-chan []Instance {
	ch := make(chan []Instance, 1)
	go func() {
		watchChan := r.client.Watch(context.TODO(), keyPrefix+service+"/", clientv3.WithPrefix())
		for range watchChan {
			instances, err := r.Discover(service)
			if err != nil {
				continue
			}
			ch <- instances
		}
	}()
	return ch
}
