package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"helpdesk/internal/model/policy"
	"helpdesk/internal/pkg/cache"
	"helpdesk/internal/repository/memory"
)

// mapCache 模拟 Redis 缓存，值以 JSON 保存
type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	hits    int
	failGet bool
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return errors.New("connection refused")
	}
	v, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	c.hits++
	return json.Unmarshal(v, dest)
}

func (c *mapCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *mapCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

// countingStore 统计读库次数
type countingStore struct {
	*memory.PolicyStore
	lists int
	finds int
}

func (s *countingStore) List(ctx context.Context) ([]*policy.Policy, error) {
	s.lists++
	return s.PolicyStore.List(ctx)
}

func (s *countingStore) FindByType(ctx context.Context, t string) (*policy.Policy, error) {
	s.finds++
	return s.PolicyStore.FindByType(ctx, t)
}

func TestPolicyService(t *testing.T) {
	Convey("PolicyService", t, func() {
		ctx := context.Background()
		store := &countingStore{PolicyStore: memory.NewPolicyStore()}
		c := newMapCache()
		svc := NewPolicyService(store, c, time.Minute)

		So(svc.UpsertPolicy(ctx, &policy.Policy{PolicyType: "Return", ContentEN: "7 days", ContentML: "7 ദിവസം"}), ShouldBeNil)
		So(svc.UpsertPolicy(ctx, &policy.Policy{PolicyType: "shipping", ContentEN: "Free over 500"}), ShouldBeNil)

		Convey("列表读穿透缓存", func() {
			list, err := svc.ListPolicies(ctx)
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 2)
			So(store.lists, ShouldEqual, 1)

			list, err = svc.ListPolicies(ctx)
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 2)
			So(store.lists, ShouldEqual, 1)
			So(c.hits, ShouldEqual, 1)
		})

		Convey("单条读穿透缓存，类型大小写不敏感", func() {
			p, err := svc.GetPolicy(ctx, "RETURN")
			So(err, ShouldBeNil)
			So(p.ContentEN, ShouldEqual, "7 days")
			So(p.Version, ShouldEqual, 1)

			_, err = svc.GetPolicy(ctx, "return")
			So(err, ShouldBeNil)
			So(store.finds, ShouldEqual, 1)
		})

		Convey("未知类型", func() {
			_, err := svc.GetPolicy(ctx, "warranty")
			So(errors.Is(err, ErrPolicyNotFound), ShouldBeTrue)

			_, err = svc.GetPolicy(ctx, "  ")
			So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
		})

		Convey("写入后缓存失效，版本递增", func() {
			_, _ = svc.GetPolicy(ctx, "return")
			So(svc.UpsertPolicy(ctx, &policy.Policy{PolicyType: "return", ContentEN: "10 days"}), ShouldBeNil)

			p, err := svc.GetPolicy(ctx, "return")
			So(err, ShouldBeNil)
			So(p.ContentEN, ShouldEqual, "10 days")
			So(p.Version, ShouldEqual, 2)
		})

		Convey("缓存故障时回落到库", func() {
			c.failGet = true
			types, err := svc.ListPolicyTypes(ctx)
			So(err, ShouldBeNil)
			So(types, ShouldResemble, []string{"return", "shipping"})
		})

		Convey("未配置缓存", func() {
			plain := NewPolicyService(store, nil, time.Minute)
			types, err := plain.ListPolicyTypes(ctx)
			So(err, ShouldBeNil)
			So(types, ShouldResemble, []string{"return", "shipping"})
		})
	})
}

func TestNormalizePolicyType(t *testing.T) {
	Convey("NormalizePolicyType", t, func() {
		So(NormalizePolicyType(" Return  Policy "), ShouldEqual, "return_policy")
		So(NormalizePolicyType("SHIPPING"), ShouldEqual, "shipping")
		So(NormalizePolicyType(""), ShouldEqual, "")
	})
}
