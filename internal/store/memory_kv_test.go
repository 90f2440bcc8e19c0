package store_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Falcon-J/saathi/internal/store"
)

var _ = Describe("MemoryKV", func() {
	var (
		kv  *store.MemoryKV
		ctx context.Context
		now time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.UnixMilli(1_000_000)
		kv = store.NewMemoryKV().WithClock(func() time.Time { return now })
	})

	Describe("Get/Set", func() {
		It("returns ErrNotFound for a missing key", func() {
			_, err := kv.Get(ctx, "missing")
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("overwrites the previous value", func() {
			Expect(kv.Set(ctx, "k", "v1", 0)).To(Succeed())
			Expect(kv.Set(ctx, "k", "v2", 0)).To(Succeed())

			Expect(kv.Get(ctx, "k")).To(Equal("v2"))
		})

		It("expires values once the ttl has elapsed", func() {
			Expect(kv.Set(ctx, "presence", "1", 300*time.Second)).To(Succeed())

			now = now.Add(299 * time.Second)
			Expect(kv.Get(ctx, "presence")).To(Equal("1"))

			now = now.Add(time.Second)
			_, err := kv.Get(ctx, "presence")
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("keeps values without ttl forever", func() {
			Expect(kv.Set(ctx, "k", "v", 0)).To(Succeed())
			now = now.Add(24 * 365 * time.Hour)
			Expect(kv.Get(ctx, "k")).To(Equal("v"))
		})
	})

	Describe("Delete", func() {
		It("removes plain values and sets", func() {
			Expect(kv.Set(ctx, "k", "v", 0)).To(Succeed())
			Expect(kv.SetAdd(ctx, "s", "a")).To(Succeed())

			Expect(kv.Delete(ctx, "k")).To(Succeed())
			Expect(kv.Delete(ctx, "s")).To(Succeed())

			_, err := kv.Get(ctx, "k")
			Expect(err).To(MatchError(store.ErrNotFound))
			Expect(kv.SetMembers(ctx, "s")).To(BeEmpty())
		})
	})

	Describe("sets", func() {
		It("deduplicates members and returns them sorted", func() {
			Expect(kv.SetAdd(ctx, "s", "b", "a")).To(Succeed())
			Expect(kv.SetAdd(ctx, "s", "a", "c")).To(Succeed())

			Expect(kv.SetMembers(ctx, "s")).To(Equal([]string{"a", "b", "c"}))
		})

		It("treats removing an absent member as a no-op", func() {
			Expect(kv.SetAdd(ctx, "s", "a")).To(Succeed())

			Expect(kv.SetRemove(ctx, "s", "a")).To(Succeed())
			Expect(kv.SetRemove(ctx, "s", "a")).To(Succeed())
			Expect(kv.SetRemove(ctx, "other", "x")).To(Succeed())

			Expect(kv.SetMembers(ctx, "s")).To(BeEmpty())
		})
	})

	It("is safe for concurrent use", func() {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer GinkgoRecover()
				Expect(kv.SetAdd(ctx, "s", string(rune('a'+i%26)))).To(Succeed())
				Expect(kv.Set(ctx, "k", "v", time.Minute)).To(Succeed())
				_, _ = kv.Get(ctx, "k")
			}(i)
		}
		wg.Wait()

		Expect(kv.SetMembers(ctx, "s")).To(HaveLen(26))
	})
})
