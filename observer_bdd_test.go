// Observer protocol scenarios
// 观察者协议的行为契约：事件顺序、终止状态、上游级联
package reactive

import (
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("回调观察者", func() {
	var (
		values    []int
		errs      []error
		completes int
		observer  *baseObserver[int]
	)

	BeforeEach(func() {
		values = nil
		errs = nil
		completes = 0
		observer = newBaseObserver(
			func(v int) { values = append(values, v) },
			func(err error) { errs = append(errs, err) },
			func() { completes++ },
		)
	})

	When("按顺序投递值后完成", func() {
		It("转发全部值并恰好完成一次", func() {
			observer.OnNext(1)
			observer.OnNext(2)
			observer.OnNext(3)
			observer.OnComplete()

			Expect(values).To(Equal([]int{1, 2, 3}))
			Expect(errs).To(BeEmpty())
			Expect(completes).To(Equal(1))
			Expect(observer.IsDisposed()).To(BeTrue())
		})
	})

	When("以错误终止", func() {
		boom := errors.New("boom")

		It("错误之后的一切事件都被丢弃", func() {
			observer.OnNext(1)
			observer.OnError(boom)

			observer.OnNext(2)
			observer.OnComplete()
			observer.OnError(errors.New("late"))

			Expect(values).To(Equal([]int{1}))
			Expect(errs).To(Equal([]error{boom}))
			Expect(completes).To(BeZero())
		})

		It("错误原样转发，不做包装", func() {
			observer.OnError(boom)
			Expect(errs).To(HaveLen(1))
			Expect(errs[0]).To(MatchError(boom))
		})
	})

	When("完成之后再收到错误", func() {
		It("错误被丢弃", func() {
			observer.OnComplete()
			observer.OnError(errors.New("late"))

			Expect(completes).To(Equal(1))
			Expect(errs).To(BeEmpty())
		})
	})

	When("终止事件并发竞争", func() {
		It("恰好一个终止事件胜出", func() {
			boom := errors.New("boom")
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if i%2 == 0 {
						observer.OnError(boom)
					} else {
						observer.OnComplete()
					}
				}(i)
			}
			wg.Wait()

			Expect(len(errs) + completes).To(Equal(1))
		})
	})

	When("登记了上游资源", func() {
		var upstream *CompositeDisposable

		BeforeEach(func() {
			upstream = NewBaseDisposable(nil)
			observer.SetUpstream(upstream)
		})

		It("完成时级联释放上游", func() {
			observer.OnComplete()
			Expect(upstream.IsDisposed()).To(BeTrue())
		})

		It("错误时级联释放上游", func() {
			observer.OnError(errors.New("boom"))
			Expect(upstream.IsDisposed()).To(BeTrue())
		})

		It("多个上游一并累积并释放", func() {
			second := NewBaseDisposable(nil)
			observer.SetUpstream(second)

			observer.OnComplete()
			Expect(upstream.IsDisposed()).To(BeTrue())
			Expect(second.IsDisposed()).To(BeTrue())
		})

		It("终止后登记的上游立即被释放", func() {
			observer.OnComplete()

			late := NewBaseDisposable(nil)
			observer.SetUpstream(late)
			Expect(late.IsDisposed()).To(BeTrue())
		})
	})

	When("消费者主动取消", func() {
		It("取消后不再投递任何事件", func() {
			observer.OnNext(1)
			observer.upstream.Dispose()

			observer.OnNext(2)
			observer.OnComplete()
			observer.OnError(errors.New("boom"))

			Expect(values).To(Equal([]int{1}))
			Expect(errs).To(BeEmpty())
			Expect(completes).To(BeZero())
			Expect(observer.IsDisposed()).To(BeTrue())
		})
	})

	When("回调为nil", func() {
		It("以空操作代替，不会panic", func() {
			nop := NewObserver[string](nil, nil, nil)
			Expect(func() {
				nop.OnNext("x")
				nop.OnError(errors.New("boom"))
				nop.OnComplete()
			}).NotTo(Panic())
		})
	})
})

var _ = Describe("观察者的共享单元语义", func() {
	It("拷贝接口值共享同一终止状态", func() {
		completes := 0
		original := NewObserver[int](nil, nil, func() { completes++ })
		copied := original

		copied.OnComplete()
		original.OnComplete()

		Expect(completes).To(Equal(1))
		Expect(original.IsDisposed()).To(BeTrue())
	})
})
