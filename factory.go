// Factory functions for the reactive engine
// 工厂函数，在订阅者的goroutine上同步发射
package reactive

import (
	"sync"
)

// ============================================================================
// 同步源工厂
// ============================================================================

// Just 创建发射固定值序列的Observable
func Just[T any](values ...T) Observable[T] {
	return Create(func(observer Observer[T]) {
		for _, value := range values {
			if observer.IsDisposed() {
				return
			}
			observer.OnNext(value)
		}
		observer.OnComplete()
	})
}

// Empty 创建立即完成的Observable
func Empty[T any]() Observable[T] {
	return Create(func(observer Observer[T]) {
		observer.OnComplete()
	})
}

// Never 创建不发射任何事件的Observable
func Never[T any]() Observable[T] {
	return Create(func(observer Observer[T]) {})
}

// Error 创建立即以错误终止的Observable
func Error[T any](err error) Observable[T] {
	return Create(func(observer Observer[T]) {
		observer.OnError(err)
	})
}

// Range 创建发射整数区间[start, start+count)的Observable
func Range(start, count int) Observable[int] {
	return Create(func(observer Observer[int]) {
		for i := 0; i < count; i++ {
			if observer.IsDisposed() {
				return
			}
			observer.OnNext(start + i)
		}
		observer.OnComplete()
	})
}

// FromSlice 从切片创建Observable
func FromSlice[T any](items []T) Observable[T] {
	return Create(func(observer Observer[T]) {
		for _, item := range items {
			if observer.IsDisposed() {
				return
			}
			observer.OnNext(item)
		}
		observer.OnComplete()
	})
}

// FromChannel 从channel创建Observable
// 在订阅者的goroutine上阻塞读取，channel关闭即完成，取消时停止读取
func FromChannel[T any](ch <-chan T) Observable[T] {
	return Create(func(observer Observer[T]) {
		stop := make(chan struct{})
		var once sync.Once
		observer.SetUpstream(NewBaseDisposable(func() {
			once.Do(func() { close(stop) })
		}))

		for {
			select {
			case <-stop:
				return
			case value, ok := <-ch:
				if !ok {
					observer.OnComplete()
					return
				}
				if observer.IsDisposed() {
					return
				}
				observer.OnNext(value)
			}
		}
	})
}
