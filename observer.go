// Observer protocol for the reactive engine
// 观察者协议，约束事件投递与终止状态规则
package reactive

import (
	"sync/atomic"
)

// ============================================================================
// 观察者协议
// ============================================================================

// Observer 观察者接口
// 事件顺序约束：OnNext出现零次或多次，之后至多一个终止事件（OnError或OnComplete），
// 终止之后不得再投递任何事件
type Observer[T any] interface {
	// SetUpstream 登记上游资源，供取消时级联释放
	SetUpstream(d Disposable)
	// IsDisposed 检查观察者是否不再接收事件，生产者应在继续发射前轮询
	IsDisposed() bool
	// OnNext 投递下一个值
	OnNext(value T)
	// OnError 以错误终止序列
	OnError(err error)
	// OnComplete 正常终止序列
	OnComplete()
}

// ============================================================================
// 回调观察者
// ============================================================================

// baseObserver 由回调构建的观察者
// 共享单元语义：指针接收者保证拷贝共享同一状态，事件分发只经过一次接口间接层
type baseObserver[T any] struct {
	terminated int32
	onNext     func(value T)
	onError    func(err error)
	onComplete func()
	upstream   *CompositeDisposable
}

func newBaseObserver[T any](onNext func(value T), onError func(err error), onComplete func()) *baseObserver[T] {
	if onNext == nil {
		onNext = func(T) {}
	}
	if onError == nil {
		onError = func(error) {}
	}
	if onComplete == nil {
		onComplete = func() {}
	}
	return &baseObserver[T]{
		onNext:     onNext,
		onError:    onError,
		onComplete: onComplete,
		upstream:   NewCompositeDisposable(),
	}
}

// NewObserver 创建回调观察者，nil回调按空操作处理
func NewObserver[T any](onNext func(value T), onError func(err error), onComplete func()) Observer[T] {
	return newBaseObserver(onNext, onError, onComplete)
}

// SetUpstream 登记上游资源，多个上游累积到同一组合资源中
func (o *baseObserver[T]) SetUpstream(d Disposable) {
	o.upstream.Add(d)
}

// IsDisposed 终止或上游释放后不再接收事件
func (o *baseObserver[T]) IsDisposed() bool {
	return atomic.LoadInt32(&o.terminated) == 1 || o.upstream.IsDisposed()
}

// OnNext 投递值，已终止或已释放时丢弃
func (o *baseObserver[T]) OnNext(value T) {
	if o.IsDisposed() {
		return
	}
	o.onNext(value)
}

// OnError 以错误终止，仅第一个终止事件生效，之后释放上游
// 已取消的观察者静默吸收终止事件
func (o *baseObserver[T]) OnError(err error) {
	if !atomic.CompareAndSwapInt32(&o.terminated, 0, 1) {
		logger.Debug().Err(err).Msg("observer: 终止后错误被丢弃")
		return
	}
	if o.upstream.IsDisposed() {
		return
	}
	o.onError(err)
	o.upstream.Dispose()
}

// OnComplete 正常终止，仅第一个终止事件生效，之后释放上游
func (o *baseObserver[T]) OnComplete() {
	if !atomic.CompareAndSwapInt32(&o.terminated, 0, 1) {
		return
	}
	if o.upstream.IsDisposed() {
		return
	}
	o.onComplete()
	o.upstream.Dispose()
}
