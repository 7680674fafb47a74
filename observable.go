// Observable definitions for the reactive engine
// 可观察序列接口与基础适配器
package reactive

// Observable 可观察序列接口，订阅即把观察者接入事件源
// 取消通过SetUpstream回传的资源句柄完成，Subscribe本身不返回值
type Observable[T any] interface {
	Subscribe(observer Observer[T])
}

// observableFunc 以订阅函数实现的Observable
type observableFunc[T any] struct {
	onSubscribe func(observer Observer[T])
}

// Subscribe 执行订阅函数
func (o *observableFunc[T]) Subscribe(observer Observer[T]) {
	if observer == nil {
		return
	}
	o.onSubscribe(observer)
}

// Create 从订阅函数创建Observable
func Create[T any](onSubscribe func(observer Observer[T])) Observable[T] {
	return &observableFunc[T]{onSubscribe: onSubscribe}
}

// SubscribeWithCallbacks 用回调订阅序列，返回取消订阅的资源句柄
func SubscribeWithCallbacks[T any](source Observable[T], onNext func(value T), onError func(err error), onComplete func()) Disposable {
	observer := newBaseObserver(onNext, onError, onComplete)
	source.Subscribe(observer)
	return observer.upstream
}
