// ConnectableObservable implementation for the reactive engine
// 可连接序列，把一次性源桥接为显式启动的多播
package reactive

import (
	"sync"
)

// ============================================================================
// 可连接序列
// ============================================================================

// ConnectableObservable 可连接的可观察序列
// 订阅只挂接观察者，数据在Connect之后才开始流动；共享状态跨越连接周期存活
type ConnectableObservable[T any] struct {
	source  Observable[T]
	subject *PublishSubject[T]

	// mu 保护连接槽，并发Connect只有第一个获胜
	mu      sync.Mutex
	current *CompositeDisposable
}

// Publish 把源序列包装为可连接序列
func Publish[T any](source Observable[T]) *ConnectableObservable[T] {
	return &ConnectableObservable[T]{
		source:  source,
		subject: NewPublishSubject[T](),
	}
}

// Subscribe 挂接观察者，连接建立前不会收到任何事件
func (co *ConnectableObservable[T]) Subscribe(observer Observer[T]) {
	co.subject.Subscribe(observer)
}

// Connect 建立上游连接，返回断开句柄
func (co *ConnectableObservable[T]) Connect() Disposable {
	return co.ConnectWith(NewCompositeDisposable())
}

// ConnectWith 在调用方提供的取消范围内建立连接
// 已连接时原样返回调用方句柄；断开动作换出连接槽后在锁外释放资源
func (co *ConnectableObservable[T]) ConnectWith(scope Disposable) Disposable {
	if scope == nil {
		scope = NewCompositeDisposable()
	}
	if scope.IsDisposed() {
		return scope
	}

	co.mu.Lock()
	if co.current != nil {
		co.mu.Unlock()
		return scope
	}
	connection := NewCompositeDisposable()
	co.current = connection
	co.mu.Unlock()

	logger.Debug().Msg("connectable: 建立上游连接")

	// 断开动作同时登记在连接与调用方句柄上，自然终止与主动断开走同一条路径
	teardown := NewBaseDisposable(func() {
		co.disconnect(connection)
	})
	connection.Add(teardown)
	scope.Add(teardown)

	co.source.Subscribe(&connectionObserver[T]{subject: co.subject, conn: connection})
	return scope
}

// disconnect 清空连接槽再于锁外释放换出的连接，之后的Connect开启新周期
func (co *ConnectableObservable[T]) disconnect(connection *CompositeDisposable) {
	co.mu.Lock()
	if co.current == connection {
		co.current = nil
	}
	co.mu.Unlock()

	connection.Dispose()
	logger.Debug().Msg("connectable: 连接已断开")
}

// IsConnected 检查当前是否存在连接
func (co *ConnectableObservable[T]) IsConnected() bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.current != nil
}

// connectionObserver 连接专用观察者，把上游事件注入主题
type connectionObserver[T any] struct {
	subject *PublishSubject[T]
	conn    *CompositeDisposable
}

func (o *connectionObserver[T]) SetUpstream(d Disposable) {
	o.conn.Add(d)
}

func (o *connectionObserver[T]) IsDisposed() bool {
	return o.conn.IsDisposed()
}

func (o *connectionObserver[T]) OnNext(value T) {
	o.subject.OnNext(value)
}

func (o *connectionObserver[T]) OnError(err error) {
	o.subject.OnError(err)
	o.conn.Dispose()
}

func (o *connectionObserver[T]) OnComplete() {
	o.subject.OnComplete()
	o.conn.Dispose()
}

// ============================================================================
// 引用计数自动连接
// ============================================================================

// refCountObservable 按观察者数量自动连接与断开
type refCountObservable[T any] struct {
	co    *ConnectableObservable[T]
	mu    sync.Mutex
	count int
	conn  Disposable
}

// RefCount 返回自动连接的序列，首个观察者触发连接，最后一个离开时断开
func (co *ConnectableObservable[T]) RefCount() Observable[T] {
	return &refCountObservable[T]{co: co}
}

// Subscribe 挂接观察者并按需建立连接
func (rc *refCountObservable[T]) Subscribe(observer Observer[T]) {
	if observer == nil {
		return
	}

	release := NewBaseDisposable(func() {
		rc.leave()
	})

	rc.mu.Lock()
	rc.count++
	first := rc.count == 1
	rc.mu.Unlock()

	rc.co.Subscribe(&refCountObserver[T]{downstream: observer, release: release})

	if first {
		conn := rc.co.Connect()
		rc.mu.Lock()
		active := rc.count > 0
		if active {
			rc.conn = conn
		}
		rc.mu.Unlock()
		if !active {
			conn.Dispose()
		}
	}
}

// leave 观察者离开，计数归零时断开连接
func (rc *refCountObservable[T]) leave() {
	rc.mu.Lock()
	rc.count--
	var conn Disposable
	if rc.count == 0 {
		conn = rc.conn
		rc.conn = nil
	}
	rc.mu.Unlock()

	if conn != nil {
		conn.Dispose()
		logger.Debug().Msg("connectable: 最后一个观察者离开，已断开")
	}
}

// refCountObserver 包装下游观察者，离开时递减引用计数
type refCountObserver[T any] struct {
	downstream Observer[T]
	release    *CompositeDisposable
}

// SetUpstream 把主题的移除句柄并入离开动作，再整体交给下游
func (o *refCountObserver[T]) SetUpstream(d Disposable) {
	o.release.Add(d)
	o.downstream.SetUpstream(o.release)
}

func (o *refCountObserver[T]) IsDisposed() bool {
	return o.release.IsDisposed() || o.downstream.IsDisposed()
}

func (o *refCountObserver[T]) OnNext(value T) {
	o.downstream.OnNext(value)
}

func (o *refCountObserver[T]) OnError(err error) {
	o.downstream.OnError(err)
	o.release.Dispose()
}

func (o *refCountObserver[T]) OnComplete() {
	o.downstream.OnComplete()
	o.release.Dispose()
}
