// Merge combinators for the reactive engine
// 合并多个源为单一序列，保证投递串行化与恰好一次的终止事件
package reactive

import (
	"sync"
	"sync/atomic"
)

// ============================================================================
// 合并共享状态
// ============================================================================

// mergeState 单次合并订阅的共享状态
// pending计数初始为1，代表外层上下文本身；每个内层源在订阅前递增，
// 完成时递减，唯一一次从1到0的转变触发对下游的完成事件
type mergeState[T any] struct {
	queue      *taskQueue
	owner      bool
	downstream Observer[T]
	disp       *CompositeDisposable
	pending    int64
	mu         sync.Mutex
	terminated bool
}

func newMergeState[T any](queue *taskQueue, owner bool, downstream Observer[T]) *mergeState[T] {
	return &mergeState[T]{
		queue:      queue,
		owner:      owner,
		downstream: downstream,
		disp:       NewCompositeDisposable(),
		pending:    1,
	}
}

func (st *mergeState[T]) isDisposed() bool {
	return st.disp.IsDisposed() || st.downstream.IsDisposed()
}

// deliver 串行化投递一个值，终止或取消后到达的值被丢弃
func (st *mergeState[T]) deliver(value T) {
	st.mu.Lock()
	if !st.terminated && !st.disp.IsDisposed() {
		st.downstream.OnNext(value)
	}
	st.mu.Unlock()
}

// deliverError 先释放共享资源切断所有上游，再恰好一次地转发错误
func (st *mergeState[T]) deliverError(err error) {
	st.disp.Dispose()

	st.mu.Lock()
	if st.terminated {
		st.mu.Unlock()
		logger.Debug().Err(err).Msg("merge: 终止后错误被丢弃")
		return
	}
	st.terminated = true
	st.downstream.OnError(err)
	st.mu.Unlock()
}

// completeOne 递减待完成计数，归零者释放共享资源并转发唯一的完成事件
func (st *mergeState[T]) completeOne() {
	if atomic.AddInt64(&st.pending, -1) != 0 {
		return
	}

	cancelled := st.disp.IsDisposed()
	st.disp.Dispose()

	st.mu.Lock()
	if !st.terminated && !cancelled {
		st.terminated = true
		st.downstream.OnComplete()
	}
	st.mu.Unlock()
}

// subscribeInner 订阅一个内层源
// 计数递增必须先于订阅，内层源同步完成时计数不会提前归零；
// 队列所有者直接订阅，重入的嵌套合并把订阅任务交给所有者迭代执行
func (st *mergeState[T]) subscribeInner(source Observable[T]) {
	atomic.AddInt64(&st.pending, 1)
	inner := &mergeInnerObserver[T]{state: st}

	if st.owner {
		source.Subscribe(inner)
		return
	}
	task := func() {
		source.Subscribe(inner)
	}
	if !st.queue.enqueue(task) {
		task()
	}
}

// ============================================================================
// 合并观察者
// ============================================================================

// mergeInnerObserver 内层源的观察者，所有事件汇入共享状态
type mergeInnerObserver[T any] struct {
	state *mergeState[T]
}

func (o *mergeInnerObserver[T]) SetUpstream(d Disposable) {
	o.state.disp.Add(d)
}

// IsDisposed 同时观察共享状态与下游，迟到的生产者据此停止发射
func (o *mergeInnerObserver[T]) IsDisposed() bool {
	return o.state.isDisposed()
}

func (o *mergeInnerObserver[T]) OnNext(value T) {
	o.state.deliver(value)
}

func (o *mergeInnerObserver[T]) OnError(err error) {
	o.state.deliverError(err)
}

func (o *mergeInnerObserver[T]) OnComplete() {
	o.state.completeOne()
}

func (o *mergeInnerObserver[T]) taskQueue() *taskQueue {
	return o.state.queue
}

// mergeOuterObserver 外层源的观察者，把发射出的内层序列接入合并
type mergeOuterObserver[T any] struct {
	state *mergeState[T]
}

func (o *mergeOuterObserver[T]) SetUpstream(d Disposable) {
	o.state.disp.Add(d)
}

func (o *mergeOuterObserver[T]) IsDisposed() bool {
	return o.state.isDisposed()
}

func (o *mergeOuterObserver[T]) OnNext(inner Observable[T]) {
	if inner == nil {
		return
	}
	o.state.subscribeInner(inner)
}

func (o *mergeOuterObserver[T]) OnError(err error) {
	o.state.deliverError(err)
}

// OnComplete 外层源就位完毕，释放初始计数
func (o *mergeOuterObserver[T]) OnComplete() {
	o.state.completeOne()
}

func (o *mergeOuterObserver[T]) taskQueue() *taskQueue {
	return o.state.queue
}

// ============================================================================
// 合并入口
// ============================================================================

// mergeObservable 装配期已知的固定源集合
type mergeObservable[T any] struct {
	sources []Observable[T]
}

// Merge 合并固定的一组源，单个源退化为直通
func Merge[T any](sources ...Observable[T]) Observable[T] {
	switch len(sources) {
	case 0:
		return Empty[T]()
	case 1:
		return sources[0]
	}
	return &mergeObservable[T]{sources: sources}
}

// Subscribe 订阅所有源
// 整个调用在任务队列所有权下进行，嵌套合并的订阅被推迟到最外层迭代执行
func (m *mergeObservable[T]) Subscribe(observer Observer[T]) {
	if observer == nil {
		return
	}

	q := queueFor(observer)
	owner := q.tryOwn()
	if owner {
		defer q.drain()
	}

	st := newMergeState(q, owner, observer)
	observer.SetUpstream(st.disp)

	for _, source := range m.sources {
		st.subscribeInner(source)
	}
	st.completeOne()
}

// mergeAllObservable 外层序列发射内层序列的合并
type mergeAllObservable[T any] struct {
	source Observable[Observable[T]]
}

// MergeAll 把序列的序列摊平为单一序列
func MergeAll[T any](source Observable[Observable[T]]) Observable[T] {
	return &mergeAllObservable[T]{source: source}
}

// Subscribe 订阅外层源，内层序列随外层发射逐个接入
func (m *mergeAllObservable[T]) Subscribe(observer Observer[T]) {
	if observer == nil {
		return
	}

	q := queueFor(observer)
	owner := q.tryOwn()
	if owner {
		defer q.drain()
	}

	st := newMergeState(q, owner, observer)
	observer.SetUpstream(st.disp)

	m.source.Subscribe(&mergeOuterObserver[T]{state: st})
}
