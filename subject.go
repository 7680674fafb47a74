// Subject implementation for the reactive engine
// PublishSubject，面向当前订阅者的多播枢纽
package reactive

import (
	"sync"

	"github.com/google/uuid"
)

// 主题生命周期状态
const (
	subjectActive int32 = iota
	subjectErrored
	subjectCompleted
	subjectDisposed
)

// PublishSubject 发布主题，同时充当观察者与可观察序列
// 只向订阅时刻在册的观察者转发事件，不回放历史值
type PublishSubject[T any] struct {
	mu        sync.RWMutex
	state     int32
	err       error
	observers map[string]Observer[T]

	// delivery 串行化事件投递，保证观察者看到的事件互不交叠
	delivery sync.Mutex
	disp     *CompositeDisposable
}

// NewPublishSubject 创建发布主题
func NewPublishSubject[T any]() *PublishSubject[T] {
	return &PublishSubject[T]{
		observers: make(map[string]Observer[T]),
		disp:      NewCompositeDisposable(),
	}
}

// Subscribe 注册观察者
// 活动期注册并回传移除句柄；已终止时立即补发终止事件且不保留观察者
func (s *PublishSubject[T]) Subscribe(observer Observer[T]) {
	if observer == nil {
		return
	}

	s.mu.Lock()
	if s.state == subjectActive {
		id := uuid.NewString()
		s.observers[id] = observer
		s.mu.Unlock()

		observer.SetUpstream(NewBaseDisposable(func() {
			s.remove(id)
		}))
		return
	}
	state := s.state
	err := s.err
	s.mu.Unlock()

	switch state {
	case subjectErrored:
		observer.OnError(err)
	case subjectCompleted:
		observer.OnComplete()
	}
}

// remove 将观察者移出注册表
func (s *PublishSubject[T]) remove(id string) {
	s.mu.Lock()
	delete(s.observers, id)
	s.mu.Unlock()
}

// snapshot 复制当前观察者集合，投递在副本上进行，注册表锁不跨事件持有
func (s *PublishSubject[T]) snapshot() []Observer[T] {
	s.mu.RLock()
	observers := make([]Observer[T], 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.mu.RUnlock()
	return observers
}

func (s *PublishSubject[T]) currentState() int32 {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	return state
}

// OnNext 向所有在册观察者多播一个值
func (s *PublishSubject[T]) OnNext(value T) {
	if s.currentState() != subjectActive {
		return
	}
	observers := s.snapshot()

	s.delivery.Lock()
	if s.currentState() == subjectActive {
		for _, observer := range observers {
			observer.OnNext(value)
		}
	}
	s.delivery.Unlock()
}

// OnError 以错误终止主题，之后的订阅者立即收到同一错误
func (s *PublishSubject[T]) OnError(err error) {
	s.mu.Lock()
	if s.state != subjectActive {
		s.mu.Unlock()
		logger.Debug().Err(err).Msg("subject: 终止后错误被丢弃")
		return
	}
	s.state = subjectErrored
	s.err = err
	observers := s.observers
	s.observers = nil
	s.mu.Unlock()

	s.delivery.Lock()
	for _, observer := range observers {
		observer.OnError(err)
	}
	s.delivery.Unlock()

	s.disp.Dispose()
}

// OnComplete 正常终止主题，之后的订阅者立即收到完成事件
func (s *PublishSubject[T]) OnComplete() {
	s.mu.Lock()
	if s.state != subjectActive {
		s.mu.Unlock()
		return
	}
	s.state = subjectCompleted
	observers := s.observers
	s.observers = nil
	s.mu.Unlock()

	s.delivery.Lock()
	for _, observer := range observers {
		observer.OnComplete()
	}
	s.delivery.Unlock()

	s.disp.Dispose()
}

// SetUpstream 登记上游资源，主题释放时级联释放
func (s *PublishSubject[T]) SetUpstream(d Disposable) {
	s.disp.Add(d)
}

// IsDisposed 终止或释放后不再接收事件
func (s *PublishSubject[T]) IsDisposed() bool {
	return s.currentState() != subjectActive || s.disp.IsDisposed()
}

// Dispose 释放主题，清空注册表并级联释放上游
func (s *PublishSubject[T]) Dispose() {
	s.mu.Lock()
	if s.state == subjectActive {
		s.state = subjectDisposed
	}
	s.observers = nil
	s.mu.Unlock()

	s.disp.Dispose()
}

// HasObservers 检查是否存在在册观察者
func (s *PublishSubject[T]) HasObservers() bool {
	return s.ObserverCount() > 0
}

// ObserverCount 返回在册观察者数量
func (s *PublishSubject[T]) ObserverCount() int {
	s.mu.RLock()
	count := len(s.observers)
	s.mu.RUnlock()
	return count
}
