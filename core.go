// Package reactive provides a typed reactive-stream core engine for Go
// 响应式流核心引擎，提供资源释放、观察者协议、合并与可连接多播等基础能力
package reactive

import (
	"sync"
	"sync/atomic"
)

// ============================================================================
// 生命周期管理
// ============================================================================

// Disposable 可释放资源的接口，所有协作方都通过它管理订阅生命周期
type Disposable interface {
	// Add 注册子资源，父资源释放时级联释放；若已释放则立刻释放子资源
	Add(child Disposable)
	// Dispose 释放资源，幂等
	Dispose()
	// IsDisposed 检查是否已释放
	IsDisposed() bool
}

// CompositeDisposable 组合式资源管理器
// 状态从活动到已释放只发生一次转换，由CAS保证唯一的级联执行者
type CompositeDisposable struct {
	disposed  int32
	mu        sync.Mutex
	onDispose func()
	resources []Disposable
}

// NewCompositeDisposable 创建组合式资源管理器
func NewCompositeDisposable() *CompositeDisposable {
	return &CompositeDisposable{}
}

// NewBaseDisposable 创建带释放动作的基础资源
func NewBaseDisposable(onDispose func()) *CompositeDisposable {
	return &CompositeDisposable{
		onDispose: onDispose,
	}
}

// Add 添加可释放资源
// 不做重复注册检查，同一资源注册两次会被释放两次（Dispose幂等，代价可接受）
func (cd *CompositeDisposable) Add(child Disposable) {
	if child == nil {
		return
	}

	if atomic.LoadInt32(&cd.disposed) == 1 {
		child.Dispose()
		return
	}

	cd.mu.Lock()
	if atomic.LoadInt32(&cd.disposed) == 1 {
		cd.mu.Unlock()
		child.Dispose()
		return
	}
	cd.resources = append(cd.resources, child)
	cd.mu.Unlock()
}

// Dispose 释放所有资源
// 只有赢得CAS的调用者执行级联；级联在锁外进行，允许释放动作重入Add
func (cd *CompositeDisposable) Dispose() {
	if !atomic.CompareAndSwapInt32(&cd.disposed, 0, 1) {
		return
	}

	cd.mu.Lock()
	resources := cd.resources
	cd.resources = nil
	onDispose := cd.onDispose
	cd.onDispose = nil
	cd.mu.Unlock()

	if onDispose != nil {
		onDispose()
	}

	if len(resources) > 0 {
		logger.Trace().Int("children", len(resources)).Msg("composite disposable cascade")
	}
	for _, resource := range resources {
		resource.Dispose()
	}
}

// IsDisposed 检查是否已释放（无锁读取，转换发布后才可见）
func (cd *CompositeDisposable) IsDisposed() bool {
	return atomic.LoadInt32(&cd.disposed) == 1
}
