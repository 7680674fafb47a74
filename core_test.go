// Disposable tests
// 资源释放层的行为与并发约束
package reactive

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestBaseDisposableRunsActionOnce(t *testing.T) {
	var calls int32
	d := NewBaseDisposable(func() {
		atomic.AddInt32(&calls, 1)
	})

	assert.False(t, d.IsDisposed())

	d.Dispose()
	d.Dispose()

	assert.True(t, d.IsDisposed())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "释放动作只能执行一次")
}

func TestCompositeDisposableCascade(t *testing.T) {
	var disposed int32
	cd := NewCompositeDisposable()
	for i := 0; i < 3; i++ {
		cd.Add(NewBaseDisposable(func() {
			atomic.AddInt32(&disposed, 1)
		}))
	}

	cd.Dispose()

	assert.True(t, cd.IsDisposed())
	assert.Equal(t, int32(3), atomic.LoadInt32(&disposed), "所有子资源都应被级联释放")
}

func TestCompositeDisposableAddAfterDispose(t *testing.T) {
	cd := NewCompositeDisposable()
	cd.Dispose()

	var calls int32
	child := NewBaseDisposable(func() {
		atomic.AddInt32(&calls, 1)
	})
	cd.Add(child)

	assert.True(t, child.IsDisposed(), "已释放的容器应立即释放新加入的子资源")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCompositeDisposableAddNil(t *testing.T) {
	cd := NewCompositeDisposable()
	assert.NotPanics(t, func() {
		cd.Add(nil)
		cd.Dispose()
	})
}

func TestCompositeDisposableNestedCascade(t *testing.T) {
	var order []string
	parent := NewCompositeDisposable()
	child := NewBaseDisposable(func() {
		order = append(order, "child")
	})
	inner := NewCompositeDisposable()
	inner.Add(NewBaseDisposable(func() {
		order = append(order, "inner")
	}))

	parent.Add(child)
	parent.Add(inner)
	parent.Dispose()

	require.Equal(t, []string{"child", "inner"}, order)
	assert.True(t, inner.IsDisposed())
}

func TestCompositeDisposableConcurrentDispose(t *testing.T) {
	const children = 64

	var disposed int32
	cd := NewCompositeDisposable()
	for i := 0; i < children; i++ {
		cd.Add(NewBaseDisposable(func() {
			atomic.AddInt32(&disposed, 1)
		}))
	}

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			cd.Dispose()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.True(t, cd.IsDisposed())
	assert.Equal(t, int32(children), atomic.LoadInt32(&disposed), "并发Dispose下每个子资源恰好释放一次")
}

func TestCompositeDisposableConcurrentAddAndDispose(t *testing.T) {
	const adders = 8
	const perAdder = 50

	cd := NewCompositeDisposable()
	childs := make([]*CompositeDisposable, 0, adders*perAdder)
	var mu sync.Mutex

	var g errgroup.Group
	for i := 0; i < adders; i++ {
		g.Go(func() error {
			for j := 0; j < perAdder; j++ {
				child := NewBaseDisposable(nil)
				mu.Lock()
				childs = append(childs, child)
				mu.Unlock()
				cd.Add(child)
			}
			return nil
		})
	}
	g.Go(func() error {
		cd.Dispose()
		return nil
	})
	require.NoError(t, g.Wait())

	// 无论在释放前还是释放后加入，所有子资源最终都必须处于已释放状态
	for _, child := range childs {
		assert.True(t, child.IsDisposed())
	}
}
