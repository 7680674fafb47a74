// Cooperative task queue for the reactive engine
// 协作式任务队列，保证嵌套订阅以迭代而非递归方式展开
package reactive

import (
	"sync"
	"sync/atomic"
)

// taskQueue 单一所有者的先进先出任务队列
// 最外层的组合算子取得所有权并负责排空，重入的内层算子只入队不排空
type taskQueue struct {
	mu    sync.Mutex
	owned bool
	tasks []func()
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		tasks: make([]func(), 0, atomic.LoadInt32(&queueCapacity)),
	}
}

// tryOwn 尝试取得队列所有权，已有所有者时返回false
func (q *taskQueue) tryOwn() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.owned {
		return false
	}
	q.owned = true
	return true
}

// enqueue 把任务交给当前所有者，队列无所有者时返回false，调用方需自行执行
func (q *taskQueue) enqueue(task func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.owned {
		return false
	}
	q.tasks = append(q.tasks, task)
	return true
}

// drain 由所有者在退出路径上调用，执行所有任务后释放所有权
// 所有权的释放与队列判空在同一临界区内完成，保证入队成功的任务必被执行
func (q *taskQueue) drain() {
	executed := 0
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.owned = false
			q.mu.Unlock()
			if executed > 0 {
				logger.Trace().Int("tasks", executed).Msg("task queue drained")
			}
			return
		}
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		task()
		executed++
	}
}

// queueOwner 可选能力接口，组合算子的观察者沿订阅链暴露其任务队列
type queueOwner interface {
	taskQueue() *taskQueue
}

// queueFor 沿下游观察者探测已存在的任务队列，不存在时新建
func queueFor[T any](observer Observer[T]) *taskQueue {
	if owner, ok := observer.(queueOwner); ok {
		if q := owner.taskQueue(); q != nil {
			return q
		}
	}
	return newTaskQueue()
}
