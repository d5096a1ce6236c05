// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Task 一个定时任务；Interval > 0 表示周期执行
type Task struct {
	ID       int64
	Execute  time.Time
	Interval time.Duration
	Callback func()
	index    int
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	n := len(*q)
	task := x.(*Task)
	task.index = n
	*q = append(*q, task)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// Manager 最小堆定时器，100ms 精度
type Manager struct {
	queue  taskQueue
	mutex  sync.Mutex
	nextID int64
}

func NewManager() *Manager {
	manager := &Manager{
		queue:  make(taskQueue, 0),
		nextID: 1,
	}
	heap.Init(&manager.queue)
	go manager.process()
	return manager
}

func (m *Manager) Add(delay time.Duration, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task := &Task{
		ID:       m.nextID,
		Execute:  time.Now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	m.nextID++

	heap.Push(&m.queue, task)
	return task.ID
}

func (m *Manager) Remove(taskID int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, task := range m.queue {
		if task.ID == taskID {
			heap.Remove(&m.queue, i)
			break
		}
	}
}

func (m *Manager) process() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		m.mutex.Lock()
		now := time.Now()

		var due []*Task
		for m.queue.Len() > 0 {
			task := m.queue[0]
			if task.Execute.After(now) {
				break
			}

			heap.Pop(&m.queue)
			due = append(due, task)

			if task.Interval > 0 {
				task.Execute = now.Add(task.Interval)
				heap.Push(&m.queue, task)
			}
		}
		m.mutex.Unlock()

		// 回调在锁外执行
		for _, task := range due {
			go task.Callback()
		}
	}
}
