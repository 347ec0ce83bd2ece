package poller

import "time"

type controlOp int

const (
	opAddTask controlOp = iota
	opRemoveTask
	opEnableTask
	opDisableTask
)

type controlMsg struct {
	op   controlOp
	task *Task
	id   TaskID
}

// AddTask enqueues a new task for the scheduler to pick up on its
// next iteration. If task.NextDue is zero, it is due immediately.
func (p *Poller) AddTask(task *Task) TaskID {
	if task.ID == (TaskID{}) {
		task.ID = TaskID(newTaskUUID())
	}
	if task.NextDue.IsZero() {
		task.NextDue = time.Now()
	}
	task.Enabled = true
	p.controlCh <- controlMsg{op: opAddTask, task: task}
	return task.ID
}

// RemoveTask enqueues removal of id from the task table.
func (p *Poller) RemoveTask(id TaskID) {
	p.controlCh <- controlMsg{op: opRemoveTask, id: id}
}

// EnableTask enqueues re-enabling id.
func (p *Poller) EnableTask(id TaskID) {
	p.controlCh <- controlMsg{op: opEnableTask, id: id}
}

// DisableTask enqueues disabling id. Disabled tasks are skipped by
// the poll loop but remain in the table until health pruning (or
// RemoveTask) removes them.
func (p *Poller) DisableTask(id TaskID) {
	p.controlCh <- controlMsg{op: opDisableTask, id: id}
}

// Shutdown stops both the main loop and the health-pruning loop at
// their next iteration, per spec.md §4.6.
func (p *Poller) Shutdown() {
	p.Stop()
}

// drainControl applies every pending control message without
// blocking, per spec.md §4.6 step 1.
func (p *Poller) drainControl() {
	for {
		select {
		case msg := <-p.controlCh:
			p.applyControl(msg)
		default:
			return
		}
	}
}

func (p *Poller) applyControl(msg controlMsg) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch msg.op {
	case opAddTask:
		p.tasks[msg.task.ID] = msg.task
	case opRemoveTask:
		delete(p.tasks, msg.id)
	case opEnableTask:
		if t, ok := p.tasks[msg.id]; ok {
			t.Enabled = true
		}
	case opDisableTask:
		if t, ok := p.tasks[msg.id]; ok {
			t.Enabled = false
		}
	}
}
