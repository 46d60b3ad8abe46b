package notify

import "time"

// retryQueue re-dispatches a job after a delay unless the manager stopped meanwhile.
type retryQueue struct {
	out  chan<- job
	done <-chan struct{}
}

func newRetryQueue(out chan<- job, done <-chan struct{}) *retryQueue {
	return &retryQueue{out: out, done: done}
}

func (q *retryQueue) Enqueue(j job, delay time.Duration) {
	time.AfterFunc(max(delay, 0), func() {
		select {
		case <-q.done:
		case q.out <- j:
			metricNotifyQueueLen.Set(int64(len(q.out)))
		}
	})
}
