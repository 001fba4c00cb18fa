package offline

// Operation returns a copy of the operation with the given id.
func (q *Queue) Operation(id string) (Operation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if op := q.find(id); op != nil {
		return op.clone(), true
	}
	return Operation{}, false
}

// Pending returns the pending operations in queue order.
func (q *Queue) Pending() []Operation {
	q.mu.Lock()
	defer q.mu.Unlock()
	return cloneAll(q.pending)
}

// Failed returns the failed operations in the order they failed.
func (q *Queue) Failed() []Operation {
	q.mu.Lock()
	defer q.mu.Unlock()
	return cloneAll(q.failed)
}

// OperationsByType returns pending then failed operations of type t.
func (q *Queue) OperationsByType(t OperationType) []Operation {
	return q.filter(func(op Operation) bool { return op.Type == t })
}

// OperationsByResource returns operations targeting resourceType. An empty
// resourceID matches every resource of that type.
func (q *Queue) OperationsByResource(resourceType, resourceID string) []Operation {
	return q.filter(func(op Operation) bool {
		return op.ResourceType == resourceType && (resourceID == "" || op.ResourceID == resourceID)
	})
}

// RetryableOperations returns failed operations with remaining retry budget.
func (q *Queue) RetryableOperations() []Operation {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := []Operation{}
	for _, op := range q.failed {
		if op.Retryable() {
			out = append(out, op.clone())
		}
	}
	return out
}

func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) FailedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.failed)
}

// HasOperations reports whether anything is pending or failed.
func (q *Queue) HasOperations() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) > 0 || len(q.failed) > 0
}

func (q *Queue) filter(match func(Operation) bool) []Operation {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := []Operation{}
	for _, ops := range [][]Operation{q.pending, q.failed} {
		for _, op := range ops {
			if match(op) {
				out = append(out, op.clone())
			}
		}
	}
	return out
}
