package routing

import (
	"container/heap"
	"math"
)

type pqItem struct {
	node     int64
	priority float64
	// seq is the push order, used to break ties between equal priorities
	seq uint64
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority == pq[j].priority {
		return pq[i].seq < pq[j].seq
	}
	return pq[i].priority < pq[j].priority
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x interface{}) {
	*pq = append(*pq, x.(*pqItem))
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// ShortestPath runs Dijkstra's algorithm from start, stopping once goal is popped from the queue.
// It returns the node ids from start to goal and the total distance.
// If goal can't be reached, the path is empty and the distance is +Inf.
func ShortestPath(graph Graph, start, goal int64) ([]int64, float64) {
	dist := map[int64]float64{start: 0}
	prev := make(map[int64]int64)

	distTo := func(id int64) float64 {
		d, ok := dist[id]
		if !ok {
			return math.Inf(1)
		}
		return d
	}

	var seq uint64
	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqItem{node: start, priority: 0, seq: seq})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		current := item.node
		if current == goal {
			break
		}

		if item.priority > distTo(current) {
			// stale entry, a shorter route to this node has already been expanded
			continue
		}

		for _, edge := range graph[current] {
			newDist := item.priority + edge.Weight
			if newDist < distTo(edge.To) {
				dist[edge.To] = newDist
				prev[edge.To] = current
				seq++
				heap.Push(pq, &pqItem{node: edge.To, priority: newDist, seq: seq})
			}
		}
	}

	path := reconstructPath(prev, start, goal)
	if len(path) == 0 {
		return []int64{}, math.Inf(1)
	}

	return path, distTo(goal)
}

// reconstructPath walks prev back from goal. It returns an empty path if the walk doesn't end at start.
func reconstructPath(prev map[int64]int64, start, goal int64) []int64 {
	path := []int64{goal}
	current := goal
	for current != start {
		previous, ok := prev[current]
		if !ok {
			return nil
		}
		path = append(path, previous)
		current = previous
	}

	// reverse into start -> goal order
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path
}
