package ownroutedal

import (
	"context"
	"sync"
	"time"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

type FetchStatus int

const (
	FetchStatusQueued     FetchStatus = 1
	FetchStatusInProgress FetchStatus = 2
	FetchStatusDone       FetchStatus = 3
	FetchStatusFailed     FetchStatus = 4
)

var fetchStatusNames = []string{
	"",
	"Queued",
	"In Progress",
	"Done",
	"Failed",
}

func (s FetchStatus) String() string {
	return fetchStatusNames[s]
}

func (s FetchStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type PlaceLoader interface {
	LoadPlace(ctx context.Context, place string) (*LoadedPlace, errorsx.Error)
}

type FetchQueueItem struct {
	Place          string        `json:"place"`
	Key            string        `json:"key"`
	Status         FetchStatus   `json:"status"`
	ElementCount   int           `json:"elementCount"`
	ErrorMessage   string        `json:"errorMessage,omitempty"`
	QueuedAt       time.Time     `json:"queuedAt"`
	TimeInProgress time.Duration `json:"timeInProgress"`
}

// FetchQueue downloads places in the background, one at a time
type FetchQueue struct {
	logger  *logpkg.Logger
	loader  PlaceLoader
	items   []*FetchQueueItem
	mu      *sync.RWMutex
	timeout time.Duration
	// wg tracks the worker goroutine, so callers (mostly tests) can wait for the queue to drain
	wg *sync.WaitGroup
}

func NewFetchQueue(logger *logpkg.Logger, loader PlaceLoader, timeout time.Duration) *FetchQueue {
	return &FetchQueue{logger, loader, []*FetchQueueItem{}, new(sync.RWMutex), timeout, new(sync.WaitGroup)}
}

// GetItems returns a copy of the queue items
func (q *FetchQueue) GetItems() []FetchQueueItem {
	q.mu.RLock()
	defer q.mu.RUnlock()

	items := make([]FetchQueueItem, len(q.items))
	for i, item := range q.items {
		items[i] = *item
	}
	return items
}

func (q *FetchQueue) AddPlaceToQueue(place string) (FetchQueueItem, errorsx.Error) {
	key := CacheKeyFromPlaceName(place)
	err := ValidateCacheKey(key)
	if err != nil {
		return FetchQueueItem{}, errorsx.Wrap(err, "place", place)
	}

	item := &FetchQueueItem{
		Place:    place,
		Key:      key,
		Status:   FetchStatusQueued,
		QueuedAt: time.Now(),
	}

	q.mu.Lock()
	q.items = append(q.items, item)
	queuedItem := *item
	q.mu.Unlock()

	q.startNextItem()

	return queuedItem, nil
}

func (q *FetchQueue) startNextItem() {
	nextItem := q.getNextItemToProcess()
	if nextItem == nil {
		return
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		err := q.fetchQueueItem(nextItem)
		if err != nil {
			q.logger.Error(
				"failed to fetch queue item. Place: %q.\nError: %q\nStack: %s",
				nextItem.Place, err.Error(), err.Stack())
		}

		q.startNextItem()
	}()
}

// getNextItemToProcess marks the first queued item as in progress and returns it.
// It returns nil if a fetch is already running or nothing is queued.
func (q *FetchQueue) getNextItemToProcess() *FetchQueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, item := range q.items {
		if item.Status == FetchStatusInProgress {
			// there is already a fetch in progress. Wait.
			return nil
		}
	}

	for _, item := range q.items {
		if item.Status == FetchStatusQueued {
			item.Status = FetchStatusInProgress
			return item
		}
	}

	// all fetches are finished
	return nil
}

func (q *FetchQueue) fetchQueueItem(item *FetchQueueItem) errorsx.Error {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	startTime := time.Now()
	loaded, err := q.loader.LoadPlace(ctx, item.Place)

	q.mu.Lock()
	defer q.mu.Unlock()

	item.TimeInProgress = time.Since(startTime)
	if err != nil {
		item.Status = FetchStatusFailed
		item.ErrorMessage = err.Error()
		return errorsx.Wrap(err)
	}

	item.Status = FetchStatusDone
	item.ElementCount = len(loaded.Document.Elements)

	return nil
}

// Wait blocks until every queued item has been processed
func (q *FetchQueue) Wait() {
	q.wg.Wait()
}
