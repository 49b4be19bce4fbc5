package screen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gallery-be/internal/assets"
	"gallery-be/internal/container"
	"gallery-be/internal/datalayer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	screens []string
	events  []string
}

func (r *recordingSink) RecordScreen(ctx context.Context, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screens = append(r.screens, name)
}

func (r *recordingSink) RecordEvent(ctx context.Context, category, action, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, action)
}

func (r *recordingSink) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.screens...), append([]string(nil), r.events...)
}

// fakeFetcher returns outcomes in order, repeating the last one. A gate
// registered for a call index blocks that call until closed.
type fakeFetcher struct {
	mu       sync.Mutex
	outcomes []container.Outcome
	gates    map[int]chan struct{}
	calls    int
}

func (f *fakeFetcher) Fetch(ctx context.Context, timeout time.Duration) container.Outcome {
	f.mu.Lock()
	i := f.calls
	f.calls++
	gate := f.gates[i]
	out := f.outcomes[len(f.outcomes)-1]
	if i < len(f.outcomes) {
		out = f.outcomes[i]
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return out
}

func (f *fakeFetcher) Current() *container.Container {
	return &container.Container{Values: map[string]string{KeyAdjective: "Cute"}}
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func successWith(payload string) container.Outcome {
	return container.Outcome{
		Status: container.StatusSuccess,
		Container: &container.Container{
			Version: "1",
			Values:  map[string]string{KeyAdjective: "Cute", KeyCategories: payload},
		},
	}
}

func newTestController(f container.Fetcher, sink *recordingSink, resolver assets.Resolver) *Controller {
	return NewController(Deps{
		Fetcher:   f,
		Resolver:  resolver,
		Sink:      sink,
		DataLayer: datalayer.New(nil, sink),
		Timeout:   50 * time.Millisecond,
	})
}

func itemIDs(v View) []string {
	ids := make([]string, 0, len(v.Items))
	for _, it := range v.Items {
		ids = append(ids, it.ID)
	}
	return ids
}

func TestController_InitialView(t *testing.T) {
	c := newTestController(&fakeFetcher{outcomes: []container.Outcome{successWith("")}}, &recordingSink{}, nil)
	assert.Equal(t, StateLoading, c.View().State)
}

func TestController_SelectCategory(t *testing.T) {
	sink := &recordingSink{}
	resolver := assets.StaticResolver{"cat_1": {Width: 640, Height: 480}}
	c := newTestController(&fakeFetcher{outcomes: []container.Outcome{
		successWith(`[{"name":"Cat","image_files":["cat_1"]}]`),
	}}, sink, resolver)
	ctx := context.Background()

	v := c.Start(ctx)
	require.Equal(t, StateReady, v.State)
	assert.Equal(t, "Cute Animals", v.Title)
	assert.False(t, v.Degraded)
	require.Len(t, v.Items, 1)
	assert.Equal(t, Item{ID: "Cat", Label: "Cute Cat Pictures", Detail: "1 images"}, v.Items[0])

	v, err := c.Select(ctx, "Cat")
	require.NoError(t, err)
	assert.Equal(t, StateDetail, v.State)
	assert.Equal(t, "Cute Cat Images", v.Title)
	assert.Equal(t, "<< Cute Animals", v.BackLabel)
	assert.Equal(t, []Item{{ID: "cat_1", Label: "cat_1", Detail: "640x480"}}, v.Items)

	screens, _ := sink.snapshot()
	assert.Equal(t, []string{MainScreenName, CategoryScreenName}, screens)
}

func TestController_EmptyCategoryList(t *testing.T) {
	c := newTestController(&fakeFetcher{outcomes: []container.Outcome{
		successWith(`[{"name":"Dog","image_files":[]}]`),
	}}, &recordingSink{}, nil)
	ctx := context.Background()

	v := c.Start(ctx)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "0 images", v.Items[0].Detail)

	v, err := c.Select(ctx, "Dog")
	require.NoError(t, err)
	assert.Equal(t, StateDetail, v.State)
	assert.Empty(t, v.Items)
}

func TestController_TimeoutDegrades(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	client := container.NewClient("GTM-TEST", providerFunc(func(ctx context.Context) (*container.Container, error) {
		<-block
		return nil, errors.New("too late")
	}), nil, nil)

	c := newTestController(client, &recordingSink{}, nil)

	start := time.Now()
	v := c.Start(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StateReady, v.State)
	assert.True(t, v.Degraded)
	assert.Equal(t, "No data available.", v.Message)
	assert.Empty(t, v.Items)
}

func TestController_FailureDegrades(t *testing.T) {
	c := newTestController(&fakeFetcher{outcomes: []container.Outcome{
		{Status: container.StatusFailure, Err: container.ErrFetchFailure},
	}}, &recordingSink{}, nil)

	v := c.Start(context.Background())
	assert.Equal(t, StateReady, v.State)
	assert.True(t, v.Degraded)
	assert.Equal(t, "Cute Animals", v.Title)
}

func TestController_RefreshReplacesAtomically(t *testing.T) {
	gate := make(chan struct{})
	f := &fakeFetcher{
		outcomes: []container.Outcome{
			successWith(`[{"name":"Bunny","image_files":["bunny_1"]},{"name":"Tiger","image_files":[]}]`),
			successWith(`[{"name":"Cat","image_files":["cat_1"]},{"name":"Dog","image_files":[]},{"name":"Owl","image_files":[]}]`),
		},
		gates: map[int]chan struct{}{1: gate},
	}
	sink := &recordingSink{}
	c := newTestController(f, sink, nil)
	ctx := context.Background()

	v1 := c.Start(ctx)
	require.Equal(t, []string{"Bunny", "Tiger"}, itemIDs(v1))

	done := make(chan View)
	go func() {
		v, err := c.Refresh(ctx)
		assert.NoError(t, err)
		done <- v
	}()

	// While the fetch is outstanding readers still see V1 in full.
	assert.Eventually(t, func() bool { return f.Calls() == 2 }, time.Second, time.Millisecond)
	for i := 0; i < 20; i++ {
		assert.Equal(t, []string{"Bunny", "Tiger"}, itemIDs(c.View()))
	}

	close(gate)
	v2 := <-done
	assert.Equal(t, []string{"Cat", "Dog", "Owl"}, itemIDs(v2))
	assert.Equal(t, v2, c.View())

	screens, events := sink.snapshot()
	assert.Equal(t, []string{MainScreenName, MainScreenName}, screens)
	assert.Equal(t, []string{EventRefresh, EventCustomTag}, events)
}

func TestController_ConcurrentRefreshesSerialize(t *testing.T) {
	f := &fakeFetcher{outcomes: []container.Outcome{
		successWith(`[{"name":"A","image_files":[]}]`),
		successWith(`[{"name":"B","image_files":[]}]`),
		successWith(`[{"name":"C","image_files":[]}]`),
		successWith(`[{"name":"D","image_files":[]}]`),
	}}
	c := newTestController(f, &recordingSink{}, nil)
	ctx := context.Background()
	c.Start(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Refresh(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, f.Calls())
	v := c.View()
	assert.Equal(t, StateReady, v.State)
	assert.Equal(t, []string{"D"}, itemIDs(v))
}

func TestController_MalformedPayloadDegrades(t *testing.T) {
	c := newTestController(&fakeFetcher{outcomes: []container.Outcome{
		successWith(`[{"name":"X"}]`),
	}}, &recordingSink{}, nil)

	v := c.Start(context.Background())
	assert.Equal(t, StateReady, v.State)
	assert.True(t, v.Degraded)
	assert.Empty(t, v.Items)
	assert.Equal(t, "No data available.", v.Message)
}

func TestController_EmptyPayload(t *testing.T) {
	c := newTestController(&fakeFetcher{outcomes: []container.Outcome{successWith("")}}, &recordingSink{}, nil)

	v := c.Start(context.Background())
	assert.False(t, v.Degraded)
	assert.Equal(t, "No animal category found.", v.Message)
}

func TestController_BackAndTransitions(t *testing.T) {
	f := &fakeFetcher{outcomes: []container.Outcome{
		successWith(`[{"name":"Cat","image_files":["cat_1","cat_2"]}]`),
	}}
	sink := &recordingSink{}
	c := newTestController(f, sink, nil)
	ctx := context.Background()
	c.Start(ctx)

	_, err := c.Back(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = c.Select(ctx, "Unicorn")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	v, err := c.Select(ctx, "Cat")
	require.NoError(t, err)
	assert.Equal(t, []Item{{ID: "cat_1", Label: "cat_1"}, {ID: "cat_2", Label: "cat_2"}}, v.Items)

	_, err = c.Refresh(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = c.Select(ctx, "Cat")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	v, err = c.Back(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateReady, v.State)
	assert.Equal(t, []string{"Cat"}, itemIDs(v))

	// back navigation never refetches
	assert.Equal(t, 1, f.Calls())
	screens, _ := sink.snapshot()
	assert.Equal(t, []string{MainScreenName, CategoryScreenName, MainScreenName}, screens)
}

func TestController_SelectPushesCategoryName(t *testing.T) {
	sink := &recordingSink{}
	dl := datalayer.New(nil, sink)
	c := NewController(Deps{
		Fetcher:   &fakeFetcher{outcomes: []container.Outcome{successWith(`[{"name":"Cat","image_files":[]}]`)}},
		Sink:      sink,
		DataLayer: dl,
	})
	ctx := context.Background()
	c.Start(ctx)

	_, err := c.Select(ctx, "Cat")
	require.NoError(t, err)
	assert.Equal(t, "Cat", dl.Get(datalayer.KeyCategoryName))
}

type providerFunc func(ctx context.Context) (*container.Container, error)

func (f providerFunc) Load(ctx context.Context) (*container.Container, error) { return f(ctx) }
