// SPDX-License-Identifier: MPL-2.0

package events

import (
	"sync"
	"testing"
)

func TestPublishDeliversToTopicOnly(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var (
		progress []Progress
		prompts  []Prompt
	)
	Subscribe(bus, DownloadProgress, func(p Progress) { progress = append(progress, p) })
	Subscribe(bus, UserPrompt, func(p Prompt) { prompts = append(prompts, p) })

	Publish(bus, DownloadProgress, Progress{Total: 10, Downloaded: 4})
	Publish(bus, DownloadProgress, Progress{Total: 10, Downloaded: 10})
	Publish(bus, UpdateComplete, Complete{Version: "1.0.0"})

	if len(progress) != 2 || progress[1].Downloaded != 10 {
		t.Errorf("progress = %+v", progress)
	}
	if len(prompts) != 0 {
		t.Errorf("prompt handler received %+v", prompts)
	}
}

func TestSubscribeOrderAndUnsubscribe(t *testing.T) {
	t.Parallel()

	var bus Bus
	var order []string
	unsubA := Subscribe(&bus, StateChanged, func(StateChange) { order = append(order, "a") })
	Subscribe(&bus, StateChanged, func(StateChange) { order = append(order, "b") })

	Publish(&bus, StateChanged, StateChange{State: "Ready"})
	unsubA()
	unsubA()
	Publish(&bus, StateChanged, StateChange{State: "Ready"})

	want := []string{"a", "b", "b"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestPublishNilBus(t *testing.T) {
	t.Parallel()
	Publish(nil, UpdateComplete, Complete{Version: "1.0.0"})
}

func TestHandlerMaySubscribeDuringPublish(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var mu sync.Mutex
	calls := 0
	Subscribe(bus, UpdateComplete, func(Complete) {
		Subscribe(bus, UpdateComplete, func(Complete) {
			mu.Lock()
			calls++
			mu.Unlock()
		})
	})
	Publish(bus, UpdateComplete, Complete{})
	Publish(bus, UpdateComplete, Complete{})

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("nested handler called %d times, want 1", calls)
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	if got := UserPrompt.ID().String(); got != "user-prompt" {
		t.Errorf("UserPrompt name = %q", got)
	}
	if got := ActionRetryDownload.String(); got != "retry-download" {
		t.Errorf("ActionRetryDownload = %q", got)
	}
	if got := Action(99).String(); got != "action(99)" {
		t.Errorf("unknown action = %q", got)
	}
}
