// Command conductor-demo registers a small one-movement, two-beat
// sequence, plays it three times at NORMAL priority, and prints the
// statistics snapshot once everything has drained.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/r3e-labs/musicalconductor/conductor"
)

func main() {
	heartbeat := flag.String("heartbeat", "", "cron expression for a periodic statistics log line (e.g. \"@every 30s\")")
	dedupWindow := flag.Duration("dedup-window", time.Second, "duplicate-request detection window")
	flag.Parse()

	opts := []conductor.Option{
		conductor.WithDedupWindow(*dedupWindow),
	}
	if *heartbeat != "" {
		opts = append(opts, conductor.WithStatsHeartbeat(*heartbeat))
	}

	c := conductor.New(opts...)
	defer c.Close()

	c.Subscribe(conductor.TopicSequenceCompleted, func(e conductor.Event) error {
		ev := e.Payload.(conductor.SequenceCompletedEvent)
		fmt.Printf("completed %s (request %s) in %dms\n", ev.SequenceName, ev.RequestID, ev.RuntimeMs)
		return nil
	})
	c.Subscribe(conductor.TopicSequenceFailed, func(e conductor.Event) error {
		ev := e.Payload.(conductor.SequenceFailedEvent)
		fmt.Printf("failed %s (request %s): %v\n", ev.SequenceName, ev.RequestID, ev.Err)
		return nil
	})

	greet := conductor.Movement{
		Name:        "greeting",
		Description: "one hello, one goodbye",
		Beats: []conductor.Beat{
			{Number: 1, Event: "demo:say-hello", Title: "Say hello", Dynamics: conductor.DynamicsForte, Timing: conductor.Immediate()},
			{Number: 2, Event: "demo:say-goodbye", Title: "Say goodbye", Dynamics: conductor.DynamicsPiano, Timing: conductor.AfterBeat()},
		},
	}
	seq := &conductor.Sequence{
		Name:        "demo.greet",
		Description: "greets a listener, then says goodbye",
		Key:         "C major",
		Tempo:       120,
		Category:    conductor.CategoryUIInteraction,
		Movements:   []conductor.Movement{greet},
	}

	handlers := conductor.HandlerTable{
		"demo:say-hello": func(ctx *conductor.ExecutionContext, payload map[string]any) (map[string]any, error) {
			fmt.Printf("[%s] hello, %v\n", ctx.InstanceID, payload["name"])
			return map[string]any{"greeted": true}, nil
		},
		"demo:say-goodbye": func(ctx *conductor.ExecutionContext, payload map[string]any) (map[string]any, error) {
			fmt.Printf("[%s] goodbye, %v (greeted=%v)\n", ctx.InstanceID, payload["name"], payload["greeted"])
			return nil, nil
		},
	}

	if _, err := c.RegisterPlugin(seq, handlers); err != nil {
		log.Fatalf("register sequence: %v", err)
	}

	for i := 0; i < 3; i++ {
		result, err := c.Play("demo", "greet", map[string]any{"name": fmt.Sprintf("listener-%d", i)}, conductor.PriorityNormal)
		if err != nil {
			log.Printf("play error: %v", err)
			continue
		}
		fmt.Printf("admitted request %s (duplicate=%v)\n", result.RequestID, result.IsDuplicate)
	}

	time.Sleep(100 * time.Millisecond)

	snap := c.GetStatistics()
	fmt.Printf("stats: queued=%d started=%d completed=%d errored=%d cancelled=%d duplicates=%d\n",
		snap.Counters.Queued, snap.Counters.Started, snap.Counters.Completed, snap.Counters.Errored, snap.Counters.Cancelled, snap.Counters.Duplicates)
}
