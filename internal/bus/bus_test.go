package bus_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"eventweave.app/planner/internal/bus"
	"eventweave.app/planner/internal/model"
)

var _ = Describe("Bus", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		b      *bus.Bus
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		b = bus.New(nil)
		b.Run(ctx)
	})

	AfterEach(func() {
		cancel()
		b.Wait()
	})

	It("delivers send_and_wait replies correlated by task_id", func() {
		b.Register("worker", func(msg model.Message) *model.Message {
			return &model.Message{
				From: "worker", To: msg.From, Kind: model.KindAgentResponse,
				SessionID: msg.SessionID,
				Body:      map[string]any{"task_id": msg.Body["task_id"], "result": "ok"},
			}
		})

		reply, err := b.SendAndWait(ctx, model.Message{
			From: "planner", To: "worker", Kind: model.KindTask, SessionID: "s1",
			Body: map[string]any{"task_id": "t1"},
		}, time.Second)

		Expect(err).NotTo(HaveOccurred())
		Expect(reply).NotTo(BeNil())
		Expect(reply.Body["result"]).To(Equal("ok"))
	})

	It("returns nil on timeout without error", func() {
		b.Register("slow", func(model.Message) *model.Message {
			time.Sleep(100 * time.Millisecond)
			return nil
		})

		reply, err := b.SendAndWait(ctx, model.Message{
			From: "planner", To: "slow", Kind: model.KindTask, SessionID: "s1",
			Body: map[string]any{"task_id": "t2"},
		}, 10*time.Millisecond)

		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(BeNil())
	})

	It("returns nil immediately for a zero timeout", func() {
		start := time.Now()
		reply, err := b.SendAndWait(ctx, model.Message{
			From: "planner", To: "worker", Kind: model.KindTask, SessionID: "s1",
			Body: map[string]any{"task_id": "t3"},
		}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(BeNil())
		Expect(time.Since(start)).To(BeNumerically("<", 50*time.Millisecond))
	})

	It("drops messages to unknown destinations without panicking", func() {
		Expect(func() {
			_ = b.Send(ctx, model.Message{From: "a", To: "nowhere", Kind: model.KindTask, Body: map[string]any{}})
			time.Sleep(10 * time.Millisecond)
		}).NotTo(Panic())
	})

	It("converts a handler panic into an error reply", func() {
		b.Register("flaky", func(model.Message) *model.Message {
			panic("boom")
		})

		reply, err := b.SendAndWait(ctx, model.Message{
			From: "planner", To: "flaky", Kind: model.KindTask, SessionID: "s1",
			Body: map[string]any{"task_id": "t4"},
		}, time.Second)

		Expect(err).NotTo(HaveOccurred())
		Expect(reply).NotTo(BeNil())
		Expect(reply.Kind).To(Equal(model.KindError))
	})

	It("snapshots shared data into outbound task messages", func() {
		b.SetSharedData("venue_graph", map[string]any{"nodes": 3})

		var seen map[string]any
		b.Register("worker", func(msg model.Message) *model.Message {
			seen = msg.Body["graph_data"].(map[string]any)
			return &model.Message{From: "worker", To: msg.From, Kind: model.KindAgentResponse, Body: map[string]any{"task_id": msg.Body["task_id"]}}
		})

		_, err := b.SendAndWait(ctx, model.Message{
			From: "planner", To: "worker", Kind: model.KindTask, SessionID: "s1",
			Body: map[string]any{"task_id": "t5"},
		}, time.Second)
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(HaveKey("venue_graph"))
	})

	It("fans broadcasts out to every endpoint except the sender", func() {
		received := make(chan string, 2)
		b.Register("a", func(msg model.Message) *model.Message {
			received <- "a"
			return nil
		})
		b.Register("b", func(msg model.Message) *model.Message {
			received <- "b"
			return nil
		})

		b.Broadcast(ctx, model.KindBroadcast, map[string]any{"note": "hi"}, "a", "s1")

		Eventually(received).Should(Receive(Equal("b")))
		Consistently(received, 50*time.Millisecond).ShouldNot(Receive())
	})
})
