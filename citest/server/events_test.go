package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mcp-x-studio/canvas/citest/testutil"
)

const eventTimeout = 5 * time.Second

func connect() *testutil.SSEClient {
	sse := testServer.SSEClient()
	Expect(sse.Connect(ctx, "/events")).To(Succeed())
	DeferCleanup(sse.Close)
	return sse
}

var _ = Describe("Event stream", func() {
	Describe("GET /events", func() {
		It("should send connected and then a reload of the current document", func() {
			sse := connect()
			Expect(sse.WaitForComment("connected", eventTimeout)).To(Succeed())

			evt, err := sse.NextData(eventTimeout)
			Expect(err).NotTo(HaveOccurred())
			Expect(evt.Type).To(Equal("reload"))
			Expect(evt.Timestamp).To(MatchRegexp(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`))

			doc, err := evt.Document()
			Expect(err).NotTo(HaveOccurred())
			current, err := client.GetCanvas(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc).To(Equal(current))
		})
	})

	Describe("broadcast fidelity", func() {
		It("should deliver exactly one event per accepted edit", func() {
			sse := connect()
			_, err := sse.WaitForEvent("reload", eventTimeout)
			Expect(err).NotTo(HaveOccurred())

			resp, err := client.Post(ctx, "/canvas/css", map[string]string{"css": "a{}"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			evt, err := sse.NextData(eventTimeout)
			Expect(err).NotTo(HaveOccurred())
			Expect(evt.Type).To(Equal("canvas-update-css"))
			Expect(evt.Payload).To(MatchJSON(`{"css":"a{}"}`))

			resp, err = client.AddElement(ctx, "ev_1", testutil.Geometry("1px", "2px", "3px", "4px"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.IsSuccess()).To(BeTrue())

			evt, err = sse.NextData(eventTimeout)
			Expect(err).NotTo(HaveOccurred())
			Expect(evt.Type).To(Equal("canvas-add-element"))
			var node map[string]any
			Expect(json.Unmarshal(evt.Payload, &node)).To(Succeed())
			Expect(node).To(HaveKeyWithValue("id", "ev_1"))
			Expect(node).To(HaveKeyWithValue("position", "absolute"))

			resp, err = client.DeleteElement(ctx, "ev_1")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.IsSuccess()).To(BeTrue())

			evt, err = sse.NextData(eventTimeout)
			Expect(err).NotTo(HaveOccurred())
			Expect(evt.Type).To(Equal("canvas-delete-element"))
			Expect(evt.Payload).To(MatchJSON(`{"id":"ev_1"}`))
		})

		It("should not broadcast rejected edits", func() {
			sse := connect()
			_, err := sse.WaitForEvent("reload", eventTimeout)
			Expect(err).NotTo(HaveOccurred())

			resp, err := client.UpdateElementStyles(ctx, "element_1", map[string]any{"&:hover": map[string]any{"color": "red"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			matcher := testutil.NewEventMatcher(sse.CollectEvents(200 * time.Millisecond))
			Expect(matcher.DataTypes()).To(BeEmpty())
		})
	})

	Describe("reconnect snapshot", func() {
		It("should start late subscribers from the current document", func() {
			for i := range 3 {
				resp, err := client.AddElement(ctx, fmt.Sprintf("late_%d", i), testutil.Geometry("1px", "1px", "0", "0"))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.IsSuccess()).To(BeTrue())
			}

			sse := connect()
			evt, err := sse.NextData(eventTimeout)
			Expect(err).NotTo(HaveOccurred())
			Expect(evt.Type).To(Equal("reload"))

			doc, err := evt.Document()
			Expect(err).NotTo(HaveOccurred())
			Expect(testutil.ChildIDs(doc)).To(ContainElements("late_0", "late_1", "late_2"))

			matcher := testutil.NewEventMatcher(sse.CollectEvents(200 * time.Millisecond))
			Expect(matcher.CountType("canvas-add-element")).To(Equal(0))
		})
	})

	Describe("ordering", func() {
		It("should deliver the same sequence to every viewer", func() {
			viewers := []*testutil.SSEClient{connect(), connect(), connect()}
			for _, v := range viewers {
				_, err := v.WaitForEvent("reload", eventTimeout)
				Expect(err).NotTo(HaveOccurred())
			}

			for i := range 5 {
				resp, err := client.Post(ctx, "/canvas/javascript", map[string]string{"javascript": fmt.Sprintf("step(%d)", i)})
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.IsSuccess()).To(BeTrue())
			}

			var want []string
			for i := range 5 {
				want = append(want, fmt.Sprintf(`{"javascript":"step(%d)"}`, i))
			}
			for _, v := range viewers {
				var got []string
				for range 5 {
					evt, err := v.NextData(eventTimeout)
					Expect(err).NotTo(HaveOccurred())
					Expect(evt.Type).To(Equal("canvas-update-javascript"))
					got = append(got, string(evt.Payload))
				}
				Expect(got).To(Equal(want))
			}
		})
	})
})

var _ = Describe("Stream lifecycle", func() {
	var server *testutil.TestServer

	BeforeEach(func() {
		var err error
		server, err = testutil.StartTestServer(testutil.WithHeartbeat(50 * time.Millisecond))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(server.Stop)
	})

	It("should send heartbeats while idle", func() {
		sse := server.SSEClient()
		Expect(sse.Connect(ctx, "/events")).To(Succeed())
		defer sse.Close()

		Expect(sse.WaitForComment("heartbeat", eventTimeout)).To(Succeed())
	})

	It("should release the subscriber when the viewer disconnects", func() {
		sse := server.SSEClient()
		Expect(sse.Connect(ctx, "/events")).To(Succeed())
		_, err := sse.WaitForEvent("reload", eventTimeout)
		Expect(err).NotTo(HaveOccurred())
		Expect(server.Server.Bus().Count()).To(Equal(1))

		sse.Close()
		Eventually(server.Server.Bus().Count, eventTimeout).Should(Equal(0))
		Eventually(server.Server.Bus().ActiveTimers, eventTimeout).Should(Equal(0))
	})

	It("should end open streams on shutdown", func() {
		sse := server.SSEClient()
		Expect(sse.Connect(ctx, "/events")).To(Succeed())
		defer sse.Close()
		_, err := sse.WaitForEvent("reload", eventTimeout)
		Expect(err).NotTo(HaveOccurred())

		Expect(server.Stop()).To(Succeed())
		Expect(sse.Closed(eventTimeout)).To(BeTrue())
	})
})
