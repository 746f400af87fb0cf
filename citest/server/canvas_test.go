package server_test

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mcp-x-studio/canvas/citest/testutil"
	"github.com/mcp-x-studio/canvas/pkg/types"
)

var _ = Describe("Canvas API", func() {
	Describe("GET /canvas", func() {
		It("should return the default document", func() {
			doc, err := client.GetCanvas(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Artboard.ID).To(Equal("artboard"))
			Expect(doc.Artboard.Position).To(Equal(types.PositionRelative))
			Expect(doc.Artboard.Children).NotTo(BeNil())
		})
	})

	Describe("add then delete", func() {
		It("should add an absolute node and remove it again", func() {
			resp, err := client.Post(ctx, "/canvas/add-element", map[string]any{
				"id":    "b1",
				"type":  "div",
				"style": testutil.Geometry("10px", "10px", "0", "0"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK), resp.String())

			doc, err := resp.Document()
			Expect(err).NotTo(HaveOccurred())
			node := testutil.FindChild(doc, "b1")
			Expect(node).NotTo(BeNil())
			Expect(node.Position).To(Equal(types.PositionAbsolute))

			resp, err = client.DeleteElement(ctx, "b1")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			doc, err = resp.Document()
			Expect(err).NotTo(HaveOccurred())
			Expect(testutil.FindChild(doc, "b1")).To(BeNil())
		})
	})

	Describe("POST /canvas/artboard/styles", func() {
		It("should merge styles and keep the artboard anchored", func() {
			resp, err := client.Post(ctx, "/canvas/artboard/styles", map[string]any{
				"style": map[string]any{"background": "#000000"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			doc, err := resp.Document()
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Artboard.Style).To(HaveKeyWithValue("background", "#000000"))
			Expect(doc.Artboard.Style).To(HaveKeyWithValue("top", BeNumerically("==", 0)))
			Expect(doc.Artboard.Style).To(HaveKeyWithValue("left", BeNumerically("==", 0)))
			Expect(doc.Artboard.Position).To(Equal(types.PositionRelative))
		})
	})

	Describe("uniqueness", func() {
		It("should reject a second element with the same id", func() {
			resp, err := client.AddElement(ctx, "dup_1", testutil.Geometry("1px", "1px", "0", "0"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.IsSuccess()).To(BeTrue())
			before, _ := client.GetCanvas(ctx)

			resp, err = client.AddElement(ctx, "dup_1", testutil.Geometry("2px", "2px", "0", "0"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
			Expect(resp.ErrorCode()).To(Equal("DUPLICATE_ID"))

			after, _ := client.GetCanvas(ctx)
			Expect(after).To(Equal(before))
		})
	})

	DescribeTable("rejected edits leave the document unchanged",
		func(method, path, body string, status int, code string) {
			before, err := client.GetCanvas(ctx)
			Expect(err).NotTo(HaveOccurred())

			var resp *testutil.Response
			if method == http.MethodDelete {
				resp, err = client.Delete(ctx, path)
			} else {
				resp, err = client.PostRaw(ctx, path, body)
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(status), resp.String())
			Expect(resp.ErrorCode()).To(Equal(code))

			after, err := client.GetCanvas(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(Equal(before))
		},
		Entry("missing geometry", http.MethodPost, "/canvas/add-element",
			`{"id":"geo_1","style":{"width":"1px","height":"1px","left":"0"}}`, http.StatusBadRequest, "INVALID_STYLE"),
		Entry("short id", http.MethodPost, "/canvas/add-element",
			`{"id":"ab","style":{"width":"1px","height":"1px","left":"0","top":"0"}}`, http.StatusBadRequest, "INVALID_ID"),
		Entry("pseudo selector", http.MethodPost, "/canvas/element/element_1/styles",
			`{"style":{"&:hover":{"color":"red"}}}`, http.StatusBadRequest, "INVALID_STYLE"),
		Entry("keyframes", http.MethodPost, "/canvas/element/element_1/styles",
			`{"style":{"@keyframes spin":{"from":{"opacity":0}}}}`, http.StatusBadRequest, "INVALID_STYLE"),
		Entry("unknown element styles", http.MethodPost, "/canvas/element/ghost/styles",
			`{"style":{"color":"red"}}`, http.StatusNotFound, "UNKNOWN_ID"),
		Entry("malformed body", http.MethodPost, "/canvas/css", `{"css":`, http.StatusBadRequest, "INVALID_PAYLOAD"),
		Entry("delete unknown id", http.MethodDelete, "/canvas/element/ghost", "", http.StatusNotFound, "UNKNOWN_ID"),
	)

	Describe("deletion precision", func() {
		It("should never remove an unrelated element", func() {
			for _, id := range []string{"keep_a", "keep_b"} {
				resp, err := client.AddElement(ctx, id, testutil.Geometry("1px", "1px", "0", "0"))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.IsSuccess()).To(BeTrue())
			}
			before, _ := client.GetCanvas(ctx)

			resp, err := client.DeleteElement(ctx, "not_there")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

			after, _ := client.GetCanvas(ctx)
			Expect(testutil.ChildIDs(after)).To(Equal(testutil.ChildIDs(before)))
		})
	})

	Describe("partial style merge", func() {
		It("should keep earlier properties", func() {
			_, err := client.UpdateElementStyles(ctx, "element_1", types.Style{"width": "10px"})
			Expect(err).NotTo(HaveOccurred())
			resp, err := client.UpdateElementStyles(ctx, "element_1", types.Style{"background": "blue"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			doc, err := resp.Document()
			Expect(err).NotTo(HaveOccurred())
			node := testutil.FindChild(doc, "element_1")
			Expect(node.Style).To(HaveKeyWithValue("width", "10px"))
			Expect(node.Style).To(HaveKeyWithValue("background", "blue"))
		})
	})

	Describe("global text", func() {
		It("should store css and javascript verbatim", func() {
			css := ".x:hover { color: red }\n@keyframes spin { to { transform: rotate(1turn) } }"
			resp, err := client.Post(ctx, "/canvas/css", map[string]string{"css": css})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp, err = client.Post(ctx, "/canvas/javascript", map[string]string{"javascript": "console.log('hi')"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			doc, err := client.GetCanvas(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.CSS).To(Equal(css))
			Expect(doc.JavaScript).To(Equal("console.log('hi')"))
		})
	})

	Describe("routing", func() {
		It("should answer unknown routes with a JSON 404", func() {
			resp, err := client.Get(ctx, "/nope")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(resp.ErrorCode()).To(Equal("NOT_FOUND"))
		})

		It("should serve the demo viewer", func() {
			resp, err := client.Get(ctx, "/")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Headers.Get("Content-Type")).To(HavePrefix("text/html"))
			Expect(resp.String()).To(ContainSubstring("EventSource"))
		})
	})
})
